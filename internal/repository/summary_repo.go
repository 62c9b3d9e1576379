package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/models"
)

// SummaryRepository defines data operations for computation summaries.
type SummaryRepository interface {
	GetByID(ctx context.Context, id uint) (models.ComputationSummary, error)
	FindByKey(ctx context.Context, departmentID, termID uint, masterRunID string) (models.ComputationSummary, error)
	Create(ctx context.Context, summary *models.ComputationSummary) error
	Save(ctx context.Context, summary *models.ComputationSummary) error
}

type summaryRepository struct {
	db *gorm.DB
}

// NewSummaryRepository instantiates the repository.
func NewSummaryRepository(db *gorm.DB) SummaryRepository {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) GetByID(ctx context.Context, id uint) (models.ComputationSummary, error) {
	var summary models.ComputationSummary
	if err := r.db.WithContext(ctx).First(&summary, id).Error; err != nil {
		return models.ComputationSummary{}, err
	}

	return summary, nil
}

func (r *summaryRepository) FindByKey(ctx context.Context, departmentID, termID uint, masterRunID string) (models.ComputationSummary, error) {
	var summary models.ComputationSummary
	err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Where("term_id = ?", termID).
		Where("master_run_id = ?", masterRunID).
		First(&summary).Error
	if err != nil {
		return models.ComputationSummary{}, err
	}

	return summary, nil
}

func (r *summaryRepository) Create(ctx context.Context, summary *models.ComputationSummary) error {
	return r.db.WithContext(ctx).Create(summary).Error
}

func (r *summaryRepository) Save(ctx context.Context, summary *models.ComputationSummary) error {
	return r.db.WithContext(ctx).Save(summary).Error
}
