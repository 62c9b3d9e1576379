package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dipoade/resulta-api/internal/models"
)

// SemesterResultRepository persists per-term result snapshots.
type SemesterResultRepository interface {
	BulkCreate(ctx context.Context, records []models.SemesterResultRecord) error
	ListByStudent(ctx context.Context, studentID uint) ([]models.SemesterResultRecord, error)
}

type semesterResultRepository struct {
	db *gorm.DB
}

// NewSemesterResultRepository instantiates the repository.
func NewSemesterResultRepository(db *gorm.DB) SemesterResultRepository {
	return &semesterResultRepository{db: db}
}

// BulkCreate writes snapshots in one batch. Snapshots are immutable once
// written, so a retried job's duplicates are dropped at the index.
func (r *semesterResultRepository) BulkCreate(ctx context.Context, records []models.SemesterResultRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&records).Error
}

func (r *semesterResultRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.SemesterResultRecord, error) {
	var records []models.SemesterResultRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("term_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}
