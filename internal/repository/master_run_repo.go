package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/models"
)

// MasterRunRepository defines data operations for term-wide runs.
type MasterRunRepository interface {
	Create(ctx context.Context, run *models.MasterComputationRun) error
	GetByID(ctx context.Context, id string) (models.MasterComputationRun, error)
	ReportDepartment(ctx context.Context, id string, failed bool, finishedAt time.Time) (models.MasterComputationRun, error)
}

type masterRunRepository struct {
	db *gorm.DB
}

// NewMasterRunRepository instantiates the repository.
func NewMasterRunRepository(db *gorm.DB) MasterRunRepository {
	return &masterRunRepository{db: db}
}

func (r *masterRunRepository) Create(ctx context.Context, run *models.MasterComputationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *masterRunRepository) GetByID(ctx context.Context, id string) (models.MasterComputationRun, error) {
	var run models.MasterComputationRun
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&run).Error
	if err != nil {
		return models.MasterComputationRun{}, err
	}

	return run, nil
}

// ReportDepartment records one department's completion with a relative SQL
// increment, then flips the run to completed when the tally reaches the
// department count. The increment-then-compare runs inside one transaction
// so concurrent department jobs cannot both miss the final transition.
func (r *masterRunRepository) ReportDepartment(ctx context.Context, id string, failed bool, finishedAt time.Time) (models.MasterComputationRun, error) {
	var run models.MasterComputationRun

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		column := "completed_departments"
		if failed {
			column = "failed_departments"
		}

		if err := tx.Model(&models.MasterComputationRun{}).
			Where("id = ?", id).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error; err != nil {
			return err
		}

		if err := tx.Where("id = ?", id).First(&run).Error; err != nil {
			return err
		}

		if run.Status == models.MasterRunProcessing &&
			run.CompletedDepartments+run.FailedDepartments >= run.TotalDepartments {
			run.Status = models.MasterRunCompleted
			run.FinishedAt = &finishedAt
			if err := tx.Model(&models.MasterComputationRun{}).
				Where("id = ?", id).
				Updates(map[string]interface{}{
					"status":      run.Status,
					"finished_at": run.FinishedAt,
				}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return models.MasterComputationRun{}, err
	}

	return run, nil
}
