package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/models"
)

// StudentMutation is a deferred update to one student record: plain field
// sets plus numeric increments applied relative to the stored value.
type StudentMutation struct {
	StudentID  uint
	Sets       map[string]interface{}
	Increments map[string]int
}

// StudentRepository defines data operations for student records.
type StudentRepository interface {
	ListEligibleIDs(ctx context.Context, departmentID uint) ([]uint, error)
	FetchByIDs(ctx context.Context, ids []uint) ([]models.Student, error)
	BulkApply(ctx context.Context, mutations []StudentMutation) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates the repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// ListEligibleIDs returns ids of students whose files are still open, in
// stable id order. Terminated and withdrawn students keep their records but
// are not re-processed.
func (r *studentRepository) ListEligibleIDs(ctx context.Context, departmentID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("department_id = ?", departmentID).
		Where("termination_status = ?", models.TerminationNone).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *studentRepository) FetchByIDs(ctx context.Context, ids []uint) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var students []models.Student
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&students).Error
	if err != nil {
		return nil, err
	}

	return students, nil
}

// BulkApply performs all mutations inside one transaction. Increments use a
// relative expression so concurrent clears elsewhere are not overwritten.
func (r *studentRepository) BulkApply(ctx context.Context, mutations []StudentMutation) error {
	if len(mutations) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, mutation := range mutations {
			updates := map[string]interface{}{}
			for column, value := range mutation.Sets {
				updates[column] = value
			}
			for column, delta := range mutation.Increments {
				updates[column] = gorm.Expr(fmt.Sprintf("%s + ?", column), delta)
			}
			if len(updates) == 0 {
				continue
			}
			if err := tx.Model(&models.Student{}).
				Where("id = ?", mutation.StudentID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
