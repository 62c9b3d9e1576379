package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dipoade/resulta-api/internal/models"
)

// TermRepository resolves the active term and manages result locks.
type TermRepository interface {
	ActiveTerm(ctx context.Context) (models.Term, error)
	IsLocked(ctx context.Context, termID, departmentID uint) (bool, error)
	LockTerm(ctx context.Context, termID, departmentID uint, lockedBy string) error
}

// RegistrationRepository answers the single side query the standing engine
// needs: did the student register anything this term?
type RegistrationRepository interface {
	HasRegistration(ctx context.Context, studentID, termID uint) (bool, error)
}

type termRepository struct {
	db *gorm.DB
}

// NewTermRepository instantiates the repository.
func NewTermRepository(db *gorm.DB) TermRepository {
	return &termRepository{db: db}
}

// ActiveTerm returns the institution-wide active term. Terms are not scoped
// per department; locks are.
func (r *termRepository) ActiveTerm(ctx context.Context) (models.Term, error) {
	var term models.Term
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id DESC").
		First(&term).Error
	if err != nil {
		return models.Term{}, err
	}

	return term, nil
}

func (r *termRepository) IsLocked(ctx context.Context, termID, departmentID uint) (bool, error) {
	var lock models.TermLock
	err := r.db.WithContext(ctx).
		Where("term_id = ?", termID).
		Where("department_id = ?", departmentID).
		First(&lock).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// LockTerm is idempotent: re-locking an already locked pair is a no-op.
func (r *termRepository) LockTerm(ctx context.Context, termID, departmentID uint, lockedBy string) error {
	lock := models.TermLock{TermID: termID, DepartmentID: departmentID, LockedBy: lockedBy}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&lock).Error
}

type registrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository instantiates the repository.
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) HasRegistration(ctx context.Context, studentID, termID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CourseRegistration{}).
		Where("student_id = ?", studentID).
		Where("term_id = ?", termID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
