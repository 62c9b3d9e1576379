package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dipoade/resulta-api/internal/models"
)

// CarryoverRepository defines data operations for carry-over records.
type CarryoverRepository interface {
	GetByID(ctx context.Context, id uint) (models.CarryoverRecord, error)
	ListUnclearedByStudents(ctx context.Context, studentIDs []uint) (map[uint][]models.CarryoverRecord, error)
	ListUnclearedByStudent(ctx context.Context, studentID uint) ([]models.CarryoverRecord, error)
	BulkCreate(ctx context.Context, records []models.CarryoverRecord) error
	MarkCleared(ctx context.Context, id uint, clearedBy string, clearedAt time.Time) error
}

type carryoverRepository struct {
	db *gorm.DB
}

// NewCarryoverRepository instantiates the repository.
func NewCarryoverRepository(db *gorm.DB) CarryoverRepository {
	return &carryoverRepository{db: db}
}

func (r *carryoverRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.CarryoverRecord{}).
		Preload("Course").
		Preload("Course.BorrowedFrom")
}

func (r *carryoverRepository) GetByID(ctx context.Context, id uint) (models.CarryoverRecord, error) {
	var record models.CarryoverRecord
	if err := r.baseQuery(ctx).First(&record, id).Error; err != nil {
		return models.CarryoverRecord{}, err
	}

	return record, nil
}

func (r *carryoverRepository) ListUnclearedByStudents(ctx context.Context, studentIDs []uint) (map[uint][]models.CarryoverRecord, error) {
	if len(studentIDs) == 0 {
		return map[uint][]models.CarryoverRecord{}, nil
	}

	var records []models.CarryoverRecord
	err := r.baseQuery(ctx).
		Where("student_id IN ?", studentIDs).
		Where("cleared = ?", false).
		Order("student_id ASC, course_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[uint][]models.CarryoverRecord)
	for _, record := range records {
		grouped[record.StudentID] = append(grouped[record.StudentID], record)
	}

	return grouped, nil
}

func (r *carryoverRepository) ListUnclearedByStudent(ctx context.Context, studentID uint) ([]models.CarryoverRecord, error) {
	var records []models.CarryoverRecord
	err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Where("cleared = ?", false).
		Order("course_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// BulkCreate inserts new obligations, relying on the (student, course, term)
// unique index to swallow duplicates from a retried batch.
func (r *carryoverRepository) BulkCreate(ctx context.Context, records []models.CarryoverRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&records).Error
}

func (r *carryoverRepository) MarkCleared(ctx context.Context, id uint, clearedBy string, clearedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.CarryoverRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cleared":    true,
			"cleared_by": clearedBy,
			"cleared_at": clearedAt,
		}).Error
}
