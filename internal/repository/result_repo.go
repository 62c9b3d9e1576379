package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/models"
)

// ResultRepository supplies raw score records. Results are read-only input
// to the engine.
type ResultRepository interface {
	FetchByStudents(ctx context.Context, studentIDs []uint, termID uint) (map[uint][]models.ResultRecord, error)
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository instantiates the repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

// FetchByStudents loads every result for the given students in one query and
// groups them by student. Course attributes come along denormalized so the
// processor never queries courses per student.
func (r *resultRepository) FetchByStudents(ctx context.Context, studentIDs []uint, termID uint) (map[uint][]models.ResultRecord, error) {
	if len(studentIDs) == 0 {
		return map[uint][]models.ResultRecord{}, nil
	}

	var records []models.ResultRecord
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.BorrowedFrom").
		Where("student_id IN ?", studentIDs).
		Where("term_id = ?", termID).
		Order("student_id ASC, course_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[uint][]models.ResultRecord, len(studentIDs))
	for _, record := range records {
		grouped[record.StudentID] = append(grouped[record.StudentID], record)
	}

	return grouped, nil
}
