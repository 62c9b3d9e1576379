package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/repository"
)

// StudentRecordService reads a student's archived academic record.
type StudentRecordService interface {
	SemesterHistory(ctx context.Context, studentID uint) ([]dto.SemesterResultResponse, error)
}

type studentRecordService struct {
	semesters repository.SemesterResultRepository
	logger    zerolog.Logger
}

// NewStudentRecordService constructs the service.
func NewStudentRecordService(semesters repository.SemesterResultRepository, logger zerolog.Logger) StudentRecordService {
	return &studentRecordService{
		semesters: semesters,
		logger:    logger.With().Str("component", "student_record_service").Logger(),
	}
}

// SemesterHistory returns the student's term-by-term snapshots in term order.
// Snapshots exist only for final-mode runs, so a student with no archived
// terms yields an empty history rather than an error.
func (s *studentRecordService) SemesterHistory(ctx context.Context, studentID uint) ([]dto.SemesterResultResponse, error) {
	records, err := s.semesters.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	history := make([]dto.SemesterResultResponse, 0, len(records))
	for _, record := range records {
		history = append(history, dto.NewSemesterResultResponse(record))
	}

	return history, nil
}
