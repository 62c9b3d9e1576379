package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/models"
	"github.com/dipoade/resulta-api/internal/repository"
)

// ErrCarryoverNotFound indicates the carry-over id is unknown.
var ErrCarryoverNotFound = errors.New("carryover record not found")

// ErrCarryoverAlreadyCleared indicates the record was cleared previously.
var ErrCarryoverAlreadyCleared = errors.New("carryover record already cleared")

// CarryoverTracker plans new carry-over obligations during a run and clears
// existing ones on request.
type CarryoverTracker interface {
	Plan(student models.Student, decision StandingDecision, courses []dto.CourseResult, missingCore []models.Course, existing []models.CarryoverRecord, termID uint) []models.CarryoverRecord
	Clear(ctx context.Context, id uint, clearedBy string) (dto.CarryoverResponse, error)
	ListActive(ctx context.Context, studentID uint) ([]dto.CarryoverResponse, error)
}

type carryoverTracker struct {
	carryovers repository.CarryoverRepository
	students   repository.StudentRepository
	logger     zerolog.Logger
	now        func() time.Time
}

// NewCarryoverTracker constructs the tracker.
func NewCarryoverTracker(carryovers repository.CarryoverRepository, students repository.StudentRepository, logger zerolog.Logger) CarryoverTracker {
	return &carryoverTracker{
		carryovers: carryovers,
		students:   students,
		logger:     logger.With().Str("component", "carryover_tracker").Logger(),
		now:        time.Now,
	}
}

// Plan returns the carry-over records a final run should create for one
// student. Failures of non-core courses stay in the outstanding history but
// never become carry-overs, and a student whose file closed this run gets
// none at all. Courses already covered by an uncleared record are skipped,
// so a retried term cannot duplicate an obligation.
func (t *carryoverTracker) Plan(student models.Student, decision StandingDecision, courses []dto.CourseResult, missingCore []models.Course, existing []models.CarryoverRecord, termID uint) []models.CarryoverRecord {
	if decision.TerminationStatus == models.TerminationWithdrawn || decision.TerminationStatus == models.TerminationTerminated {
		return nil
	}

	covered := make(map[uint]bool, len(existing))
	for _, record := range existing {
		covered[record.CourseID] = true
	}

	var planned []models.CarryoverRecord
	for _, course := range courses {
		if !course.Failed || !course.IsCore || covered[course.CourseID] {
			continue
		}
		covered[course.CourseID] = true
		planned = append(planned, models.CarryoverRecord{
			StudentID: student.ID,
			CourseID:  course.CourseID,
			TermID:    termID,
			Grade:     course.Grade,
			Score:     course.Score,
			Reason:    models.CarryoverFailed,
		})
	}

	for _, course := range missingCore {
		if covered[course.ID] {
			continue
		}
		covered[course.ID] = true
		planned = append(planned, models.CarryoverRecord{
			StudentID: student.ID,
			CourseID:  course.ID,
			TermID:    termID,
			Grade:     "F",
			Score:     0,
			Reason:    models.CarryoverNotRegistered,
		})
	}

	return planned
}

// Clear marks a carry-over record cleared and decrements the owning
// student's active carry-over counter.
func (t *carryoverTracker) Clear(ctx context.Context, id uint, clearedBy string) (dto.CarryoverResponse, error) {
	record, err := t.carryovers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CarryoverResponse{}, ErrCarryoverNotFound
		}
		return dto.CarryoverResponse{}, err
	}

	if record.Cleared {
		return dto.CarryoverResponse{}, ErrCarryoverAlreadyCleared
	}

	clearedAt := t.now()
	if err := t.carryovers.MarkCleared(ctx, id, clearedBy, clearedAt); err != nil {
		return dto.CarryoverResponse{}, err
	}

	mutation := repository.StudentMutation{
		StudentID:  record.StudentID,
		Increments: map[string]int{"total_carryovers": -1},
	}
	if err := t.students.BulkApply(ctx, []repository.StudentMutation{mutation}); err != nil {
		t.logger.Error().Err(err).Uint("student_id", record.StudentID).Msg("failed to decrement carryover counter")
		return dto.CarryoverResponse{}, err
	}

	record.Cleared = true
	record.ClearedBy = clearedBy
	record.ClearedAt = &clearedAt

	t.logger.Info().
		Uint("carryover_id", id).
		Uint("student_id", record.StudentID).
		Str("cleared_by", clearedBy).
		Msg("carryover cleared")

	return dto.NewCarryoverResponse(record), nil
}

func (t *carryoverTracker) ListActive(ctx context.Context, studentID uint) ([]dto.CarryoverResponse, error) {
	records, err := t.carryovers.ListUnclearedByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CarryoverResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, dto.NewCarryoverResponse(record))
	}

	return responses, nil
}
