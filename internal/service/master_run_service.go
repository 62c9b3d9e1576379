package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/middleware"
	"github.com/dipoade/resulta-api/internal/models"
	"github.com/dipoade/resulta-api/internal/repository"
	"github.com/dipoade/resulta-api/internal/scheduler"
)

// ErrMasterRunNotFound indicates an unknown master run id.
var ErrMasterRunNotFound = errors.New("master computation run not found")

// ErrNoDepartments indicates a trigger with nothing to dispatch.
var ErrNoDepartments = errors.New("no departments to compute")

// MasterRunService opens term-wide runs, fans one job out per department and
// tracks their completion.
type MasterRunService interface {
	Trigger(ctx context.Context, payload dto.TriggerMasterRunRequest) (dto.MasterRunResponse, error)
	Get(ctx context.Context, id string) (dto.MasterRunResponse, error)
	ReportDepartment(ctx context.Context, id string, failed bool) error
}

type masterRunService struct {
	runs        repository.MasterRunRepository
	departments repository.DepartmentRepository
	queue       scheduler.Queue
	notifier    NotificationService
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewMasterRunService constructs the service.
func NewMasterRunService(runs repository.MasterRunRepository, departments repository.DepartmentRepository, queue scheduler.Queue, notifier NotificationService, validate *validator.Validate, logger zerolog.Logger) MasterRunService {
	return &masterRunService{
		runs:        runs,
		departments: departments,
		queue:       queue,
		notifier:    notifier,
		validator:   validate,
		logger:      logger.With().Str("component", "master_run_service").Logger(),
		now:         time.Now,
	}
}

// Trigger opens the run and enqueues one computation job per department.
func (s *masterRunService) Trigger(ctx context.Context, payload dto.TriggerMasterRunRequest) (dto.MasterRunResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MasterRunResponse{}, err
	}

	departments, err := s.departments.ListAll(ctx)
	if err != nil {
		return dto.MasterRunResponse{}, fmt.Errorf("list departments: %w", err)
	}
	if len(departments) == 0 {
		return dto.MasterRunResponse{}, ErrNoDepartments
	}

	purpose := payload.Purpose
	if purpose == "" {
		purpose = string(models.PurposeFinal)
		if payload.IsPreview {
			purpose = string(models.PurposePreview)
		}
	}

	run := models.MasterComputationRun{
		ID:               uuid.NewString(),
		TermID:           payload.TermID,
		Status:           models.MasterRunProcessing,
		TriggeredBy:      payload.TriggeredBy,
		TotalDepartments: len(departments),
		StartedAt:        s.now(),
	}
	if err := s.runs.Create(ctx, &run); err != nil {
		return dto.MasterRunResponse{}, fmt.Errorf("create master run: %w", err)
	}

	for _, department := range departments {
		job := dto.ComputationJobRequest{
			JobID:         uuid.NewString(),
			CorrelationID: middleware.CorrelationIDFromContext(ctx),
			DepartmentID:  department.ID,
			MasterRunID:   run.ID,
			ComputedBy:    payload.TriggeredBy,
			IsPreview:     payload.IsPreview,
			Purpose:       purpose,
			Priority:      payload.Priority,
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			// The run stays open; its tally will show the gap.
			s.logger.Error().Err(err).
				Uint("department_id", department.ID).
				Str("run_id", run.ID).
				Msg("failed to enqueue department job")
		}
	}

	s.logger.Info().
		Str("run_id", run.ID).
		Int("departments", run.TotalDepartments).
		Bool("preview", payload.IsPreview).
		Msg("master run triggered")

	return dto.NewMasterRunResponse(run), nil
}

func (s *masterRunService) Get(ctx context.Context, id string) (dto.MasterRunResponse, error) {
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MasterRunResponse{}, ErrMasterRunNotFound
		}
		return dto.MasterRunResponse{}, err
	}

	return dto.NewMasterRunResponse(run), nil
}

// ReportDepartment records one department's outcome; the repository flips
// the run to completed when the last department reports, at which point the
// admin digest goes out.
func (s *masterRunService) ReportDepartment(ctx context.Context, id string, failed bool) error {
	run, err := s.runs.ReportDepartment(ctx, id, failed, s.now())
	if err != nil {
		return err
	}

	if run.Status == models.MasterRunCompleted {
		s.notifier.NotifyRunCompleted(ctx, run)
	}

	return nil
}
