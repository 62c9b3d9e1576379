package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/models"
	"github.com/dipoade/resulta-api/internal/observability"
	"github.com/dipoade/resulta-api/internal/repository"
)

// ErrTermLocked indicates a final run was requested for a department whose
// term results are already locked.
var ErrTermLocked = errors.New("term already locked for department")

// ErrInvalidRunConfig indicates a bad batch size or flush threshold. Checked
// before any student is touched.
var ErrInvalidRunConfig = errors.New("invalid computation run configuration")

// RunConfig carries the per-run tunables.
type RunConfig struct {
	BatchSize      int
	FlushThreshold int
}

// OrchestratorDeps bundles the collaborators a run needs.
type OrchestratorDeps struct {
	Students        repository.StudentRepository
	Results         repository.ResultRepository
	Carryovers      repository.CarryoverRepository
	Summaries       repository.SummaryRepository
	Terms           repository.TermRepository
	Registrations   repository.RegistrationRepository
	Courses         repository.CourseRepository
	Departments     repository.DepartmentRepository
	SemesterResults repository.SemesterResultRepository
	Tracker         CarryoverTracker
	MasterRuns      MasterRunService
	Notifier        NotificationService
}

// ComputationOrchestrator runs one department's computation job end-to-end
// in preview or final mode. All per-run state lives in objects constructed
// inside Run, so one orchestrator instance may serve concurrent jobs for
// different departments.
type ComputationOrchestrator struct {
	deps      OrchestratorDeps
	engine    StandingEngine
	cfg       RunConfig
	validator *validator.Validate
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewComputationOrchestrator constructs the orchestrator.
func NewComputationOrchestrator(deps OrchestratorDeps, cfg RunConfig, validate *validator.Validate, logger zerolog.Logger) *ComputationOrchestrator {
	return &ComputationOrchestrator{
		deps:      deps,
		engine:    NewStandingEngine(),
		cfg:       cfg,
		validator: validate,
		tracer:    otel.Tracer("resulta.computation"),
		logger:    logger.With().Str("component", "computation_orchestrator").Logger(),
		now:       time.Now,
	}
}

type batchData struct {
	students map[uint]models.Student
	results  map[uint][]models.ResultRecord
}

// Run executes one department computation job and returns the finalized
// summary.
func (o *ComputationOrchestrator) Run(ctx context.Context, job dto.ComputationJobRequest) (models.ComputationSummary, error) {
	ctx, span := o.tracer.Start(ctx, "computation.run", trace.WithAttributes(
		attribute.Int64("computation.department_id", int64(job.DepartmentID)),
		attribute.Bool("computation.preview", job.IsPreview),
		attribute.String("computation.master_run_id", job.MasterRunID),
	))
	defer span.End()

	if o.cfg.BatchSize <= 0 || o.cfg.FlushThreshold <= 0 {
		span.SetStatus(codes.Error, "invalid_config")
		return models.ComputationSummary{}, ErrInvalidRunConfig
	}
	if err := o.validator.Struct(job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_job")
		return models.ComputationSummary{}, err
	}

	purpose := models.ComputationPurpose(job.Purpose)
	if purpose == "" {
		purpose = models.PurposeFinal
		if job.IsPreview {
			purpose = models.PurposePreview
		}
	}
	isFinal := !job.IsPreview && purpose == models.PurposeFinal

	department, err := o.deps.Departments.GetByID(ctx, job.DepartmentID)
	if err != nil {
		span.RecordError(err)
		return models.ComputationSummary{}, fmt.Errorf("department %d: %w", job.DepartmentID, err)
	}

	term, err := o.deps.Terms.ActiveTerm(ctx)
	if err != nil {
		span.RecordError(err)
		return models.ComputationSummary{}, fmt.Errorf("active term for department %d: %w", job.DepartmentID, err)
	}

	// Idempotency comes before the lock guard: a retry of the run that
	// locked the term still resolves to its stored summary.
	if existing, findErr := o.deps.Summaries.FindByKey(ctx, job.DepartmentID, term.ID, job.MasterRunID); findErr == nil {
		if existing.Status == models.ComputationCompleted {
			span.SetAttributes(attribute.Bool("computation.idempotent", true))
			return existing, nil
		}
	} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
		span.RecordError(findErr)
		return models.ComputationSummary{}, findErr
	}

	if isFinal {
		locked, lockErr := o.deps.Terms.IsLocked(ctx, term.ID, job.DepartmentID)
		if lockErr != nil {
			span.RecordError(lockErr)
			return models.ComputationSummary{}, lockErr
		}
		if locked {
			span.SetStatus(codes.Error, "term_locked")
			return models.ComputationSummary{}, ErrTermLocked
		}
	}

	summary, err := o.openSummary(ctx, job, term.ID, purpose)
	if err != nil {
		span.RecordError(err)
		return models.ComputationSummary{}, err
	}

	logger := o.logger.With().
		Uint("summary_id", summary.ID).
		Uint("department_id", job.DepartmentID).
		Uint("term_id", term.ID).
		Bool("final", isFinal).
		Logger()

	var policy PersistencePolicy
	if isFinal {
		buffer := NewBulkPersistenceBuffer(o.deps.Students, o.deps.SemesterResults, o.deps.Carryovers, logger)
		policy = NewFinalPolicy(buffer, o.cfg.FlushThreshold, o.deps.Terms)
	} else {
		policy = NewPreviewPolicy()
	}

	processor := NewStudentProcessor(o.engine, o.deps.Tracker, o.deps.Registrations, o.deps.Courses, logger)
	aggregator := NewSummaryAggregator()

	ids, err := o.deps.Students.ListEligibleIDs(ctx, job.DepartmentID)
	if err != nil {
		return o.failRun(ctx, &summary, department, fmt.Errorf("list eligible students: %w", err))
	}
	logger.Info().Int("students", len(ids)).Msg("computation run started")

	mode := "final"
	if !isFinal {
		mode = "preview"
	}

	cancelled := false
	for start := 0; start < len(ids); start += o.cfg.BatchSize {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		end := start + o.cfg.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batchIDs := ids[start:end]
		batchStart := o.now()

		data, err := o.fetchBatch(ctx, batchIDs, term.ID)
		if err != nil {
			return o.failRun(ctx, &summary, department, fmt.Errorf("fetch batch: %w", err))
		}

		existing, err := o.deps.Carryovers.ListUnclearedByStudents(ctx, batchIDs)
		if err != nil {
			return o.failRun(ctx, &summary, department, fmt.Errorf("fetch carryovers: %w", err))
		}

		for _, id := range batchIDs {
			student, ok := data.students[id]
			if !ok {
				continue
			}

			outcome, procErr := processor.Process(ctx, ProcessInput{
				Student:      student,
				Results:      data.results[id],
				Existing:     existing[id],
				TermID:       term.ID,
				DepartmentID: job.DepartmentID,
				IsFinal:      isFinal,
			})
			if procErr != nil {
				logger.Warn().Err(procErr).Uint("student_id", id).Msg("student processing failed")
				aggregator.AddFailure(student, procErr)
				observability.StudentsProcessed().WithLabelValues("failed").Inc()
				continue
			}

			aggregator.Add(outcome)
			policy.Stage(outcome)
			observability.StudentsProcessed().WithLabelValues("processed").Inc()

			flushed, flushErr := policy.MaybeFlush(ctx)
			if flushErr != nil {
				return o.failRun(ctx, &summary, department, fmt.Errorf("buffer flush: %w", flushErr))
			}
			if flushed {
				observability.BufferFlushes().Inc()
			}
		}

		observability.BatchDuration().WithLabelValues(mode).Observe(o.now().Sub(batchStart).Seconds())
	}

	levels, err := aggregator.BuildLevels()
	if err != nil {
		return o.failRun(ctx, &summary, department, err)
	}

	if err := policy.FlushRemaining(ctx); err != nil {
		return o.failRun(ctx, &summary, department, fmt.Errorf("final buffer flush: %w", err))
	}

	totals := aggregator.Totals()
	if err := o.finalizeSummary(ctx, &summary, levels, aggregator.FailedStudents(), totals, cancelled); err != nil {
		span.RecordError(err)
		return summary, err
	}

	if isFinal && !cancelled && totals.Failed == 0 {
		if err := policy.LockTerm(ctx, term.ID, job.DepartmentID, job.ComputedBy); err != nil {
			logger.Error().Err(err).Msg("failed to lock term")
		}
	}
	// Master runs track preview fan-outs too, so completion is reported for
	// both modes. Failed runs report through failRun.
	if !cancelled && job.MasterRunID != "" && o.deps.MasterRuns != nil {
		if err := o.deps.MasterRuns.ReportDepartment(ctx, job.MasterRunID, false); err != nil {
			logger.Error().Err(err).Msg("failed to report to master run")
		}
	}

	o.notify(ctx, department, summary, job.Note)
	observability.ComputationRuns().WithLabelValues(string(summary.Status), mode).Inc()

	logger.Info().
		Str("status", string(summary.Status)).
		Int("students", totals.Students).
		Int("failed", totals.Failed).
		Msg("computation run finished")

	span.SetAttributes(attribute.String("computation.status", string(summary.Status)))
	return summary, nil
}

// openSummary finds or creates the run's summary document. A retry of a
// still-processing job reuses the document and bumps its retry counter.
func (o *ComputationOrchestrator) openSummary(ctx context.Context, job dto.ComputationJobRequest, termID uint, purpose models.ComputationPurpose) (models.ComputationSummary, error) {
	existing, err := o.deps.Summaries.FindByKey(ctx, job.DepartmentID, termID, job.MasterRunID)
	if err == nil {
		if existing.Status == models.ComputationCompleted {
			return existing, nil
		}
		existing.Status = models.ComputationProcessing
		existing.RetryCount++
		if saveErr := o.deps.Summaries.Save(ctx, &existing); saveErr != nil {
			return models.ComputationSummary{}, saveErr
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ComputationSummary{}, err
	}

	summary := models.ComputationSummary{
		DepartmentID: job.DepartmentID,
		TermID:       termID,
		MasterRunID:  job.MasterRunID,
		Status:       models.ComputationProcessing,
		Purpose:      purpose,
		IsPreview:    job.IsPreview || purpose != models.PurposeFinal,
		ComputedBy:   job.ComputedBy,
		StartedAt:    o.now(),
	}
	if err := o.deps.Summaries.Create(ctx, &summary); err != nil {
		return models.ComputationSummary{}, err
	}

	return summary, nil
}

// fetchBatch loads student details and result sets concurrently and joins
// them before processing begins.
func (o *ComputationOrchestrator) fetchBatch(ctx context.Context, ids []uint, termID uint) (batchData, error) {
	type studentsResult struct {
		students []models.Student
		err      error
	}
	type resultsResult struct {
		results map[uint][]models.ResultRecord
		err     error
	}

	studentsCh := make(chan studentsResult, 1)
	resultsCh := make(chan resultsResult, 1)

	go func() {
		students, err := o.deps.Students.FetchByIDs(ctx, ids)
		studentsCh <- studentsResult{students: students, err: err}
	}()
	go func() {
		results, err := o.deps.Results.FetchByStudents(ctx, ids, termID)
		resultsCh <- resultsResult{results: results, err: err}
	}()

	studentsRes := <-studentsCh
	resultsRes := <-resultsCh
	if studentsRes.err != nil {
		return batchData{}, studentsRes.err
	}
	if resultsRes.err != nil {
		return batchData{}, resultsRes.err
	}

	byID := make(map[uint]models.Student, len(studentsRes.students))
	for _, student := range studentsRes.students {
		byID[student.ID] = student
	}

	return batchData{students: byID, results: resultsRes.results}, nil
}

func (o *ComputationOrchestrator) finalizeSummary(ctx context.Context, summary *models.ComputationSummary, levels []dto.LevelAggregate, failed []dto.FailedStudent, totals SummaryTotals, cancelled bool) error {
	levelData, err := marshalJSON(levels)
	if err != nil {
		return fmt.Errorf("encode level partitions: %w", err)
	}
	failedData, err := marshalJSON(failed)
	if err != nil {
		return fmt.Errorf("encode failed ledger: %w", err)
	}

	summary.LevelData = levelData
	summary.FailedStudents = failedData
	summary.TotalStudents = totals.Students
	summary.TotalPassed = totals.Passed
	summary.TotalProbation = totals.Probation
	summary.TotalWithdrawn = totals.Withdrawn
	summary.TotalTerminated = totals.Terminated
	summary.TotalSuspended = totals.Suspended
	summary.TotalCarryover = totals.Carryover
	summary.TotalFailed = totals.Failed
	summary.HighestGPA = totals.HighestGPA
	summary.LowestGPA = totals.LowestGPA

	switch {
	case cancelled:
		summary.Status = models.ComputationCancelled
	case totals.Failed > 0:
		summary.Status = models.ComputationCompletedWithErrors
	default:
		summary.Status = models.ComputationCompleted
	}

	finishedAt := o.now()
	summary.FinishedAt = &finishedAt

	return o.deps.Summaries.Save(ctx, summary)
}

// failRun persists the job-level failure and notifies the department head.
// The term is never locked on this path.
func (o *ComputationOrchestrator) failRun(ctx context.Context, summary *models.ComputationSummary, department models.Department, cause error) (models.ComputationSummary, error) {
	summary.Status = models.ComputationFailed
	summary.ErrorMessage = cause.Error()
	finishedAt := o.now()
	summary.FinishedAt = &finishedAt

	if err := o.deps.Summaries.Save(ctx, summary); err != nil {
		o.logger.Error().Err(err).Uint("summary_id", summary.ID).Msg("failed to persist failed summary")
	}

	if summary.MasterRunID != "" && o.deps.MasterRuns != nil {
		if err := o.deps.MasterRuns.ReportDepartment(ctx, summary.MasterRunID, true); err != nil {
			o.logger.Error().Err(err).Str("master_run_id", summary.MasterRunID).Msg("failed to report failure to master run")
		}
	}

	o.notify(ctx, department, *summary, "")

	mode := "final"
	if summary.IsPreview {
		mode = "preview"
	}
	observability.ComputationRuns().WithLabelValues(string(models.ComputationFailed), mode).Inc()

	return *summary, cause
}

func (o *ComputationOrchestrator) notify(ctx context.Context, department models.Department, summary models.ComputationSummary, note string) {
	if o.deps.Notifier == nil {
		return
	}

	response, err := dto.NewComputationSummaryResponse(summary)
	if err != nil {
		o.logger.Error().Err(err).Uint("summary_id", summary.ID).Msg("failed to decode summary for notification")
		return
	}

	o.deps.Notifier.NotifyDepartmentHead(ctx, department, response, note)
}
