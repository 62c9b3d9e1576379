package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/models"
)

type fakeMasterRunRepo struct {
	runs map[string]models.MasterComputationRun
}

func newFakeMasterRunRepo() *fakeMasterRunRepo {
	return &fakeMasterRunRepo{runs: map[string]models.MasterComputationRun{}}
}

func (f *fakeMasterRunRepo) Create(ctx context.Context, run *models.MasterComputationRun) error {
	f.runs[run.ID] = *run
	return nil
}

func (f *fakeMasterRunRepo) GetByID(ctx context.Context, id string) (models.MasterComputationRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return models.MasterComputationRun{}, gorm.ErrRecordNotFound
	}
	return run, nil
}

func (f *fakeMasterRunRepo) ReportDepartment(ctx context.Context, id string, failed bool, finishedAt time.Time) (models.MasterComputationRun, error) {
	run, ok := f.runs[id]
	if !ok {
		return models.MasterComputationRun{}, gorm.ErrRecordNotFound
	}
	if failed {
		run.FailedDepartments++
	} else {
		run.CompletedDepartments++
	}
	if run.CompletedDepartments+run.FailedDepartments >= run.TotalDepartments {
		run.Status = models.MasterRunCompleted
		run.FinishedAt = &finishedAt
	}
	f.runs[id] = run
	return run, nil
}

type fakeQueue struct {
	jobs []dto.ComputationJobRequest
}

func (f *fakeQueue) Enqueue(ctx context.Context, job dto.ComputationJobRequest) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func newMasterRunFixture() (*fakeMasterRunRepo, *fakeQueue, *fakeNotifier, MasterRunService) {
	repo := newFakeMasterRunRepo()
	queue := &fakeQueue{}
	notifier := &fakeNotifier{}
	departments := &fakeDepartmentRepo{departments: map[uint]models.Department{
		1: {ID: 1, Code: "CSC", Name: "Computer Science"},
		2: {ID: 2, Code: "MTH", Name: "Mathematics"},
		3: {ID: 3, Code: "PHY", Name: "Physics"},
	}}
	svc := NewMasterRunService(repo, departments, queue, notifier, validator.New(), zerolog.Nop())
	return repo, queue, notifier, svc
}

func TestTriggerFansOutOneJobPerDepartment(t *testing.T) {
	repo, queue, _, svc := newMasterRunFixture()

	run, err := svc.Trigger(context.Background(), dto.TriggerMasterRunRequest{
		TermID:      7,
		TriggeredBy: "registrar@example.edu",
	})
	require.NoError(t, err)
	require.Equal(t, models.MasterRunProcessing, run.Status)
	require.Equal(t, 3, run.TotalDepartments)

	require.Len(t, queue.jobs, 3)
	seen := map[uint]bool{}
	for _, job := range queue.jobs {
		require.Equal(t, run.ID, job.MasterRunID)
		require.Equal(t, "registrar@example.edu", job.ComputedBy)
		require.False(t, job.IsPreview)
		seen[job.DepartmentID] = true
	}
	require.Len(t, seen, 3)

	stored, err := repo.GetByID(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, 3, stored.TotalDepartments)
}

func TestTriggerPreviewPropagatesMode(t *testing.T) {
	_, queue, _, svc := newMasterRunFixture()

	_, err := svc.Trigger(context.Background(), dto.TriggerMasterRunRequest{
		TermID:      7,
		TriggeredBy: "registrar",
		IsPreview:   true,
	})
	require.NoError(t, err)

	for _, job := range queue.jobs {
		require.True(t, job.IsPreview)
		require.Equal(t, string(models.PurposePreview), job.Purpose)
	}
}

func TestTriggerRequiresDepartments(t *testing.T) {
	repo := newFakeMasterRunRepo()
	svc := NewMasterRunService(repo, &fakeDepartmentRepo{departments: map[uint]models.Department{}}, &fakeQueue{}, &fakeNotifier{}, validator.New(), zerolog.Nop())

	_, err := svc.Trigger(context.Background(), dto.TriggerMasterRunRequest{TermID: 7, TriggeredBy: "registrar"})
	require.ErrorIs(t, err, ErrNoDepartments)
}

func TestTriggerValidatesPayload(t *testing.T) {
	_, _, _, svc := newMasterRunFixture()

	_, err := svc.Trigger(context.Background(), dto.TriggerMasterRunRequest{TermID: 7})
	require.Error(t, err)
}

func TestReportDepartmentCompletesRunAfterLastReport(t *testing.T) {
	repo, _, notifier, svc := newMasterRunFixture()

	run, err := svc.Trigger(context.Background(), dto.TriggerMasterRunRequest{
		TermID:      7,
		TriggeredBy: "registrar",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ReportDepartment(context.Background(), run.ID, false))
	require.NoError(t, svc.ReportDepartment(context.Background(), run.ID, true))
	require.Zero(t, notifier.runCompletions)

	require.NoError(t, svc.ReportDepartment(context.Background(), run.ID, false))
	require.Equal(t, 1, notifier.runCompletions)

	stored, err := repo.GetByID(context.Background(), run.ID)
	require.NoError(t, err)
	require.Equal(t, models.MasterRunCompleted, stored.Status)
	require.Equal(t, 2, stored.CompletedDepartments)
	require.Equal(t, 1, stored.FailedDepartments)
	require.NotNil(t, stored.FinishedAt)
}

func TestGetUnknownRun(t *testing.T) {
	_, _, _, svc := newMasterRunFixture()

	_, err := svc.Get(context.Background(), "no-such-run")
	require.ErrorIs(t, err, ErrMasterRunNotFound)
}
