package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/models"
)

func TestMasterRunRepositoryReportDepartment(t *testing.T) {
	db := setupTestDB(t, &models.MasterComputationRun{})
	repo := NewMasterRunRepository(db)
	ctx := context.Background()

	run := models.MasterComputationRun{
		ID:               uuid.NewString(),
		TermID:           7,
		Status:           models.MasterRunProcessing,
		TriggeredBy:      "registrar@uni.edu",
		TotalDepartments: 2,
		StartedAt:        time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, &run))

	finishedAt := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	updated, err := repo.ReportDepartment(ctx, run.ID, false, finishedAt)
	require.NoError(t, err)
	require.Equal(t, 1, updated.CompletedDepartments)
	require.Equal(t, 0, updated.FailedDepartments)
	require.Equal(t, models.MasterRunProcessing, updated.Status)
	require.Nil(t, updated.FinishedAt)

	// The last department flips the run even when it failed.
	updated, err = repo.ReportDepartment(ctx, run.ID, true, finishedAt)
	require.NoError(t, err)
	require.Equal(t, 1, updated.CompletedDepartments)
	require.Equal(t, 1, updated.FailedDepartments)
	require.Equal(t, models.MasterRunCompleted, updated.Status)
	require.NotNil(t, updated.FinishedAt)

	stored, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, models.MasterRunCompleted, stored.Status)
	require.NotNil(t, stored.FinishedAt)
}

func TestMasterRunRepositoryGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t, &models.MasterComputationRun{})
	repo := NewMasterRunRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
