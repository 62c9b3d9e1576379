package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dipoade/resulta-api/internal/models"
)

func TestSummaryRepositoryFindByKey(t *testing.T) {
	db := setupTestDB(t, &models.ComputationSummary{})
	repo := NewSummaryRepository(db)
	ctx := context.Background()

	summary := models.ComputationSummary{
		DepartmentID: 3,
		TermID:       7,
		MasterRunID:  "",
		Status:       models.ComputationProcessing,
		Purpose:      models.PurposeFinal,
		ComputedBy:   "examsofficer@uni.edu",
	}
	require.NoError(t, repo.Create(ctx, &summary))
	require.NotZero(t, summary.ID)

	found, err := repo.FindByKey(ctx, 3, 7, "")
	require.NoError(t, err)
	require.Equal(t, summary.ID, found.ID)
	require.Equal(t, "examsofficer@uni.edu", found.ComputedBy)

	_, err = repo.FindByKey(ctx, 3, 8, "")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The same department and term under a master run is a distinct row.
	_, err = repo.FindByKey(ctx, 3, 7, "6c1f0a2e-9f31-4e19-8a7d-2f5ce1b0aa10")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSummaryRepositorySave(t *testing.T) {
	db := setupTestDB(t, &models.ComputationSummary{})
	repo := NewSummaryRepository(db)
	ctx := context.Background()

	summary := models.ComputationSummary{DepartmentID: 3, TermID: 7, Status: models.ComputationProcessing, Purpose: models.PurposeFinal}
	require.NoError(t, repo.Create(ctx, &summary))

	summary.Status = models.ComputationCompleted
	summary.TotalStudents = 120
	summary.RetryCount = 1
	require.NoError(t, repo.Save(ctx, &summary))

	stored, err := repo.GetByID(ctx, summary.ID)
	require.NoError(t, err)
	require.Equal(t, models.ComputationCompleted, stored.Status)
	require.Equal(t, 120, stored.TotalStudents)
	require.Equal(t, 1, stored.RetryCount)

	_, err = repo.GetByID(ctx, summary.ID+1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
