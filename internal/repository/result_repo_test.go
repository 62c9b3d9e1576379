package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dipoade/resulta-api/internal/models"
)

func TestResultRepositoryFetchByStudents(t *testing.T) {
	db := setupTestDB(t, &models.Course{}, &models.ResultRecord{})
	seedCarryoverCourses(t, db)
	repo := NewResultRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&[]models.ResultRecord{
		{StudentID: 1, CourseID: 20, TermID: 7, Score: 72},
		{StudentID: 1, CourseID: 21, TermID: 7, Score: 55},
		{StudentID: 2, CourseID: 20, TermID: 7, Score: 41},
		{StudentID: 1, CourseID: 20, TermID: 6, Score: 38},
	}).Error)

	grouped, err := repo.FetchByStudents(ctx, []uint{1, 2}, 7)
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	require.Len(t, grouped[1], 2)
	require.Len(t, grouped[2], 1)

	// Course attributes ride along, with borrowed aliases resolving to
	// their origin course.
	require.Equal(t, "CSC201", grouped[1][0].Course.Code)
	require.Equal(t, 3, grouped[1][0].Course.Unit)
	require.Equal(t, "MTH101", grouped[1][1].Course.Origin().Code)

	empty, err := repo.FetchByStudents(ctx, nil, 7)
	require.NoError(t, err)
	require.Empty(t, empty)
}
