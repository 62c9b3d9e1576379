package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/dipoade/resulta-api/internal/models"
)

func TestSemesterResultRepositoryBulkCreate(t *testing.T) {
	db := setupTestDB(t, &models.SemesterResultRecord{})
	repo := NewSemesterResultRepository(db)
	ctx := context.Background()

	courses := datatypes.JSON([]byte(`[{"course_code":"CSC201","grade":"A","score":72,"unit":3}]`))

	require.NoError(t, repo.BulkCreate(ctx, []models.SemesterResultRecord{
		{StudentID: 1, TermID: 7, DepartmentID: 3, Level: 200, GPA: 4.2, CGPA: 3.4, TCP: 12.6, TNU: 3, CumulativeTCP: 40.8, CumulativeTNU: 12, Remark: "good", Courses: courses},
	}))

	// A retried job's duplicate snapshot is dropped at the index.
	require.NoError(t, repo.BulkCreate(ctx, []models.SemesterResultRecord{
		{StudentID: 1, TermID: 7, DepartmentID: 3, Level: 200, GPA: 4.2, CGPA: 3.4, Courses: courses},
	}))

	var count int64
	require.NoError(t, db.Model(&models.SemesterResultRecord{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	require.NoError(t, repo.BulkCreate(ctx, nil))
}

func TestSemesterResultRepositoryListByStudent(t *testing.T) {
	db := setupTestDB(t, &models.SemesterResultRecord{})
	repo := NewSemesterResultRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.BulkCreate(ctx, []models.SemesterResultRecord{
		{StudentID: 1, TermID: 7, DepartmentID: 3, Level: 200, GPA: 4.2, CGPA: 3.4},
		{StudentID: 1, TermID: 6, DepartmentID: 3, Level: 200, GPA: 2.6, CGPA: 3.0},
		{StudentID: 2, TermID: 7, DepartmentID: 3, Level: 300, GPA: 1.8, CGPA: 2.1},
	}))

	records, err := repo.ListByStudent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, uint(6), records[0].TermID)
	require.Equal(t, uint(7), records[1].TermID)
	require.InDelta(t, 2.6, records[0].GPA, 1e-9)
}
