package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dipoade/resulta-api/internal/models"
	"github.com/dipoade/resulta-api/internal/repository"
)

func stagedOutcome(studentID uint, carryovers int) (repository.StudentMutation, models.SemesterResultRecord, []models.CarryoverRecord) {
	mutation := repository.StudentMutation{
		StudentID: studentID,
		Sets:      map[string]interface{}{"gpa": 3.5},
	}
	snapshot := models.SemesterResultRecord{StudentID: studentID, TermID: 7, GPA: 3.5}

	var records []models.CarryoverRecord
	for i := 0; i < carryovers; i++ {
		records = append(records, models.CarryoverRecord{StudentID: studentID, CourseID: uint(100 + i), TermID: 7})
	}
	return mutation, snapshot, records
}

func TestBufferFlushesAtThreshold(t *testing.T) {
	students := newFakeStudentRepo()
	semesters := &fakeSemesterResultRepo{}
	carryovers := newFakeCarryoverRepo()
	buffer := NewBulkPersistenceBuffer(students, semesters, carryovers, zerolog.Nop())

	for i := uint(1); i <= 3; i++ {
		buffer.Stage(stagedOutcome(i, 1))
	}

	require.Equal(t, 3, buffer.Size())
	require.False(t, buffer.ShouldFlush(4))
	require.True(t, buffer.ShouldFlush(3))

	require.NoError(t, buffer.Flush(context.Background()))
	require.Zero(t, buffer.Size())
	require.Len(t, students.mutations, 3)
	require.Len(t, semesters.created, 3)
	require.Len(t, carryovers.created, 3)
}

func TestBufferClearsOnFlushFailure(t *testing.T) {
	students := newFakeStudentRepo()
	semesters := &fakeSemesterResultRepo{failOnCreate: true}
	buffer := NewBulkPersistenceBuffer(students, semesters, newFakeCarryoverRepo(), zerolog.Nop())

	buffer.Stage(stagedOutcome(1, 0))
	require.Error(t, buffer.Flush(context.Background()))

	// A failed flush never leaves stale writes behind for a retry.
	require.Zero(t, buffer.Size())
}

func TestBufferFlushIsRepeatable(t *testing.T) {
	students := newFakeStudentRepo()
	semesters := &fakeSemesterResultRepo{}
	buffer := NewBulkPersistenceBuffer(students, semesters, newFakeCarryoverRepo(), zerolog.Nop())

	buffer.Stage(stagedOutcome(1, 0))
	require.NoError(t, buffer.Flush(context.Background()))
	buffer.Stage(stagedOutcome(2, 0))
	require.NoError(t, buffer.Flush(context.Background()))

	require.Len(t, students.mutations, 2)
	require.Len(t, semesters.created, 2)
}
