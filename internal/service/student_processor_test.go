package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dipoade/resulta-api/internal/models"
)

func newProcessorFixture(registered map[uint]bool, coreByLevel map[int][]models.Course) *StudentProcessor {
	tracker := NewCarryoverTracker(newFakeCarryoverRepo(), newFakeStudentRepo(), zerolog.Nop())
	return NewStudentProcessor(
		NewStandingEngine(),
		tracker,
		&fakeRegistrationRepo{registered: registered, failFor: map[uint]error{}},
		&fakeCourseRepo{coreByLevel: coreByLevel},
		zerolog.Nop(),
	)
}

func TestProcessFailedCoreCourseGoesOnProbation(t *testing.T) {
	processor := newProcessorFixture(nil, nil)

	student := models.Student{ID: 1, MatricNo: "CSC/2025/001", Level: 100}
	outcome, err := processor.Process(context.Background(), ProcessInput{
		Student: student,
		Results: []models.ResultRecord{
			{StudentID: 1, CourseID: 10, TermID: 7, Score: 35, Course: models.Course{ID: 10, Code: "CSC101", Title: "Intro to Computing", Unit: 4, Level: 100, IsCore: true}},
		},
		TermID:  7,
		IsFinal: true,
	})
	require.NoError(t, err)

	require.Len(t, outcome.Summary.Courses, 1)
	require.Equal(t, "F", outcome.Summary.Courses[0].Grade)
	require.Equal(t, 1, outcome.Summary.FailedCount)
	require.Equal(t, 0.0, outcome.Summary.Current.GPA)
	require.Equal(t, RemarkProbation, outcome.Summary.Remark)
	require.Equal(t, models.ProbationActive, outcome.Decision.ProbationStatus)

	require.Len(t, outcome.NewCarryovers, 1)
	require.Equal(t, uint(10), outcome.NewCarryovers[0].CourseID)
	require.Equal(t, models.CarryoverFailed, outcome.NewCarryovers[0].Reason)

	require.Equal(t, 1, outcome.Mutation.Increments["total_carryovers"])
	require.Equal(t, uint(1), outcome.Snapshot.StudentID)
	require.Equal(t, 0.0, outcome.Snapshot.GPA)
}

func TestProcessUnregisteredStudentSkipsGPARules(t *testing.T) {
	processor := newProcessorFixture(map[uint]bool{}, nil)

	student := models.Student{ID: 2, MatricNo: "CSC/2025/002", Level: 200, CGPA: 3.1, CumulativeTCP: 60, CumulativeTNU: 19}
	outcome, err := processor.Process(context.Background(), ProcessInput{
		Student: student,
		TermID:  7,
		IsFinal: true,
	})
	require.NoError(t, err)

	require.Equal(t, RemarkSuspended, outcome.Summary.Remark)
	require.False(t, outcome.Decision.GPARulesApplied)
	require.True(t, outcome.Decision.Suspend)
	require.Equal(t, models.SuspensionNoRegistration, outcome.Decision.SuspensionReason)

	// GPA arithmetic never ran, so the blocks stay zero and the stored
	// CGPA is untouched.
	require.Zero(t, outcome.Summary.Current.GPA)
	require.Empty(t, outcome.Summary.Classification)
	require.NotContains(t, outcome.Mutation.Sets, "cgpa")
	require.Equal(t, true, outcome.Mutation.Sets["suspension_active"])

	// No results and no registration means nothing to carry over.
	require.Empty(t, outcome.NewCarryovers)
}

func TestProcessMissingCoreCourseBecomesCarryover(t *testing.T) {
	core := map[int][]models.Course{
		200: {
			{ID: 20, Code: "CSC201", Title: "Data Structures", Unit: 3, Level: 200, IsCore: true},
			{ID: 21, Code: "CSC203", Title: "Discrete Structures", Unit: 2, Level: 200, IsCore: true},
		},
	}
	processor := newProcessorFixture(nil, core)

	student := models.Student{ID: 3, MatricNo: "CSC/2024/003", Level: 200, CGPA: 2.8}
	outcome, err := processor.Process(context.Background(), ProcessInput{
		Student: student,
		Results: []models.ResultRecord{
			{StudentID: 3, CourseID: 20, TermID: 7, Score: 61, Course: models.Course{ID: 20, Code: "CSC201", Title: "Data Structures", Unit: 3, Level: 200, IsCore: true}},
		},
		TermID:  7,
		IsFinal: true,
	})
	require.NoError(t, err)

	require.Len(t, outcome.NewCarryovers, 1)
	require.Equal(t, uint(21), outcome.NewCarryovers[0].CourseID)
	require.Equal(t, models.CarryoverNotRegistered, outcome.NewCarryovers[0].Reason)
	require.Equal(t, "F", outcome.NewCarryovers[0].Grade)
}

func TestProcessBorrowedCourseUsesOriginCatalog(t *testing.T) {
	processor := newProcessorFixture(nil, nil)

	origin := models.Course{ID: 30, Code: "MTH101", Title: "General Mathematics", Unit: 3, Level: 100, IsCore: true, DepartmentID: 9}
	borrowed := models.Course{ID: 31, Code: "CSC-MTH101", Unit: 0, Level: 100, IsCore: true, DepartmentID: 3, BorrowedFromID: &origin.ID, BorrowedFrom: &origin}

	outcome, err := processor.Process(context.Background(), ProcessInput{
		Student: models.Student{ID: 4, Level: 100},
		Results: []models.ResultRecord{
			{StudentID: 4, CourseID: 31, TermID: 7, Score: 74, Course: borrowed},
		},
		TermID:  7,
		IsFinal: true,
	})
	require.NoError(t, err)

	require.Equal(t, "MTH101", outcome.Summary.Courses[0].Code)
	require.Equal(t, 3, outcome.Summary.Courses[0].Unit)
	require.Equal(t, 5.0, outcome.Summary.Current.GPA)
}

func TestProcessClosedFileOmitsOutstanding(t *testing.T) {
	processor := newProcessorFixture(nil, nil)

	existing := []models.CarryoverRecord{
		{ID: 1, StudentID: 5, CourseID: 40, TermID: 5, Reason: models.CarryoverFailed, Course: models.Course{ID: 40, Code: "CSC105", Unit: 2, IsCore: true}},
	}

	// Low CGPA above level 100 forces withdrawal; the file closes.
	student := models.Student{ID: 5, Level: 300, CGPA: 0.4, CumulativeTCP: 10, CumulativeTNU: 25}
	outcome, err := processor.Process(context.Background(), ProcessInput{
		Student: student,
		Results: []models.ResultRecord{
			{StudentID: 5, CourseID: 41, TermID: 7, Score: 30, Course: models.Course{ID: 41, Code: "CSC301", Unit: 3, Level: 300, IsCore: true}},
		},
		Existing: existing,
		TermID:   7,
		IsFinal:  true,
	})
	require.NoError(t, err)

	require.Equal(t, RemarkWithdrawn, outcome.Summary.Remark)
	require.Empty(t, outcome.Summary.Outstanding)
	require.Empty(t, outcome.NewCarryovers)
}

func TestProcessPreviewProducesNoWrites(t *testing.T) {
	processor := newProcessorFixture(nil, nil)

	outcome, err := processor.Process(context.Background(), ProcessInput{
		Student: models.Student{ID: 6, Level: 100},
		Results: []models.ResultRecord{
			{StudentID: 6, CourseID: 50, TermID: 7, Score: 82, Course: models.Course{ID: 50, Code: "CSC102", Unit: 2, Level: 100, IsCore: true}},
		},
		TermID:  7,
		IsFinal: false,
	})
	require.NoError(t, err)

	require.True(t, outcome.Summary.IsPreview)
	require.Empty(t, outcome.Mutation.Sets)
	require.Zero(t, outcome.Snapshot.StudentID)
}
