package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/models"
)

func completedSummaryFixture(t *testing.T) models.ComputationSummary {
	t.Helper()

	levels := []dto.LevelAggregate{{
		Level: 200,
		Students: []dto.StudentSummary{{
			StudentID: 1,
			MatricNo:  "CSC/2023/001",
			FullName:  "Ada Obi",
			Level:     200,
			Courses: []dto.CourseResult{
				{CourseID: 100, Code: "CSC201", Title: "Data Structures", Unit: 3, Score: 72, Grade: "A", Point: 5},
			},
			Current:    dto.PerformanceBlock{GPA: 5.0, TCP: 15, TNU: 3},
			Cumulative: dto.PerformanceBlock{GPA: 4.6, TCP: 80, TNU: 17},
			Remark:     RemarkExcellent,
		}},
		Courses: []dto.CourseCatalogEntry{
			{CourseID: 100, Code: "CSC201", Title: "Data Structures", Unit: 3, IsCore: true},
		},
		PassList: []dto.StudentRef{{StudentID: 1, MatricNo: "CSC/2023/001", FullName: "Ada Obi", GPA: 5.0, CGPA: 4.6, Remark: RemarkExcellent}},
	}}

	levelData, err := json.Marshal(levels)
	require.NoError(t, err)

	finishedAt := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	return models.ComputationSummary{
		ID:            42,
		DepartmentID:  3,
		TermID:        7,
		Status:        models.ComputationCompleted,
		Purpose:       models.PurposeFinal,
		ComputedBy:    "officer",
		TotalStudents: 1,
		TotalPassed:   1,
		HighestGPA:    5.0,
		LowestGPA:     5.0,
		LevelData:     datatypes.JSON(levelData),
		StartedAt:     finishedAt.Add(-time.Minute),
		FinishedAt:    &finishedAt,
	}
}

func TestSummaryQueryCachesCompletedSummaries(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	repo := newFakeSummaryRepo()
	summary := completedSummaryFixture(t)
	repo.byID[summary.ID] = summary

	svc := NewSummaryQueryService(repo, redisClient, time.Minute, zerolog.Nop())

	first, err := svc.GetSummary(context.Background(), summary.ID)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Equal(t, 1, first.TotalStudents)
	require.Len(t, first.Levels, 1)
	require.Equal(t, 200, first.Levels[0].Level)

	second, err := svc.GetSummary(context.Background(), summary.ID)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.TotalStudents, second.TotalStudents)
}

func TestSummaryQuerySkipsCacheForProcessingRuns(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	repo := newFakeSummaryRepo()
	summary := completedSummaryFixture(t)
	summary.Status = models.ComputationProcessing
	summary.FinishedAt = nil
	repo.byID[summary.ID] = summary

	svc := NewSummaryQueryService(repo, redisClient, time.Minute, zerolog.Nop())

	first, err := svc.GetSummary(context.Background(), summary.ID)
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := svc.GetSummary(context.Background(), summary.ID)
	require.NoError(t, err)
	require.False(t, second.CacheHit)
}

func TestSummaryQueryNotFound(t *testing.T) {
	svc := NewSummaryQueryService(newFakeSummaryRepo(), nil, time.Minute, zerolog.Nop())

	_, err := svc.GetSummary(context.Background(), 999)
	require.ErrorIs(t, err, ErrSummaryNotFound)

	_, err = svc.GetMasterSheet(context.Background(), 999)
	require.ErrorIs(t, err, ErrSummaryNotFound)
}

func TestMasterSheetBuiltFromLevelData(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	repo := newFakeSummaryRepo()
	summary := completedSummaryFixture(t)
	repo.byID[summary.ID] = summary

	svc := NewSummaryQueryService(repo, redisClient, time.Minute, zerolog.Nop())

	sheet, err := svc.GetMasterSheet(context.Background(), summary.ID)
	require.NoError(t, err)
	require.Equal(t, uint(3), sheet.DepartmentID)
	require.Equal(t, uint(7), sheet.TermID)
	require.Len(t, sheet.Levels, 1)

	level := sheet.Levels[0]
	require.Equal(t, 200, level.Level)
	require.Len(t, level.MMS1, 1)
	require.Equal(t, "CSC/2023/001", level.MMS1[0].MatricNo)
	require.Equal(t, "A", level.MMS1[0].Cells["CSC201"].Grade)
	require.Len(t, level.MMS2, 1)
	require.Equal(t, 5.0, level.MMS2[0].Current.GPA)

	cached, err := svc.GetMasterSheet(context.Background(), summary.ID)
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
}
