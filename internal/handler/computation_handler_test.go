package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/handler"
	"github.com/dipoade/resulta-api/internal/service"
)

type stubSummaryQueries struct {
	summary    dto.ComputationSummaryResponse
	summaryErr error
	sheet      dto.MasterSheetResponse
	sheetErr   error
}

func (s stubSummaryQueries) GetSummary(context.Context, uint) (dto.ComputationSummaryResponse, error) {
	return s.summary, s.summaryErr
}

func (s stubSummaryQueries) GetMasterSheet(context.Context, uint) (dto.MasterSheetResponse, error) {
	return s.sheet, s.sheetErr
}

type recordingQueue struct {
	jobs []dto.ComputationJobRequest
	err  error
}

func (q *recordingQueue) Enqueue(ctx context.Context, job dto.ComputationJobRequest) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newComputationApp(queries service.SummaryQueryService, queue *recordingQueue) *fiber.App {
	app := fiber.New()
	h := handler.NewComputationHandler(nil, queries, queue, validator.New(), zerolog.Nop())
	h.Register(app.Group("/api/v1/computations"))
	return app
}

func TestEnqueueComputationJob(t *testing.T) {
	queue := &recordingQueue{}
	app := newComputationApp(stubSummaryQueries{}, queue)

	resp := postJSON(t, app, "/api/v1/computations", dto.ComputationJobRequest{
		DepartmentID: 3,
		ComputedBy:   "officer",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Len(t, queue.jobs, 1)
	require.Equal(t, uint(3), queue.jobs[0].DepartmentID)
	require.NotEmpty(t, queue.jobs[0].JobID)
}

func TestEnqueueComputationJobValidatesPayload(t *testing.T) {
	queue := &recordingQueue{}
	app := newComputationApp(stubSummaryQueries{}, queue)

	resp := postJSON(t, app, "/api/v1/computations", dto.ComputationJobRequest{DepartmentID: 3})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, queue.jobs)
}

func TestGetSummary(t *testing.T) {
	app := newComputationApp(stubSummaryQueries{
		summary: dto.ComputationSummaryResponse{ID: 42, TotalStudents: 10, CacheHit: true},
	}, &recordingQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/computations/42", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get("X-Cache-Hit"))
}

func TestGetSummaryNotFound(t *testing.T) {
	app := newComputationApp(stubSummaryQueries{summaryErr: service.ErrSummaryNotFound}, &recordingQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/computations/42", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSummaryBadID(t *testing.T) {
	app := newComputationApp(stubSummaryQueries{}, &recordingQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/computations/abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetMasterSheet(t *testing.T) {
	app := newComputationApp(stubSummaryQueries{
		sheet: dto.MasterSheetResponse{DepartmentID: 3, TermID: 7},
	}, &recordingQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/computations/42/master-sheet", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
