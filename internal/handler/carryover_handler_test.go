package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/handler"
	"github.com/dipoade/resulta-api/internal/models"
	"github.com/dipoade/resulta-api/internal/service"
)

type stubCarryoverTracker struct {
	cleared  dto.CarryoverResponse
	clearErr error
	active   []dto.CarryoverResponse
	listErr  error
}

func (s stubCarryoverTracker) Plan(models.Student, service.StandingDecision, []dto.CourseResult, []models.Course, []models.CarryoverRecord, uint) []models.CarryoverRecord {
	return nil
}

func (s stubCarryoverTracker) Clear(context.Context, uint, string) (dto.CarryoverResponse, error) {
	return s.cleared, s.clearErr
}

func (s stubCarryoverTracker) ListActive(context.Context, uint) ([]dto.CarryoverResponse, error) {
	return s.active, s.listErr
}

func newCarryoverApp(tracker service.CarryoverTracker) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(11))
		c.Locals("user_role", "registrar")
		return c.Next()
	})
	h := handler.NewCarryoverHandler(tracker, validator.New(), zerolog.Nop())
	h.Register(app.Group("/api/v1/carryovers"))
	h.RegisterStudentRoutes(app.Group("/api/v1/students"))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestClearCarryover(t *testing.T) {
	app := newCarryoverApp(stubCarryoverTracker{
		cleared: dto.CarryoverResponse{ID: 5, StudentID: 1, Code: "CSC101", Cleared: true},
	})

	resp := postJSON(t, app, "/api/v1/carryovers/5/clear", dto.ClearCarryoverRequest{ClearedBy: "officer"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClearCarryoverRequiresClearedBy(t *testing.T) {
	app := newCarryoverApp(stubCarryoverTracker{})

	resp := postJSON(t, app, "/api/v1/carryovers/5/clear", dto.ClearCarryoverRequest{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClearCarryoverNotFound(t *testing.T) {
	app := newCarryoverApp(stubCarryoverTracker{clearErr: service.ErrCarryoverNotFound})

	resp := postJSON(t, app, "/api/v1/carryovers/99/clear", dto.ClearCarryoverRequest{ClearedBy: "officer"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClearCarryoverAlreadyCleared(t *testing.T) {
	app := newCarryoverApp(stubCarryoverTracker{clearErr: service.ErrCarryoverAlreadyCleared})

	resp := postJSON(t, app, "/api/v1/carryovers/5/clear", dto.ClearCarryoverRequest{ClearedBy: "officer"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListStudentCarryovers(t *testing.T) {
	app := newCarryoverApp(stubCarryoverTracker{
		active: []dto.CarryoverResponse{
			{ID: 1, StudentID: 7, Code: "CSC101"},
			{ID: 2, StudentID: 7, Code: "MTH102"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/7/carryovers", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Data []dto.CarryoverResponse `json:"data"`
		Meta struct {
			StudentID uint `json:"student_id"`
			Count     int  `json:"count"`
		} `json:"meta"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Data, 2)
	require.Equal(t, "CSC101", payload.Data[0].Code)
	require.Equal(t, uint(7), payload.Meta.StudentID)
	require.Equal(t, 2, payload.Meta.Count)
}

func TestListStudentCarryoversBadID(t *testing.T) {
	app := newCarryoverApp(stubCarryoverTracker{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/abc/carryovers", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClearCarryoverForbiddenForOfficerTier(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(11))
		c.Locals("user_role", "officer")
		return c.Next()
	})
	h := handler.NewCarryoverHandler(stubCarryoverTracker{}, validator.New(), zerolog.Nop())
	h.Register(app.Group("/api/v1/carryovers"))

	resp := postJSON(t, app, "/api/v1/carryovers/5/clear", map[string]string{"cleared_by": "hod@uni.edu"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
