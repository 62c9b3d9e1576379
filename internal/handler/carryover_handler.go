package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/middleware"
	"github.com/dipoade/resulta-api/internal/service"
	"github.com/dipoade/resulta-api/internal/utils"
)

// CarryoverHandler exposes carry-over clearing and per-student lookups.
type CarryoverHandler struct {
	tracker   service.CarryoverTracker
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCarryoverHandler constructs the handler.
func NewCarryoverHandler(tracker service.CarryoverTracker, validate *validator.Validate, logger zerolog.Logger) *CarryoverHandler {
	return &CarryoverHandler{
		tracker:   tracker,
		validator: validate,
		logger:    logger.With().Str("component", "carryover_handler").Logger(),
	}
}

// Register wires carry-over routes. Clearing an obligation rewrites a
// student's academic record, so it is held to the admin tier.
func (h *CarryoverHandler) Register(router fiber.Router) {
	router.Post("/:id/clear", middleware.WithAuth(h.clear, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
}

// RegisterStudentRoutes wires the student-scoped lookup.
func (h *CarryoverHandler) RegisterStudentRoutes(router fiber.Router) {
	router.Get("/:id/carryovers", middleware.WithAuth(h.listForStudent, middleware.AuthOptions{RequireUser: true}))
}

func (h *CarryoverHandler) clear(c *fiber.Ctx) error {
	id, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid carryover id")
	}

	var payload dto.ClearCarryoverRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if payload.ClearedBy == "" {
		payload.ClearedBy = middleware.UserEmail(c)
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	cleared, err := h.tracker.Clear(c.Context(), id, payload.ClearedBy)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCarryoverNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "carryover record not found")
		case errors.Is(err, service.ErrCarryoverAlreadyCleared):
			return utils.SendError(c, fiber.StatusConflict, "carryover record already cleared")
		default:
			h.logger.Error().Err(err).Uint("carryover_id", id).Msg("failed to clear carryover")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to clear carryover")
		}
	}

	return utils.SendSuccess(c, "carryover cleared", cleared)
}

func (h *CarryoverHandler) listForStudent(c *fiber.Ctx) error {
	studentID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	records, err := h.tracker.ListActive(c.Context(), studentID)
	if err != nil {
		h.logger.Error().Err(err).Uint("student_id", studentID).Msg("failed to list carryovers")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list carryovers")
	}

	return utils.OK(c, records, "carryovers retrieved", fiber.Map{
		"student_id": studentID,
		"count":      len(records),
	})
}
