package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/middleware"
	"github.com/dipoade/resulta-api/internal/service"
	"github.com/dipoade/resulta-api/internal/utils"
)

// MasterRunHandler exposes term-wide run triggering and tracking.
type MasterRunHandler struct {
	service service.MasterRunService
	logger  zerolog.Logger
}

// NewMasterRunHandler constructs the handler.
func NewMasterRunHandler(service service.MasterRunService, logger zerolog.Logger) *MasterRunHandler {
	return &MasterRunHandler{
		service: service,
		logger:  logger.With().Str("component", "master_run_handler").Logger(),
	}
}

// Register wires master run routes.
func (h *MasterRunHandler) Register(router fiber.Router) {
	router.Post("", h.trigger)
	router.Get("/:id", h.get)
}

func (h *MasterRunHandler) trigger(c *fiber.Ctx) error {
	var payload dto.TriggerMasterRunRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if payload.TriggeredBy == "" {
		payload.TriggeredBy = middleware.UserEmail(c)
	}

	ctx := middleware.ContextWithCorrelation(c.Context(), middleware.GetCorrelationID(c))
	run, err := h.service.Trigger(ctx, payload)
	if err != nil {
		switch {
		case errors.As(err, new(validator.ValidationErrors)):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		case errors.Is(err, service.ErrNoDepartments):
			return utils.SendError(c, fiber.StatusConflict, "no departments to compute")
		default:
			h.logger.Error().Err(err).Msg("failed to trigger master run")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to trigger master run")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "master run triggered", run)
}

func (h *MasterRunHandler) get(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid run id")
	}

	run, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrMasterRunNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "master run not found")
		}
		h.logger.Error().Err(err).Str("run_id", id).Msg("failed to load master run")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load master run")
	}

	return utils.SendSuccess(c, "master run retrieved", run)
}
