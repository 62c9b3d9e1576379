package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/middleware"
	"github.com/dipoade/resulta-api/internal/scheduler"
	"github.com/dipoade/resulta-api/internal/service"
	"github.com/dipoade/resulta-api/internal/utils"
)

// ComputationHandler exposes the computation endpoints: asynchronous final
// runs, synchronous previews, summary reads and master-sheet exports.
type ComputationHandler struct {
	orchestrator *service.ComputationOrchestrator
	queries      service.SummaryQueryService
	queue        scheduler.Queue
	validator    *validator.Validate
	logger       zerolog.Logger
}

// NewComputationHandler constructs the handler.
func NewComputationHandler(orchestrator *service.ComputationOrchestrator, queries service.SummaryQueryService, queue scheduler.Queue, validate *validator.Validate, logger zerolog.Logger) *ComputationHandler {
	return &ComputationHandler{
		orchestrator: orchestrator,
		queries:      queries,
		queue:        queue,
		validator:    validate,
		logger:       logger.With().Str("component", "computation_handler").Logger(),
	}
}

// Register wires computation routes.
func (h *ComputationHandler) Register(router fiber.Router) {
	router.Post("", h.enqueue)
	router.Post("/preview", h.preview)
	router.Get("/:id", h.getSummary)
	router.Get("/:id/master-sheet", h.getMasterSheet)
}

// enqueue accepts a final computation job and hands it to the scheduler. The
// caller polls the summary endpoint for progress.
func (h *ComputationHandler) enqueue(c *fiber.Ctx) error {
	var payload dto.ComputationJobRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if payload.ComputedBy == "" {
		payload.ComputedBy = middleware.UserEmail(c)
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if payload.JobID == "" {
		payload.JobID = uuid.NewString()
	}
	if payload.CorrelationID == "" {
		payload.CorrelationID = middleware.GetCorrelationID(c)
	}

	if err := h.queue.Enqueue(c.Context(), payload); err != nil {
		h.logger.Error().Err(err).Uint("department_id", payload.DepartmentID).Msg("failed to enqueue computation job")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "failed to enqueue computation job")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "computation job accepted", fiber.Map{
		"job_id":        payload.JobID,
		"department_id": payload.DepartmentID,
	})
}

// preview runs the computation synchronously without persisting anything and
// returns the full summary.
func (h *ComputationHandler) preview(c *fiber.Ctx) error {
	var payload dto.ComputationJobRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	payload.IsPreview = true
	if payload.Purpose == "" {
		payload.Purpose = "preview"
	}
	if payload.ComputedBy == "" {
		payload.ComputedBy = middleware.UserEmail(c)
	}

	ctx := middleware.ContextWithCorrelation(c.Context(), middleware.GetCorrelationID(c))
	summary, err := h.orchestrator.Run(ctx, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRunConfig):
			h.logger.Error().Err(err).Msg("computation misconfigured")
			return utils.SendError(c, fiber.StatusInternalServerError, "computation misconfigured")
		case errors.As(err, new(validator.ValidationErrors)):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		default:
			h.logger.Error().Err(err).Uint("department_id", payload.DepartmentID).Msg("preview computation failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "preview computation failed")
		}
	}

	response, err := dto.NewComputationSummaryResponse(summary)
	if err != nil {
		h.logger.Error().Err(err).Uint("summary_id", summary.ID).Msg("failed to decode preview summary")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to decode preview summary")
	}

	return utils.SendSuccess(c, "preview computation completed", response)
}

func (h *ComputationHandler) getSummary(c *fiber.Ctx) error {
	id, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid summary id")
	}

	summary, err := h.queries.GetSummary(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSummaryNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "computation summary not found")
		}
		h.logger.Error().Err(err).Uint("summary_id", id).Msg("failed to load computation summary")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load computation summary")
	}

	if summary.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	return utils.SendSuccess(c, "computation summary retrieved", summary)
}

func (h *ComputationHandler) getMasterSheet(c *fiber.Ctx) error {
	id, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid summary id")
	}

	sheet, err := h.queries.GetMasterSheet(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSummaryNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "computation summary not found")
		}
		h.logger.Error().Err(err).Uint("summary_id", id).Msg("failed to build master sheet")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build master sheet")
	}

	return utils.SendSuccess(c, "master sheet retrieved", sheet)
}
