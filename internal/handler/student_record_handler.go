package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dipoade/resulta-api/internal/middleware"
	"github.com/dipoade/resulta-api/internal/service"
	"github.com/dipoade/resulta-api/internal/utils"
)

// StudentRecordHandler exposes a student's archived semester results.
type StudentRecordHandler struct {
	records service.StudentRecordService
	logger  zerolog.Logger
}

// NewStudentRecordHandler constructs the handler.
func NewStudentRecordHandler(records service.StudentRecordService, logger zerolog.Logger) *StudentRecordHandler {
	return &StudentRecordHandler{
		records: records,
		logger:  logger.With().Str("component", "student_record_handler").Logger(),
	}
}

// Register wires the student-scoped result history lookup.
func (h *StudentRecordHandler) Register(router fiber.Router) {
	router.Get("/:id/results", middleware.WithAuth(h.semesterHistory, middleware.AuthOptions{RequireUser: true}))
}

func (h *StudentRecordHandler) semesterHistory(c *fiber.Ctx) error {
	studentID, err := parseParamUint(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	history, err := h.records.SemesterHistory(c.Context(), studentID)
	if err != nil {
		h.logger.Error().Err(err).Uint("student_id", studentID).Msg("failed to load semester history")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load semester history")
	}

	return utils.OK(c, history, "semester results retrieved", fiber.Map{
		"student_id": studentID,
		"count":      len(history),
	})
}
