package dto

import (
	"time"

	"github.com/dipoade/resulta-api/internal/models"
)

// ClearCarryoverRequest identifies who is clearing a carry-over.
type ClearCarryoverRequest struct {
	ClearedBy string `json:"cleared_by" validate:"required"`
}

// CarryoverResponse is the API shape of a carry-over record.
type CarryoverResponse struct {
	ID        uint                   `json:"id"`
	StudentID uint                   `json:"student_id"`
	CourseID  uint                   `json:"course_id"`
	Code      string                 `json:"code"`
	Title     string                 `json:"title"`
	Unit      int                    `json:"unit"`
	TermID    uint                   `json:"term_id"`
	Grade     string                 `json:"grade"`
	Score     float64                `json:"score"`
	Reason    models.CarryoverReason `json:"reason"`
	Cleared   bool                   `json:"cleared"`
	ClearedBy string                 `json:"cleared_by,omitempty"`
	ClearedAt *time.Time             `json:"cleared_at,omitempty"`
}

// NewCarryoverResponse maps the persisted model, resolving borrowed courses
// to their origin for display.
func NewCarryoverResponse(record models.CarryoverRecord) CarryoverResponse {
	course := record.Course.Origin()

	return CarryoverResponse{
		ID:        record.ID,
		StudentID: record.StudentID,
		CourseID:  record.CourseID,
		Code:      course.Code,
		Title:     course.Title,
		Unit:      course.Unit,
		TermID:    record.TermID,
		Grade:     record.Grade,
		Score:     record.Score,
		Reason:    record.Reason,
		Cleared:   record.Cleared,
		ClearedBy: record.ClearedBy,
		ClearedAt: record.ClearedAt,
	}
}
