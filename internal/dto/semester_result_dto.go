package dto

import (
	"encoding/json"
	"time"

	"github.com/dipoade/resulta-api/internal/models"
)

// SemesterResultResponse is the API shape of one archived semester snapshot.
type SemesterResultResponse struct {
	ID            uint            `json:"id"`
	StudentID     uint            `json:"student_id"`
	TermID        uint            `json:"term_id"`
	Level         int             `json:"level"`
	GPA           float64         `json:"gpa"`
	CGPA          float64         `json:"cgpa"`
	TCP           float64         `json:"tcp"`
	TNU           int             `json:"tnu"`
	CumulativeTCP float64         `json:"cumulative_tcp"`
	CumulativeTNU int             `json:"cumulative_tnu"`
	Remark        string          `json:"remark"`
	Courses       json.RawMessage `json:"courses"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewSemesterResultResponse maps the persisted snapshot.
func NewSemesterResultResponse(record models.SemesterResultRecord) SemesterResultResponse {
	return SemesterResultResponse{
		ID:            record.ID,
		StudentID:     record.StudentID,
		TermID:        record.TermID,
		Level:         record.Level,
		GPA:           record.GPA,
		CGPA:          record.CGPA,
		TCP:           record.TCP,
		TNU:           record.TNU,
		CumulativeTCP: record.CumulativeTCP,
		CumulativeTNU: record.CumulativeTNU,
		Remark:        record.Remark,
		Courses:       json.RawMessage(record.Courses),
		CreatedAt:     record.CreatedAt,
	}
}
