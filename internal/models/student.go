package models

import "time"

// ProbationStatus tracks whether a student is on academic probation.
type ProbationStatus string

const (
	ProbationNone   ProbationStatus = "none"
	ProbationActive ProbationStatus = "probation"
)

// TerminationStatus tracks whether a student has left the institution.
type TerminationStatus string

const (
	TerminationNone       TerminationStatus = "none"
	TerminationWithdrawn  TerminationStatus = "withdrawn"
	TerminationTerminated TerminationStatus = "terminated"
)

// SuspensionReason explains why a student record is suspended.
type SuspensionReason string

const (
	SuspensionNoRegistration SuspensionReason = "NO_REGISTRATION"
	SuspensionSchoolApproved SuspensionReason = "SCHOOL_APPROVED"
)

// Student represents an enrolled student whose results the engine computes.
// Only a final-mode computation run mutates these records; runs never delete
// them.
type Student struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	MatricNo          string            `gorm:"size:32;uniqueIndex;not null" json:"matric_no"`
	FullName          string            `gorm:"size:255;not null" json:"full_name"`
	DepartmentID      uint              `gorm:"index;not null" json:"department_id"`
	Level             int               `gorm:"not null" json:"level"`
	GPA               float64           `json:"gpa"`
	CGPA              float64           `json:"cgpa"`
	CumulativeTCP     float64           `json:"cumulative_tcp"`
	CumulativeTNU     int               `json:"cumulative_tnu"`
	TotalCarryovers   int               `json:"total_carryovers"`
	ProbationStatus   ProbationStatus   `gorm:"size:16;not null;default:'none'" json:"probation_status"`
	TerminationStatus TerminationStatus `gorm:"size:16;not null;default:'none'" json:"termination_status"`
	SuspensionActive  bool              `json:"suspension_active"`
	SuspensionReason  SuspensionReason  `gorm:"size:32" json:"suspension_reason,omitempty"`
	SuspendedSinceID  *uint             `json:"suspended_since_term_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// IsClosed reports whether the student's academic file is closed. Closed
// files are excluded from new carry-over creation.
func (s Student) IsClosed() bool {
	return s.TerminationStatus == TerminationWithdrawn || s.TerminationStatus == TerminationTerminated
}
