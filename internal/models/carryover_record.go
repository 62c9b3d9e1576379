package models

import "time"

// CarryoverReason explains why a carry-over obligation was created.
type CarryoverReason string

const (
	CarryoverFailed        CarryoverReason = "Failed"
	CarryoverNotRegistered CarryoverReason = "NotRegistered"
	CarryoverAbsent        CarryoverReason = "Absent"
	CarryoverIncomplete    CarryoverReason = "Incomplete"
)

// CarryoverRecord is an unresolved failed core course a student must clear.
// Uniqueness on (student, course, term) is enforced by the storage layer; a
// student holds at most one uncleared record per course.
type CarryoverRecord struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	StudentID uint            `gorm:"uniqueIndex:idx_carryovers_student_course_term;not null" json:"student_id"`
	CourseID  uint            `gorm:"uniqueIndex:idx_carryovers_student_course_term;not null" json:"course_id"`
	TermID    uint            `gorm:"uniqueIndex:idx_carryovers_student_course_term;not null" json:"term_id"`
	Grade     string          `gorm:"size:2;not null" json:"grade"`
	Score     float64         `json:"score"`
	Reason    CarryoverReason `gorm:"size:16;not null" json:"reason"`
	Cleared   bool            `gorm:"index" json:"cleared"`
	ClearedBy string          `gorm:"size:255" json:"cleared_by,omitempty"`
	ClearedAt *time.Time      `json:"cleared_at,omitempty"`
	Course    Course          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
