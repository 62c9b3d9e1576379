package models

import "time"

// ResultRecord is a student's raw score for one course in one term. Records
// are immutable input to the engine; course attributes are denormalized at
// read time via the Course association.
type ResultRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"uniqueIndex:idx_results_student_course_term;not null" json:"student_id"`
	CourseID  uint      `gorm:"uniqueIndex:idx_results_student_course_term;not null" json:"course_id"`
	TermID    uint      `gorm:"uniqueIndex:idx_results_student_course_term;not null" json:"term_id"`
	Score     float64   `gorm:"not null" json:"score"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
