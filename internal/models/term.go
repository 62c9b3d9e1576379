package models

import "time"

// Term is one academic semester within a session.
type Term struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Session   string    `gorm:"size:16;not null" json:"session"`
	Semester  int       `gorm:"not null" json:"semester"`
	Active    bool      `gorm:"index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TermLock marks a department's results for a term as finalized. Once a lock
// row exists no further final-mode computation may run for that pair.
type TermLock struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TermID       uint      `gorm:"uniqueIndex:idx_term_locks_term_department;not null" json:"term_id"`
	DepartmentID uint      `gorm:"uniqueIndex:idx_term_locks_term_department;not null" json:"department_id"`
	LockedBy     string    `gorm:"size:255" json:"locked_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// CourseRegistration records that a student registered a course for a term.
// Its presence for any course is what distinguishes a low-scoring student
// from a non-registered one.
type CourseRegistration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"uniqueIndex:idx_registrations_student_course_term;not null" json:"student_id"`
	CourseID  uint      `gorm:"uniqueIndex:idx_registrations_student_course_term;not null" json:"course_id"`
	TermID    uint      `gorm:"uniqueIndex:idx_registrations_student_course_term;not null" json:"term_id"`
	CreatedAt time.Time `json:"created_at"`
}
