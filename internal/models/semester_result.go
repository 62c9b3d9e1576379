package models

import (
	"time"

	"gorm.io/datatypes"
)

// SemesterResultRecord is the immutable-once-written snapshot of one
// student's standing for one term: the course-by-course grade breakdown plus
// current and cumulative GPA arithmetic. Written only by final-mode runs.
type SemesterResultRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	StudentID     uint           `gorm:"uniqueIndex:idx_semester_results_student_term;not null" json:"student_id"`
	TermID        uint           `gorm:"uniqueIndex:idx_semester_results_student_term;not null" json:"term_id"`
	DepartmentID  uint           `gorm:"index;not null" json:"department_id"`
	Level         int            `gorm:"not null" json:"level"`
	GPA           float64        `json:"gpa"`
	CGPA          float64        `json:"cgpa"`
	TCP           float64        `json:"tcp"`
	TNU           int            `json:"tnu"`
	CumulativeTCP float64        `json:"cumulative_tcp"`
	CumulativeTNU int            `json:"cumulative_tnu"`
	Remark        string         `gorm:"size:32" json:"remark"`
	Courses       datatypes.JSON `json:"courses"`
	CreatedAt     time.Time      `json:"created_at"`
}
