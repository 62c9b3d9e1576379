package models

import "time"

// Department groups students, courses and computation runs.
type Department struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:16;uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	HeadName  string    `gorm:"size:255" json:"head_name"`
	HeadEmail string    `gorm:"size:255" json:"head_email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Course is a unit of study offered at a fixed level. A borrowed course is a
// departmental alias for a course owned by another department; results filed
// against the alias resolve to the origin course for reporting.
type Course struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Code           string    `gorm:"size:16;index;not null" json:"code"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Unit           int       `gorm:"not null" json:"unit"`
	Level          int       `gorm:"not null" json:"level"`
	IsCore         bool      `gorm:"not null" json:"is_core"`
	DepartmentID   uint      `gorm:"index;not null" json:"department_id"`
	BorrowedFromID *uint     `json:"borrowed_from_id,omitempty"`
	BorrowedFrom   *Course   `gorm:"foreignKey:BorrowedFromID" json:"borrowed_from,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Origin resolves a borrowed course to the course that owns its code, title
// and unit load.
func (c Course) Origin() Course {
	if c.BorrowedFrom != nil {
		return *c.BorrowedFrom
	}
	return c
}
