package models

import (
	"time"

	"gorm.io/datatypes"
)

// ComputationStatus is the lifecycle state of a department computation job.
type ComputationStatus string

const (
	ComputationProcessing          ComputationStatus = "processing"
	ComputationCompleted           ComputationStatus = "completed"
	ComputationCompletedWithErrors ComputationStatus = "completed_with_errors"
	ComputationFailed              ComputationStatus = "failed"
	ComputationCancelled           ComputationStatus = "cancelled"
)

// ComputationPurpose distinguishes what a run's output is for.
type ComputationPurpose string

const (
	PurposeFinal      ComputationPurpose = "final"
	PurposePreview    ComputationPurpose = "preview"
	PurposeSimulation ComputationPurpose = "simulation"
)

// ComputationSummary is the persisted outcome of one department computation
// run: department-wide counters plus level-partitioned aggregates stored as
// JSON documents. Created at job start, mutated through the run, finalized
// once.
type ComputationSummary struct {
	ID              uint               `gorm:"primaryKey" json:"id"`
	DepartmentID    uint               `gorm:"uniqueIndex:idx_summaries_department_term_run;not null" json:"department_id"`
	TermID          uint               `gorm:"uniqueIndex:idx_summaries_department_term_run;not null" json:"term_id"`
	MasterRunID     string             `gorm:"uniqueIndex:idx_summaries_department_term_run;size:36" json:"master_run_id"`
	Status          ComputationStatus  `gorm:"size:32;not null;default:'processing'" json:"status"`
	Purpose         ComputationPurpose `gorm:"size:16;not null;default:'final'" json:"purpose"`
	IsPreview       bool               `json:"is_preview"`
	ComputedBy      string             `gorm:"size:255" json:"computed_by"`
	RetryCount      int                `json:"retry_count"`
	TotalStudents   int                `json:"total_students"`
	TotalPassed     int                `json:"total_passed"`
	TotalProbation  int                `json:"total_probation"`
	TotalWithdrawn  int                `json:"total_withdrawn"`
	TotalTerminated int                `json:"total_terminated"`
	TotalSuspended  int                `json:"total_suspended"`
	TotalCarryover  int                `json:"total_carryover"`
	TotalFailed     int                `json:"total_failed"`
	HighestGPA      float64            `json:"highest_gpa"`
	LowestGPA       float64            `json:"lowest_gpa"`
	LevelData       datatypes.JSON     `json:"level_data"`
	FailedStudents  datatypes.JSON     `json:"failed_students"`
	ErrorMessage    string             `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt       time.Time          `json:"started_at"`
	FinishedAt      *time.Time         `json:"finished_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// IsFinalized reports whether the summary has reached a terminal status.
func (s ComputationSummary) IsFinalized() bool {
	switch s.Status {
	case ComputationCompleted, ComputationCompletedWithErrors, ComputationFailed, ComputationCancelled:
		return true
	}
	return false
}

// MasterRunStatus is the lifecycle state of a term-wide invocation.
type MasterRunStatus string

const (
	MasterRunProcessing MasterRunStatus = "processing"
	MasterRunCompleted  MasterRunStatus = "completed"
)

// MasterComputationRun spans every department processed in one term-wide
// invocation. The last department to report flips the run to completed.
type MasterComputationRun struct {
	ID                   string          `gorm:"primaryKey;size:36" json:"id"`
	TermID               uint            `gorm:"index;not null" json:"term_id"`
	Status               MasterRunStatus `gorm:"size:16;not null;default:'processing'" json:"status"`
	TriggeredBy          string          `gorm:"size:255" json:"triggered_by"`
	TotalDepartments     int             `json:"total_departments"`
	CompletedDepartments int             `json:"completed_departments"`
	FailedDepartments    int             `json:"failed_departments"`
	StartedAt            time.Time       `json:"started_at"`
	FinishedAt           *time.Time      `json:"finished_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}
