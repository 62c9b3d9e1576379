package dto

import (
	"encoding/json"
	"time"

	"github.com/dipoade/resulta-api/internal/models"
)

// ComputationJobRequest is the dispatch message for one department
// computation job. It is what the HTTP trigger publishes and what a worker
// consumes.
type ComputationJobRequest struct {
	JobID         string `json:"job_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
	DepartmentID  uint   `json:"department_id" validate:"required"`
	MasterRunID   string `json:"master_run_id"`
	ComputedBy    string `json:"computed_by" validate:"required"`
	IsPreview     bool   `json:"is_preview"`
	Purpose       string `json:"purpose" validate:"omitempty,oneof=final preview simulation"`
	Retry         bool   `json:"retry"`
	Attempt       int    `json:"attempt"`
	Priority      int    `json:"priority"`
	Note          string `json:"note,omitempty"`
}

// TriggerMasterRunRequest starts a term-wide invocation: one job per
// department, tracked under a single master run.
type TriggerMasterRunRequest struct {
	TermID      uint   `json:"term_id" validate:"required"`
	TriggeredBy string `json:"triggered_by" validate:"required"`
	IsPreview   bool   `json:"is_preview"`
	Purpose     string `json:"purpose" validate:"omitempty,oneof=final preview simulation"`
	Priority    int    `json:"priority"`
}

// CourseResult is one graded course inside a student summary.
type CourseResult struct {
	CourseID    uint    `json:"course_id"`
	Code        string  `json:"code"`
	Title       string  `json:"title"`
	Unit        int     `json:"unit"`
	IsCore      bool    `json:"is_core"`
	Score       float64 `json:"score"`
	Grade       string  `json:"grade"`
	Point       int     `json:"point"`
	CreditPoint float64 `json:"credit_point"`
	Failed      bool    `json:"failed"`
}

// PerformanceBlock carries the GPA arithmetic for one window of a student's
// record: the current term, the record before this term, or the cumulative
// total including this term.
type PerformanceBlock struct {
	GPA float64 `json:"gpa"`
	TCP float64 `json:"tcp"`
	TNU int     `json:"tnu"`
}

// OutstandingCourse is a previously failed, not-yet-cleared obligation.
type OutstandingCourse struct {
	CourseID uint   `json:"course_id"`
	Code     string `json:"code"`
	Title    string `json:"title"`
	Unit     int    `json:"unit"`
	TermID   uint   `json:"term_id"`
	Reason   string `json:"reason"`
	IsCore   bool   `json:"is_core"`
}

// StudentSummary is the full per-student computation output.
type StudentSummary struct {
	StudentID      uint                `json:"student_id"`
	MatricNo       string              `json:"matric_no"`
	FullName       string              `json:"full_name"`
	Level          int                 `json:"level"`
	Courses        []CourseResult      `json:"courses"`
	Current        PerformanceBlock    `json:"current"`
	Previous       PerformanceBlock    `json:"previous"`
	Cumulative     PerformanceBlock    `json:"cumulative"`
	FailedCount    int                 `json:"failed_count"`
	Outstanding    []OutstandingCourse `json:"outstanding"`
	Classification string              `json:"classification"`
	Remark         string              `json:"remark"`
	ActionTaken    string              `json:"action_taken"`
	Reason         string              `json:"reason,omitempty"`
	IsPreview      bool                `json:"is_preview"`
}

// StudentRef is the short form used in the pass/probation/withdrawal/
// termination lists.
type StudentRef struct {
	StudentID uint    `json:"student_id"`
	MatricNo  string  `json:"matric_no"`
	FullName  string  `json:"full_name"`
	GPA       float64 `json:"gpa"`
	CGPA      float64 `json:"cgpa"`
	Remark    string  `json:"remark"`
}

// CarryoverEntry lists a student with the courses they are carrying over.
type CarryoverEntry struct {
	StudentID uint     `json:"student_id"`
	MatricNo  string   `json:"matric_no"`
	FullName  string   `json:"full_name"`
	Courses   []string `json:"courses"`
	Count     int      `json:"count"`
}

// CourseCatalogEntry is one course in a level's catalog, resolved to its
// origin when borrowed.
type CourseCatalogEntry struct {
	CourseID uint   `json:"course_id"`
	Code     string `json:"code"`
	Title    string `json:"title"`
	Unit     int    `json:"unit"`
	IsCore   bool   `json:"is_core"`
}

// ClassificationCounts is the degree-classification histogram for a level.
type ClassificationCounts struct {
	FirstClass  int `json:"first_class"`
	SecondUpper int `json:"second_upper"`
	SecondLower int `json:"second_lower"`
	Third       int `json:"third"`
	Fail        int `json:"fail"`
}

// LevelStats is the per-level counter roll-up.
type LevelStats struct {
	TotalStudents  int     `json:"total_students"`
	Passed         int     `json:"passed"`
	Probation      int     `json:"probation"`
	Withdrawn      int     `json:"withdrawn"`
	Terminated     int     `json:"terminated"`
	Suspended      int     `json:"suspended"`
	WithCarryovers int     `json:"with_carryovers"`
	FailedToGrade  int     `json:"failed_to_grade"`
	HighestGPA     float64 `json:"highest_gpa"`
	LowestGPA      float64 `json:"lowest_gpa"`
}

// LevelAggregate is the canonical per-level partition: one flat array per
// list, never nested under a second level key.
type LevelAggregate struct {
	Level           int                  `json:"level"`
	Students        []StudentSummary     `json:"students"`
	Courses         []CourseCatalogEntry `json:"courses"`
	GradeCounts     map[string]int       `json:"grade_counts"`
	Classifications ClassificationCounts `json:"classifications"`
	PassList        []StudentRef         `json:"pass_list"`
	ProbationList   []StudentRef         `json:"probation_list"`
	WithdrawalList  []StudentRef         `json:"withdrawal_list"`
	TerminationList []StudentRef         `json:"termination_list"`
	CarryoverList   []CarryoverEntry     `json:"carryover_list"`
	Stats           LevelStats           `json:"stats"`
}

// FailedStudent is one entry in the failed-student ledger.
type FailedStudent struct {
	StudentID uint   `json:"student_id"`
	MatricNo  string `json:"matric_no"`
	Error     string `json:"error"`
}

// ComputationSummaryResponse is the API shape of a persisted summary.
type ComputationSummaryResponse struct {
	ID             uint                     `json:"id"`
	DepartmentID   uint                     `json:"department_id"`
	TermID         uint                     `json:"term_id"`
	MasterRunID    string                   `json:"master_run_id,omitempty"`
	Status         models.ComputationStatus `json:"status"`
	Purpose        models.ComputationPurpose `json:"purpose"`
	IsPreview      bool                     `json:"is_preview"`
	ComputedBy     string                   `json:"computed_by"`
	RetryCount     int                      `json:"retry_count"`
	TotalStudents  int                      `json:"total_students"`
	TotalPassed    int                      `json:"total_passed"`
	TotalProbation int                      `json:"total_probation"`
	TotalWithdrawn int                      `json:"total_withdrawn"`
	TotalTerminated int                     `json:"total_terminated"`
	TotalSuspended int                      `json:"total_suspended"`
	TotalCarryover int                      `json:"total_carryover"`
	TotalFailed    int                      `json:"total_failed"`
	HighestGPA     float64                  `json:"highest_gpa"`
	LowestGPA      float64                  `json:"lowest_gpa"`
	Levels         []LevelAggregate         `json:"levels"`
	FailedStudents []FailedStudent          `json:"failed_students"`
	ErrorMessage   string                   `json:"error_message,omitempty"`
	StartedAt      time.Time                `json:"started_at"`
	FinishedAt     *time.Time               `json:"finished_at,omitempty"`
	CacheHit       bool                     `json:"cache_hit,omitempty"`
}

// NewComputationSummaryResponse maps the persisted model, decoding the JSON
// partitions back into their typed form.
func NewComputationSummaryResponse(summary models.ComputationSummary) (ComputationSummaryResponse, error) {
	response := ComputationSummaryResponse{
		ID:             summary.ID,
		DepartmentID:   summary.DepartmentID,
		TermID:         summary.TermID,
		MasterRunID:    summary.MasterRunID,
		Status:         summary.Status,
		Purpose:        summary.Purpose,
		IsPreview:      summary.IsPreview,
		ComputedBy:     summary.ComputedBy,
		RetryCount:     summary.RetryCount,
		TotalStudents:  summary.TotalStudents,
		TotalPassed:    summary.TotalPassed,
		TotalProbation: summary.TotalProbation,
		TotalWithdrawn: summary.TotalWithdrawn,
		TotalTerminated: summary.TotalTerminated,
		TotalSuspended: summary.TotalSuspended,
		TotalCarryover: summary.TotalCarryover,
		TotalFailed:    summary.TotalFailed,
		HighestGPA:     summary.HighestGPA,
		LowestGPA:      summary.LowestGPA,
		ErrorMessage:   summary.ErrorMessage,
		StartedAt:      summary.StartedAt,
		FinishedAt:     summary.FinishedAt,
	}

	if len(summary.LevelData) > 0 {
		if err := json.Unmarshal(summary.LevelData, &response.Levels); err != nil {
			return ComputationSummaryResponse{}, err
		}
	}

	if len(summary.FailedStudents) > 0 {
		if err := json.Unmarshal(summary.FailedStudents, &response.FailedStudents); err != nil {
			return ComputationSummaryResponse{}, err
		}
	}

	return response, nil
}

// MasterRunResponse is the API shape of a term-wide run.
type MasterRunResponse struct {
	ID                   string                 `json:"id"`
	TermID               uint                   `json:"term_id"`
	Status               models.MasterRunStatus `json:"status"`
	TriggeredBy          string                 `json:"triggered_by"`
	TotalDepartments     int                    `json:"total_departments"`
	CompletedDepartments int                    `json:"completed_departments"`
	FailedDepartments    int                    `json:"failed_departments"`
	StartedAt            time.Time              `json:"started_at"`
	FinishedAt           *time.Time             `json:"finished_at,omitempty"`
}

// NewMasterRunResponse maps the persisted model.
func NewMasterRunResponse(run models.MasterComputationRun) MasterRunResponse {
	return MasterRunResponse{
		ID:                   run.ID,
		TermID:               run.TermID,
		Status:               run.Status,
		TriggeredBy:          run.TriggeredBy,
		TotalDepartments:     run.TotalDepartments,
		CompletedDepartments: run.CompletedDepartments,
		FailedDepartments:    run.FailedDepartments,
		StartedAt:            run.StartedAt,
		FinishedAt:           run.FinishedAt,
	}
}
