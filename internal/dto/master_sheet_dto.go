package dto

// MMS1Cell is one score cell in the course-by-course master-sheet grid.
type MMS1Cell struct {
	Score float64 `json:"score"`
	Grade string  `json:"grade"`
}

// MMS1Row is one student's row in the score grid; cells are keyed by course
// code so the grid survives catalog reordering.
type MMS1Row struct {
	MatricNo string              `json:"matric_no"`
	FullName string              `json:"full_name"`
	Cells    map[string]MMS1Cell `json:"cells"`
}

// MMS2Row is one student's row in the TCP/TNU/GPA progression grid.
type MMS2Row struct {
	MatricNo   string           `json:"matric_no"`
	FullName   string           `json:"full_name"`
	Current    PerformanceBlock `json:"current"`
	Previous   PerformanceBlock `json:"previous"`
	Cumulative PerformanceBlock `json:"cumulative"`
	Remark     string           `json:"remark"`
}

// MasterSheetLevel is the export payload for one level: catalog, status
// lists and both result grids.
type MasterSheetLevel struct {
	Level           int                  `json:"level"`
	Courses         []CourseCatalogEntry `json:"courses"`
	PassList        []StudentRef         `json:"pass_list"`
	ProbationList   []StudentRef         `json:"probation_list"`
	WithdrawalList  []StudentRef         `json:"withdrawal_list"`
	TerminationList []StudentRef         `json:"termination_list"`
	CarryoverList   []CarryoverEntry     `json:"carryover_list"`
	MMS1            []MMS1Row            `json:"mms1"`
	MMS2            []MMS2Row            `json:"mms2"`
}

// MasterSheetResponse is the level-partitioned export payload consumed by
// the report collaborator.
type MasterSheetResponse struct {
	DepartmentID uint               `json:"department_id"`
	TermID       uint               `json:"term_id"`
	Levels       []MasterSheetLevel `json:"levels"`
	CacheHit     bool               `json:"cache_hit,omitempty"`
}
