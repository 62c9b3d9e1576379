package service

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/models"
)

// levelShapeSchema pins the canonical partition shape: one flat array per
// list under each level entry. A nested level-keyed object anywhere in the
// lists fails validation before the summary is finalized.
const levelShapeSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["level", "students", "courses", "pass_list", "probation_list", "withdrawal_list", "termination_list", "carryover_list", "stats"],
		"properties": {
			"level": {"type": "integer", "minimum": 100},
			"students": {"type": "array"},
			"courses": {"type": "array"},
			"pass_list": {"type": "array"},
			"probation_list": {"type": "array"},
			"withdrawal_list": {"type": "array"},
			"termination_list": {"type": "array"},
			"carryover_list": {"type": "array"},
			"stats": {"type": "object"}
		}
	}
}`

var compiledLevelShape = jsonschema.MustCompileString("levels.json", levelShapeSchema)

// SummaryTotals is the department-wide roll-up of one run.
type SummaryTotals struct {
	Students   int
	Passed     int
	Probation  int
	Withdrawn  int
	Terminated int
	Suspended  int
	Carryover  int
	Failed     int
	HighestGPA float64
	LowestGPA  float64
}

// SummaryAggregator folds per-student outcomes into level-partitioned
// aggregates. One aggregator is constructed per job and discarded at job
// end; nothing in it is shared between runs.
type SummaryAggregator struct {
	levels map[int]*dto.LevelAggregate
	failed []dto.FailedStudent

	totals         SummaryTotals
	gpaSeen        bool
	gpaSeenByLevel map[int]bool
	highestGPA     float64
	lowestGPA      float64
}

// NewSummaryAggregator constructs an empty per-job aggregator.
func NewSummaryAggregator() *SummaryAggregator {
	return &SummaryAggregator{
		levels:         map[int]*dto.LevelAggregate{},
		gpaSeenByLevel: map[int]bool{},
	}
}

func (a *SummaryAggregator) level(level int) *dto.LevelAggregate {
	aggregate, ok := a.levels[level]
	if !ok {
		aggregate = &dto.LevelAggregate{
			Level:           level,
			Students:        []dto.StudentSummary{},
			Courses:         []dto.CourseCatalogEntry{},
			GradeCounts:     map[string]int{},
			PassList:        []dto.StudentRef{},
			ProbationList:   []dto.StudentRef{},
			WithdrawalList:  []dto.StudentRef{},
			TerminationList: []dto.StudentRef{},
			CarryoverList:   []dto.CarryoverEntry{},
		}
		a.levels[level] = aggregate
	}
	return aggregate
}

// Add folds one processed student into their level partition. Insertion
// order within a level follows processing order, which keeps reports
// reproducible.
func (a *SummaryAggregator) Add(outcome StudentOutcome) {
	summary := outcome.Summary
	aggregate := a.level(summary.Level)

	aggregate.Students = append(aggregate.Students, summary)
	aggregate.Stats.TotalStudents++
	a.totals.Students++

	for _, course := range summary.Courses {
		aggregate.GradeCounts[course.Grade]++
	}
	a.mergeCatalog(aggregate, summary.Courses)

	ref := dto.StudentRef{
		StudentID: summary.StudentID,
		MatricNo:  summary.MatricNo,
		FullName:  summary.FullName,
		GPA:       summary.Current.GPA,
		CGPA:      summary.Cumulative.GPA,
		Remark:    summary.Remark,
	}

	switch summary.Remark {
	case RemarkWithdrawn:
		aggregate.WithdrawalList = append(aggregate.WithdrawalList, ref)
		aggregate.Stats.Withdrawn++
		a.totals.Withdrawn++
	case RemarkTerminated:
		aggregate.TerminationList = append(aggregate.TerminationList, ref)
		aggregate.Stats.Terminated++
		a.totals.Terminated++
	case RemarkProbation:
		aggregate.ProbationList = append(aggregate.ProbationList, ref)
		aggregate.Stats.Probation++
		a.totals.Probation++
	case RemarkSuspended:
		aggregate.Stats.Suspended++
		a.totals.Suspended++
	default:
		aggregate.PassList = append(aggregate.PassList, ref)
		aggregate.Stats.Passed++
		a.totals.Passed++
	}

	if summary.FailedCount > 0 {
		var failedCourses []string
		for _, course := range summary.Courses {
			if course.Failed {
				failedCourses = append(failedCourses, course.Code)
			}
		}
		aggregate.CarryoverList = append(aggregate.CarryoverList, dto.CarryoverEntry{
			StudentID: summary.StudentID,
			MatricNo:  summary.MatricNo,
			FullName:  summary.FullName,
			Courses:   failedCourses,
			Count:     len(failedCourses),
		})
		aggregate.Stats.WithCarryovers++
		a.totals.Carryover++
	}

	switch summary.Classification {
	case ClassFirst:
		aggregate.Classifications.FirstClass++
	case ClassSecondUpper:
		aggregate.Classifications.SecondUpper++
	case ClassSecondLower:
		aggregate.Classifications.SecondLower++
	case ClassThird:
		aggregate.Classifications.Third++
	case ClassFail:
		aggregate.Classifications.Fail++
	}

	if outcome.Decision.GPARulesApplied {
		gpa := summary.Current.GPA
		if !a.gpaSeen {
			a.highestGPA, a.lowestGPA = gpa, gpa
			a.gpaSeen = true
		} else {
			if gpa > a.highestGPA {
				a.highestGPA = gpa
			}
			if gpa < a.lowestGPA {
				a.lowestGPA = gpa
			}
		}
		stats := &aggregate.Stats
		if !a.gpaSeenByLevel[summary.Level] {
			stats.HighestGPA, stats.LowestGPA = gpa, gpa
			a.gpaSeenByLevel[summary.Level] = true
		} else {
			if gpa > stats.HighestGPA {
				stats.HighestGPA = gpa
			}
			if gpa < stats.LowestGPA {
				stats.LowestGPA = gpa
			}
		}
	}
}

// AddFailure records a student that could not be processed. The student
// still counts toward their level so the ledger and totals reconcile.
func (a *SummaryAggregator) AddFailure(student models.Student, err error) {
	aggregate := a.level(student.Level)
	aggregate.Stats.FailedToGrade++

	a.failed = append(a.failed, dto.FailedStudent{
		StudentID: student.ID,
		MatricNo:  student.MatricNo,
		Error:     err.Error(),
	})
	a.totals.Failed++
}

func (a *SummaryAggregator) mergeCatalog(aggregate *dto.LevelAggregate, courses []dto.CourseResult) {
	known := make(map[string]bool, len(aggregate.Courses))
	for _, entry := range aggregate.Courses {
		known[entry.Code] = true
	}

	changed := false
	for _, course := range courses {
		if known[course.Code] {
			continue
		}
		known[course.Code] = true
		changed = true
		aggregate.Courses = append(aggregate.Courses, dto.CourseCatalogEntry{
			CourseID: course.CourseID,
			Code:     course.Code,
			Title:    course.Title,
			Unit:     course.Unit,
			IsCore:   course.IsCore,
		})
	}

	if changed {
		sort.Slice(aggregate.Courses, func(i, j int) bool {
			return aggregate.Courses[i].Code < aggregate.Courses[j].Code
		})
	}
}

// BuildLevels returns the partitions in ascending level order after the
// shape check. An empty run builds an empty, valid document.
func (a *SummaryAggregator) BuildLevels() ([]dto.LevelAggregate, error) {
	levels := make([]dto.LevelAggregate, 0, len(a.levels))
	keys := make([]int, 0, len(a.levels))
	for key := range a.levels {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	for _, key := range keys {
		levels = append(levels, *a.levels[key])
	}

	if err := validateLevelShape(levels); err != nil {
		return nil, err
	}

	return levels, nil
}

// FailedStudents returns the failed-student ledger in processing order.
func (a *SummaryAggregator) FailedStudents() []dto.FailedStudent {
	return a.failed
}

// Totals returns the department-wide counters.
func (a *SummaryAggregator) Totals() SummaryTotals {
	totals := a.totals
	totals.HighestGPA = a.highestGPA
	totals.LowestGPA = a.lowestGPA
	return totals
}

// BuildMasterSheet derives the export payload from the level partitions.
func BuildMasterSheet(departmentID, termID uint, levels []dto.LevelAggregate) dto.MasterSheetResponse {
	response := dto.MasterSheetResponse{
		DepartmentID: departmentID,
		TermID:       termID,
		Levels:       make([]dto.MasterSheetLevel, 0, len(levels)),
	}

	for _, level := range levels {
		sheet := dto.MasterSheetLevel{
			Level:           level.Level,
			Courses:         level.Courses,
			PassList:        level.PassList,
			ProbationList:   level.ProbationList,
			WithdrawalList:  level.WithdrawalList,
			TerminationList: level.TerminationList,
			CarryoverList:   level.CarryoverList,
			MMS1:            make([]dto.MMS1Row, 0, len(level.Students)),
			MMS2:            make([]dto.MMS2Row, 0, len(level.Students)),
		}

		for _, student := range level.Students {
			cells := make(map[string]dto.MMS1Cell, len(student.Courses))
			for _, course := range student.Courses {
				cells[course.Code] = dto.MMS1Cell{Score: course.Score, Grade: course.Grade}
			}
			sheet.MMS1 = append(sheet.MMS1, dto.MMS1Row{
				MatricNo: student.MatricNo,
				FullName: student.FullName,
				Cells:    cells,
			})
			sheet.MMS2 = append(sheet.MMS2, dto.MMS2Row{
				MatricNo:   student.MatricNo,
				FullName:   student.FullName,
				Current:    student.Current,
				Previous:   student.Previous,
				Cumulative: student.Cumulative,
				Remark:     student.Remark,
			})
		}

		response.Levels = append(response.Levels, sheet)
	}

	return response
}

func validateLevelShape(levels []dto.LevelAggregate) error {
	data, err := json.Marshal(levels)
	if err != nil {
		return fmt.Errorf("marshal level partitions: %w", err)
	}

	var document interface{}
	if err := json.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("decode level partitions: %w", err)
	}

	if err := compiledLevelShape.Validate(document); err != nil {
		return fmt.Errorf("level partition shape check: %w", err)
	}

	return nil
}
