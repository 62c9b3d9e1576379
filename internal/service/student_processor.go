package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/models"
	"github.com/dipoade/resulta-api/internal/repository"
)

// StudentOutcome is everything one student's processing produced: the
// summary for aggregation plus the writes a final run would persist.
type StudentOutcome struct {
	Student       models.Student
	Summary       dto.StudentSummary
	Decision      StandingDecision
	NewCarryovers []models.CarryoverRecord
	Mutation      repository.StudentMutation
	Snapshot      models.SemesterResultRecord
}

// ProcessInput is the prefetched data for one student.
type ProcessInput struct {
	Student      models.Student
	Results      []models.ResultRecord
	Existing     []models.CarryoverRecord
	TermID       uint
	DepartmentID uint
	IsFinal      bool
}

// StudentProcessor runs the full per-student pipeline: grading, GPA/CGPA
// arithmetic, standing evaluation, carry-over planning and the persisted
// snapshot. One processor is constructed per job and never shared.
type StudentProcessor struct {
	engine        StandingEngine
	tracker       CarryoverTracker
	registrations repository.RegistrationRepository
	courses       repository.CourseRepository
	logger        zerolog.Logger

	coreByLevel map[int][]models.Course
}

// NewStudentProcessor constructs a per-job processor.
func NewStudentProcessor(engine StandingEngine, tracker CarryoverTracker, registrations repository.RegistrationRepository, courses repository.CourseRepository, logger zerolog.Logger) *StudentProcessor {
	return &StudentProcessor{
		engine:        engine,
		tracker:       tracker,
		registrations: registrations,
		courses:       courses,
		logger:        logger.With().Str("component", "student_processor").Logger(),
		coreByLevel:   map[int][]models.Course{},
	}
}

// Process computes one student's term outcome. Errors and panics are
// returned, never propagated, so a bad record cannot abort its batch.
func (p *StudentProcessor) Process(ctx context.Context, in ProcessInput) (outcome StudentOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("student %d: %v", in.Student.ID, r)
		}
	}()

	student := in.Student

	registered := len(in.Results) > 0
	if !registered {
		registered, err = p.registrations.HasRegistration(ctx, student.ID, in.TermID)
		if err != nil {
			return StudentOutcome{}, fmt.Errorf("registration lookup for student %d: %w", student.ID, err)
		}
	}

	var (
		courses     []dto.CourseResult
		tcp         float64
		tnu         int
		failedCount int
	)
	for _, record := range in.Results {
		origin := record.Course.Origin()
		grade, point := GradeAndPoint(record.Score)
		result := dto.CourseResult{
			CourseID:    record.CourseID,
			Code:        origin.Code,
			Title:       origin.Title,
			Unit:        origin.Unit,
			IsCore:      record.Course.IsCore,
			Score:       record.Score,
			Grade:       grade,
			Point:       point,
			CreditPoint: CreditPoint(point, origin.Unit),
			Failed:      !IsPassingPoint(point),
		}
		courses = append(courses, result)
		tcp += result.CreditPoint
		tnu += origin.Unit
		if result.Failed {
			failedCount++
		}
	}

	decision := p.engine.Evaluate(StandingInput{
		Student:     student,
		SemesterGPA: SemesterGPA(tcp, tnu),
		CGPA:        CGPA(student.CumulativeTCP, student.CumulativeTNU, tcp, tnu, student.CGPA),
		Carryovers:  student.TotalCarryovers,
		Registered:  registered,
		TermID:      in.TermID,
		IsFinal:     in.IsFinal,
	})

	summary := dto.StudentSummary{
		StudentID:   student.ID,
		MatricNo:    student.MatricNo,
		FullName:    student.FullName,
		Level:       student.Level,
		Courses:     courses,
		FailedCount: failedCount,
		Remark:      decision.Remark,
		ActionTaken: decision.ActionTaken,
		Reason:      decision.Reason,
		IsPreview:   decision.IsPreview,
	}

	if decision.GPARulesApplied {
		semesterGPA := SemesterGPA(tcp, tnu)
		cgpa := CGPA(student.CumulativeTCP, student.CumulativeTNU, tcp, tnu, student.CGPA)
		summary.Current = dto.PerformanceBlock{GPA: semesterGPA, TCP: tcp, TNU: tnu}
		summary.Previous = dto.PerformanceBlock{GPA: student.CGPA, TCP: student.CumulativeTCP, TNU: student.CumulativeTNU}
		summary.Cumulative = dto.PerformanceBlock{
			GPA: cgpa,
			TCP: student.CumulativeTCP + tcp,
			TNU: student.CumulativeTNU + tnu,
		}
		summary.Classification = Classify(cgpa)
	}

	closed := decision.TerminationStatus == models.TerminationWithdrawn ||
		decision.TerminationStatus == models.TerminationTerminated

	if !closed {
		summary.Outstanding = outstandingCourses(in.Existing)
	}

	var newCarryovers []models.CarryoverRecord
	if registered {
		missing, missErr := p.missingCoreCourses(ctx, in.DepartmentID, student.Level, courses)
		if missErr != nil {
			return StudentOutcome{}, missErr
		}
		newCarryovers = p.tracker.Plan(student, decision, courses, missing, in.Existing, in.TermID)
	}

	outcome = StudentOutcome{
		Student:       student,
		Summary:       summary,
		Decision:      decision,
		NewCarryovers: newCarryovers,
	}

	if in.IsFinal {
		outcome.Mutation = p.buildMutation(student, summary, decision, len(newCarryovers), in.TermID)
		outcome.Snapshot = buildSnapshot(student, summary, in)
	}

	return outcome, nil
}

// missingCoreCourses is the set of core courses at the student's level with
// no submitted result this term. The per-level catalog is cached for the
// life of the job.
func (p *StudentProcessor) missingCoreCourses(ctx context.Context, departmentID uint, level int, graded []dto.CourseResult) ([]models.Course, error) {
	core, ok := p.coreByLevel[level]
	if !ok {
		var err error
		core, err = p.courses.CoreCoursesForLevel(ctx, departmentID, level)
		if err != nil {
			return nil, fmt.Errorf("core catalog for level %d: %w", level, err)
		}
		p.coreByLevel[level] = core
	}

	seen := make(map[uint]bool, len(graded))
	for _, course := range graded {
		seen[course.CourseID] = true
	}

	var missing []models.Course
	for _, course := range core {
		if !seen[course.ID] {
			missing = append(missing, course)
		}
	}

	return missing, nil
}

func (p *StudentProcessor) buildMutation(student models.Student, summary dto.StudentSummary, decision StandingDecision, newCarryovers int, termID uint) repository.StudentMutation {
	sets := map[string]interface{}{
		"probation_status":   decision.ProbationStatus,
		"termination_status": decision.TerminationStatus,
	}

	if decision.GPARulesApplied {
		sets["gpa"] = summary.Current.GPA
		sets["cgpa"] = summary.Cumulative.GPA
		sets["cumulative_tcp"] = summary.Cumulative.TCP
		sets["cumulative_tnu"] = summary.Cumulative.TNU
	}

	if decision.Suspend {
		sets["suspension_active"] = true
		sets["suspension_reason"] = decision.SuspensionReason
		sets["suspended_since_id"] = termID
	} else if decision.LiftSuspension {
		sets["suspension_active"] = false
		sets["suspension_reason"] = ""
		sets["suspended_since_id"] = nil
	}

	mutation := repository.StudentMutation{StudentID: student.ID, Sets: sets}
	if newCarryovers > 0 {
		mutation.Increments = map[string]int{"total_carryovers": newCarryovers}
	}

	return mutation
}

func buildSnapshot(student models.Student, summary dto.StudentSummary, in ProcessInput) models.SemesterResultRecord {
	coursesJSON, _ := marshalJSON(summary.Courses)

	return models.SemesterResultRecord{
		StudentID:     student.ID,
		TermID:        in.TermID,
		DepartmentID:  in.DepartmentID,
		Level:         student.Level,
		GPA:           summary.Current.GPA,
		CGPA:          summary.Cumulative.GPA,
		TCP:           summary.Current.TCP,
		TNU:           summary.Current.TNU,
		CumulativeTCP: summary.Cumulative.TCP,
		CumulativeTNU: summary.Cumulative.TNU,
		Remark:        summary.Remark,
		Courses:       coursesJSON,
		CreatedAt:     time.Now(),
	}
}

func outstandingCourses(records []models.CarryoverRecord) []dto.OutstandingCourse {
	var outstanding []dto.OutstandingCourse
	for _, record := range records {
		course := record.Course.Origin()
		outstanding = append(outstanding, dto.OutstandingCourse{
			CourseID: record.CourseID,
			Code:     course.Code,
			Title:    course.Title,
			Unit:     course.Unit,
			TermID:   record.TermID,
			Reason:   string(record.Reason),
			IsCore:   record.Course.IsCore,
		})
	}
	return outstanding
}

func marshalJSON(value interface{}) (datatypes.JSON, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
