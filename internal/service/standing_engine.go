package service

import "github.com/dipoade/resulta-api/internal/models"

// Standing remarks.
const (
	RemarkGood       = "good"
	RemarkExcellent  = "excellent"
	RemarkProbation  = "probation"
	RemarkWithdrawn  = "withdrawn"
	RemarkTerminated = "terminated"
	RemarkSuspended  = "suspended"
)

// Actions recorded against a standing decision.
const (
	ActionNone                    = "none"
	ActionPlacedOnProbation       = "placed_on_probation"
	ActionProbationLifted         = "probation_lifted"
	ActionWithdrawn               = "withdrawn_poor_performance"
	ActionTerminatedNoRegistration = "terminated_no_registration"
	ActionSuspendedNoRegistration  = "suspended_no_registration"
	ActionSuspensionPreserved      = "suspension_preserved"

	previewActionPrefix = "would_be_"
)

// StandingInput is everything the standing rules look at for one student.
type StandingInput struct {
	Student     models.Student
	SemesterGPA float64
	CGPA        float64
	Carryovers  int
	Registered  bool
	TermID      uint
	IsFinal     bool
}

// StandingDecision is the outcome of evaluating the policy table. The
// decision is descriptive; persisting it is the caller's concern, which is
// what keeps preview evaluation side-effect free.
type StandingDecision struct {
	Remark            string
	ProbationStatus   models.ProbationStatus
	TerminationStatus models.TerminationStatus
	ActionTaken       string
	Reason            string
	IsPreview         bool
	Suspend           bool
	SuspensionReason  models.SuspensionReason
	LiftSuspension    bool
	GPARulesApplied   bool
}

// StandingEngine evaluates the fixed academic-standing policy.
type StandingEngine struct{}

// NewStandingEngine constructs the engine.
func NewStandingEngine() StandingEngine {
	return StandingEngine{}
}

// Evaluate runs the rule table. Non-registration outranks every GPA rule;
// within the GPA branch withdrawal outranks probation outranks excellence.
func (StandingEngine) Evaluate(in StandingInput) StandingDecision {
	decision := evaluate(in)
	decision.IsPreview = !in.IsFinal
	if decision.IsPreview && decision.ActionTaken != ActionNone {
		decision.ActionTaken = previewActionPrefix + decision.ActionTaken
	}
	return decision
}

func evaluate(in StandingInput) StandingDecision {
	student := in.Student

	if !in.Registered {
		if student.SuspensionActive && student.SuspensionReason == models.SuspensionNoRegistration {
			// Second consecutive term without registration.
			return StandingDecision{
				Remark:            RemarkTerminated,
				ProbationStatus:   models.ProbationNone,
				TerminationStatus: models.TerminationTerminated,
				ActionTaken:       ActionTerminatedNoRegistration,
				Reason:            "no course registration for two consecutive terms",
			}
		}

		if student.SuspensionActive && student.SuspensionReason == models.SuspensionSchoolApproved {
			return StandingDecision{
				Remark:            RemarkSuspended,
				ProbationStatus:   student.ProbationStatus,
				TerminationStatus: student.TerminationStatus,
				ActionTaken:       ActionSuspensionPreserved,
				Reason:            "school-approved suspension in effect",
			}
		}

		return StandingDecision{
			Remark:            RemarkSuspended,
			ProbationStatus:   student.ProbationStatus,
			TerminationStatus: student.TerminationStatus,
			ActionTaken:       ActionSuspendedNoRegistration,
			Reason:            "no course registration this term",
			Suspend:           true,
			SuspensionReason:  models.SuspensionNoRegistration,
		}
	}

	base := StandingDecision{GPARulesApplied: true, LiftSuspension: student.SuspensionActive}

	switch {
	case in.CGPA < 1.00 && student.Level > 100:
		base.Remark = RemarkWithdrawn
		base.ProbationStatus = models.ProbationNone
		base.TerminationStatus = models.TerminationWithdrawn
		base.ActionTaken = ActionWithdrawn
		base.Reason = "cumulative GPA below 1.00"
	case in.CGPA < 1.50 || in.SemesterGPA < 1.00:
		base.Remark = RemarkProbation
		base.ProbationStatus = models.ProbationActive
		base.TerminationStatus = models.TerminationNone
		base.ActionTaken = ActionPlacedOnProbation
		base.Reason = "performance below probation thresholds"
	case in.CGPA >= 4.00:
		base.Remark = RemarkExcellent
		base.ProbationStatus = models.ProbationNone
		base.TerminationStatus = models.TerminationNone
		base.ActionTaken = liftAction(student)
	default:
		base.Remark = RemarkGood
		base.ProbationStatus = models.ProbationNone
		base.TerminationStatus = models.TerminationNone
		base.ActionTaken = liftAction(student)
	}

	return base
}

func liftAction(student models.Student) string {
	if student.ProbationStatus == models.ProbationActive {
		return ActionProbationLifted
	}
	return ActionNone
}
