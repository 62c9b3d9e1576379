package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/dipoade/resulta-api/internal/dto"
	"github.com/dipoade/resulta-api/internal/models"
)

// NotificationService delivers computation digests to the collaborators that
// care about them: the department head after each department run and the
// admin channel when a term-wide run finishes. Delivery failures are logged
// and never fail the computation itself.
type NotificationService interface {
	NotifyDepartmentHead(ctx context.Context, department models.Department, summary dto.ComputationSummaryResponse, note string)
	NotifyRunCompleted(ctx context.Context, run models.MasterComputationRun)
}

type notificationService struct {
	nats      *nats.Conn
	subject   string
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

type departmentDigest struct {
	Type         string    `json:"type"`
	DepartmentID uint      `json:"department_id"`
	SummaryID    uint      `json:"summary_id"`
	TermID       uint      `json:"term_id"`
	Status       string    `json:"status"`
	Recipient    string    `json:"recipient"`
	Message      string    `json:"message"`
	FailedCount  int       `json:"failed_count"`
	SentAt       time.Time `json:"sent_at"`
}

type runDigest struct {
	Type      string    `json:"type"`
	RunID     string    `json:"run_id"`
	TermID    uint      `json:"term_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

// NewNotificationService constructs the notifier. A nil NATS connection
// degrades to log-only delivery.
func NewNotificationService(natsConn *nats.Conn, subject string, logger zerolog.Logger) NotificationService {
	return &notificationService{
		nats:      natsConn,
		subject:   subject,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "notification_service").Logger(),
		now:       time.Now,
	}
}

func (s *notificationService) NotifyDepartmentHead(ctx context.Context, department models.Department, summary dto.ComputationSummaryResponse, note string) {
	digest := departmentDigest{
		Type:         "department_digest",
		DepartmentID: department.ID,
		SummaryID:    summary.ID,
		TermID:       summary.TermID,
		Status:       string(summary.Status),
		Recipient:    department.HeadEmail,
		Message:      s.composeDepartmentDigest(department, summary, note),
		FailedCount:  summary.TotalFailed,
		SentAt:       s.now(),
	}

	s.publish(digest.Type, digest)
}

func (s *notificationService) NotifyRunCompleted(ctx context.Context, run models.MasterComputationRun) {
	message := fmt.Sprintf(
		"Results computation run %s finished: %d department(s) completed, %d failed.",
		run.ID, run.CompletedDepartments, run.FailedDepartments,
	)

	digest := runDigest{
		Type:    "run_digest",
		RunID:   run.ID,
		TermID:  run.TermID,
		Status:  string(run.Status),
		Message: message,
		SentAt:  s.now(),
	}

	s.publish(digest.Type, digest)
}

// composeDepartmentDigest builds the plain-text level-by-level breakdown the
// department head receives.
func (s *notificationService) composeDepartmentDigest(department models.Department, summary dto.ComputationSummaryResponse, note string) string {
	var b strings.Builder

	mode := "Final"
	if summary.IsPreview {
		mode = "Preview"
	}
	fmt.Fprintf(&b, "%s results computation for %s: %s\n", mode, department.Name, summary.Status)
	fmt.Fprintf(&b, "Students processed: %d\n", summary.TotalStudents)

	for _, level := range summary.Levels {
		stats := level.Stats
		fmt.Fprintf(&b, "Level %d: %d students, %d passed, %d probation, %d withdrawn, %d terminated, %d suspended, %d with carry-overs\n",
			level.Level, stats.TotalStudents, stats.Passed, stats.Probation,
			stats.Withdrawn, stats.Terminated, stats.Suspended, stats.WithCarryovers)
	}

	if summary.TotalFailed > 0 {
		matrics := make([]string, 0, len(summary.FailedStudents))
		for _, failed := range summary.FailedStudents {
			matrics = append(matrics, failed.MatricNo)
		}
		fmt.Fprintf(&b, "Failed students (%d): %s\n", summary.TotalFailed, strings.Join(matrics, ", "))
	}

	if cleanNote := strings.TrimSpace(s.sanitizer.Sanitize(note)); cleanNote != "" {
		fmt.Fprintf(&b, "Note from %s: %s\n", s.sanitizer.Sanitize(summary.ComputedBy), cleanNote)
	}

	return b.String()
}

func (s *notificationService) publish(kind string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Msg("failed to encode notification")
		return
	}

	if s.nats == nil || s.subject == "" {
		s.logger.Info().Str("kind", kind).RawJSON("payload", data).Msg("notification (log-only)")
		return
	}

	if err := s.nats.Publish(s.subject, data); err != nil {
		s.logger.Error().Err(err).Str("kind", kind).Msg("failed to publish notification")
	}
}
