package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/edugrade/codegrader/internal/grading"
)

// DefaultGradeSubject is the subject grade events are published to when no
// subject is configured.
const DefaultGradeSubject = "grades.reports"

// NATSSink publishes each grading report as a JSON event so downstream
// consumers (dashboards, notifications) can react to new grades.
type NATSSink struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSSink builds a sink publishing to the given subject.
func NewNATSSink(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSSink {
	if subject == "" {
		subject = DefaultGradeSubject
	}
	return &NATSSink{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "nats_sink").Logger(),
	}
}

type gradeEvent struct {
	StudentEmail string                 `json:"student_email,omitempty"`
	Report       *grading.GradingReport `json:"report"`
}

// Publish serialises the report and publishes it.
func (s *NATSSink) Publish(ctx context.Context, report *grading.GradingReport, studentEmail string) error {
	data, err := json.Marshal(gradeEvent{StudentEmail: studentEmail, Report: report})
	if err != nil {
		return fmt.Errorf("marshal grade event: %w", err)
	}

	if err := s.conn.Publish(s.subject, data); err != nil {
		return fmt.Errorf("publish grade event: %w", err)
	}

	s.logger.Info().Str("run_id", report.RunID).Str("subject", s.subject).Msg("grade event published")
	return nil
}
