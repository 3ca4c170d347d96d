package sink

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/edugrade/codegrader/internal/grading"
)

// Sink receives the finished grading report. The engine hands the report off
// exactly once and never retries delivery; retrying is the collaborator's
// responsibility.
type Sink interface {
	Publish(ctx context.Context, report *grading.GradingReport, studentEmail string) error
}

// LogSink records the report in the structured log. It is the default sink
// for local runs.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink constructs a logging sink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "log_sink").Logger()}
}

// Publish logs the report summary and returns nil.
func (s *LogSink) Publish(ctx context.Context, report *grading.GradingReport, studentEmail string) error {
	s.logger.Info().
		Str("run_id", report.RunID).
		Str("assignment", report.AssignmentName).
		Str("student_email", studentEmail).
		Int("points_earned", report.PointsEarned).
		Int("points_possible", report.PointsPossible).
		Bool("partial", report.Partial).
		Msg("grading report published")
	return nil
}

// MultiSink fans one report out to several sinks. Every sink is attempted;
// failures are collected rather than short-circuiting delivery.
type MultiSink struct {
	sinks  []Sink
	logger zerolog.Logger
}

// NewMultiSink builds a fan-out sink over the given sinks.
func NewMultiSink(logger zerolog.Logger, sinks ...Sink) *MultiSink {
	return &MultiSink{
		sinks:  sinks,
		logger: logger.With().Str("component", "multi_sink").Logger(),
	}
}

// Publish delivers the report to each sink in order.
func (s *MultiSink) Publish(ctx context.Context, report *grading.GradingReport, studentEmail string) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, report, studentEmail); err != nil {
			s.logger.Error().Err(err).Str("run_id", report.RunID).Msg("sink delivery failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
