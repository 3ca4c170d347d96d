package grading

import (
	"strconv"
	"time"

	"github.com/edugrade/codegrader/internal/rubric"
)

// EvaluationResult is the outcome of evaluating one criterion.
type EvaluationResult struct {
	Criterion      rubric.Criterion `json:"criterion"`
	PointsEarned   float64          `json:"points_earned"`
	Rationale      string           `json:"rationale"`
	EvaluatorError string           `json:"evaluator_error,omitempty"`
}

// Degraded reports whether the evaluator failed and the criterion was scored
// zero as a consequence.
func (r EvaluationResult) Degraded() bool {
	return r.EvaluatorError != ""
}

// CategoryScore is the per-category breakdown in a grading report.
type CategoryScore struct {
	Name           string             `json:"name"`
	PointsEarned   float64            `json:"points_earned"`
	PointsPossible int                `json:"points_possible"`
	Results        []EvaluationResult `json:"results"`
}

// GradingReport is the terminal artifact of one grading run. It is immutable
// once handed to a sink.
type GradingReport struct {
	RunID          string          `json:"run_id"`
	AssignmentName string          `json:"assignment_name"`
	PointsEarned   int             `json:"points_earned"`
	PointsPossible int             `json:"points_possible"`
	Categories     []CategoryScore `json:"categories"`
	FeedbackText   string          `json:"feedback_text"`
	GeneratedAt    time.Time       `json:"generated_at"`
	Partial        bool            `json:"partial,omitempty"`
}

// Properties exposes the report as a flat mapping suitable for property
// substitution into an external tracking record.
func (r *GradingReport) Properties() map[string]string {
	return map[string]string{
		"assignment":      r.AssignmentName,
		"points_earned":   strconv.Itoa(r.PointsEarned),
		"points_possible": strconv.Itoa(r.PointsPossible),
		"ai_feedback":     r.FeedbackText,
		"submission_date": r.GeneratedAt.Format(time.RFC3339),
	}
}
