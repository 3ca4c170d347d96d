package grading

import (
	"context"
	"fmt"

	"github.com/edugrade/codegrader/internal/rubric"
)

// Evaluator is the strategy for one criterion type. Implementations never
// abort the grading run: a failure is reported inside the result with
// EvaluatorError set and zero points, so other criteria keep their scores.
type Evaluator interface {
	Evaluate(ctx context.Context, criterion rubric.Criterion, submission *rubric.Submission) EvaluationResult
}

// Registry maps criterion type tags to their evaluator implementations.
type Registry struct {
	evaluators map[rubric.CriterionType]Evaluator
}

// NewRegistry builds an empty evaluator registry.
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[rubric.CriterionType]Evaluator)}
}

// Register installs the evaluator for a criterion type, replacing any
// previous registration.
func (r *Registry) Register(criterionType rubric.CriterionType, evaluator Evaluator) {
	r.evaluators[criterionType] = evaluator
}

// Lookup returns the evaluator registered for the criterion type.
func (r *Registry) Lookup(criterionType rubric.CriterionType) (Evaluator, bool) {
	evaluator, ok := r.evaluators[criterionType]
	return evaluator, ok
}

// degraded builds the zero-scored result used whenever an evaluator cannot
// complete. The failure reason doubles as the rationale so it is never
// silently dropped.
func degraded(criterion rubric.Criterion, reason string) EvaluationResult {
	return EvaluationResult{
		Criterion:      criterion,
		PointsEarned:   0,
		Rationale:      reason,
		EvaluatorError: reason,
	}
}

func degradedErr(criterion rubric.Criterion, op string, err error) EvaluationResult {
	return degraded(criterion, fmt.Sprintf("%s: %v", op, err))
}
