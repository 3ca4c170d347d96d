package grading

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edugrade/codegrader/internal/rubric"
)

// RunResult is the captured outcome of executing the submission.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Runner executes the submission in an isolated environment and captures its
// output. The sandbox is acquired per run and torn down on every exit path.
type Runner interface {
	Run(ctx context.Context, submission *rubric.Submission) (RunResult, error)
}

// OutputMatchEvaluator grades a criterion by running the submission and
// comparing its stdout to the expected output.
type OutputMatchEvaluator struct {
	runner Runner
	logger zerolog.Logger
}

// NewOutputMatchEvaluator constructs the output_match strategy.
func NewOutputMatchEvaluator(runner Runner, logger zerolog.Logger) *OutputMatchEvaluator {
	return &OutputMatchEvaluator{
		runner: runner,
		logger: logger.With().Str("component", "output_match_evaluator").Logger(),
	}
}

// Evaluate runs the submission and scores its stdout against the expected
// output. Exact match (modulo trailing whitespace) earns full points; a
// mismatch earns zero unless partial credit is enabled, in which case the
// score scales linearly with output similarity. Execution failures degrade
// this criterion only.
func (e *OutputMatchEvaluator) Evaluate(ctx context.Context, criterion rubric.Criterion, submission *rubric.Submission) EvaluationResult {
	if e.runner == nil {
		return degraded(criterion, "execution runner not configured")
	}

	result, err := e.runner.Run(ctx, submission)
	if err != nil {
		e.logger.Warn().Err(err).Str("criterion", criterion.Description).Msg("submission execution failed")
		return degradedErr(criterion, "execution failed", err)
	}

	if result.TimedOut {
		return degraded(criterion, "execution timed out")
	}

	if result.ExitCode != 0 {
		reason := fmt.Sprintf("process exited with code %d", result.ExitCode)
		if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
			reason = fmt.Sprintf("%s: %s", reason, truncate(stderr, 300))
		}
		return degraded(criterion, reason)
	}

	got := strings.TrimRight(result.Stdout, " \t\r\n")
	want := strings.TrimRight(criterion.Expected, " \t\r\n")

	if got == want {
		return EvaluationResult{
			Criterion:    criterion,
			PointsEarned: float64(criterion.Points),
			Rationale:    "output matches expected",
		}
	}

	if !criterion.PartialCredit {
		return EvaluationResult{
			Criterion:    criterion,
			PointsEarned: 0,
			Rationale:    "output does not match expected",
		}
	}

	ratio := Similarity(want, got)
	return EvaluationResult{
		Criterion:    criterion,
		PointsEarned: ratio * float64(criterion.Points),
		Rationale:    fmt.Sprintf("output is %.0f%% similar to expected", ratio*100),
	}
}
