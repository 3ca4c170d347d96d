package grading

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edugrade/codegrader/internal/observability"
	"github.com/edugrade/codegrader/internal/rubric"
)

// DefaultConcurrency bounds how many criteria are evaluated at once. Each
// evaluation is a blocking network or container call, so a small pool keeps
// latency down without overwhelming the external services.
const DefaultConcurrency = 4

// Aggregator walks the rubric tree, dispatches each criterion to the
// evaluator matching its type tag, and folds the results into a grading
// report.
type Aggregator struct {
	registry    *Registry
	concurrency int
	logger      zerolog.Logger
}

// NewAggregator constructs an aggregator over the given evaluator registry.
func NewAggregator(registry *Registry, concurrency int, logger zerolog.Logger) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{
		registry:    registry,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "aggregator").Logger(),
	}
}

type job struct {
	categoryIndex  int
	criterionIndex int
	criterion      rubric.Criterion
}

// Grade evaluates every criterion and assembles the report. Criteria run
// concurrently under a bounded pool; results land in declaration order so
// the report layout is deterministic. An evaluator failure degrades that one
// criterion to zero, never the whole run. When ctx is cancelled mid-run,
// completed results are preserved and the report is marked partial.
func (a *Aggregator) Grade(ctx context.Context, r *rubric.Rubric, submission *rubric.Submission) *GradingReport {
	start := time.Now()

	results := make([][]EvaluationResult, len(r.Categories))
	jobs := make([]job, 0, r.CriterionCount())
	for i, category := range r.Categories {
		results[i] = make([]EvaluationResult, len(category.Criteria))
		for j, criterion := range category.Criteria {
			jobs = append(jobs, job{categoryIndex: i, criterionIndex: j, criterion: criterion})
		}
	}

	group := &errgroup.Group{}
	group.SetLimit(a.concurrency)

	for _, item := range jobs {
		item := item
		group.Go(func() error {
			results[item.categoryIndex][item.criterionIndex] = a.evaluate(ctx, item.criterion, submission)
			return nil
		})
	}

	// Workers never return errors; failures are folded into their results.
	_ = group.Wait()

	report := &GradingReport{
		RunID:          uuid.NewString(),
		AssignmentName: r.Assignment.Name,
		PointsPossible: r.Assignment.PointsPossible,
		Categories:     make([]CategoryScore, 0, len(r.Categories)),
		GeneratedAt:    time.Now().UTC(),
		Partial:        ctx.Err() != nil,
	}

	total := 0.0
	degradedCount := 0
	for i, category := range r.Categories {
		score := CategoryScore{
			Name:           category.Name,
			PointsPossible: category.Points,
			Results:        results[i],
		}

		for _, result := range results[i] {
			score.PointsEarned += result.PointsEarned
			if result.Degraded() {
				degradedCount++
			}
		}

		// Evaluators self-clamp, but the category ceiling is re-checked
		// defensively: totals must never exceed the declared maximum.
		if score.PointsEarned > float64(category.Points) {
			a.logger.Error().
				Str("category", category.Name).
				Float64("earned", score.PointsEarned).
				Int("possible", category.Points).
				Msg("aggregation invariant violation: category total exceeds maximum, clamping")
			observability.InvariantViolations().Inc()
			score.PointsEarned = float64(category.Points)
		}

		total += score.PointsEarned
		report.Categories = append(report.Categories, score)
	}

	// Truncation to an integer happens at the final total only, never
	// mid-computation, so rounding error cannot compound across criteria.
	report.PointsEarned = int(math.Trunc(total))
	if report.PointsEarned > report.PointsPossible {
		a.logger.Error().
			Int("earned", report.PointsEarned).
			Int("possible", report.PointsPossible).
			Msg("aggregation invariant violation: overall total exceeds maximum, clamping")
		observability.InvariantViolations().Inc()
		report.PointsEarned = report.PointsPossible
	}

	if degradedCount > 0 {
		observability.DegradedCriteria().Add(float64(degradedCount))
	}

	outcome := "complete"
	if report.Partial {
		outcome = "partial"
	}
	observability.GradingRuns().WithLabelValues(outcome).Inc()
	observability.GradingRunDuration().Observe(time.Since(start).Seconds())

	a.logger.Info().
		Str("run_id", report.RunID).
		Str("assignment", report.AssignmentName).
		Int("points_earned", report.PointsEarned).
		Int("points_possible", report.PointsPossible).
		Int("degraded_criteria", degradedCount).
		Msg("grading run finished")

	return report
}

func (a *Aggregator) evaluate(ctx context.Context, criterion rubric.Criterion, submission *rubric.Submission) EvaluationResult {
	if err := ctx.Err(); err != nil {
		return degradedErr(criterion, "grading cancelled", err)
	}

	evaluator, ok := a.registry.Lookup(criterion.Type)
	if !ok {
		// The loader rejects unknown tags, so this only fires when a
		// registered type was removed from the registry at runtime.
		return degraded(criterion, "no evaluator registered for type "+string(criterion.Type))
	}

	result := evaluator.Evaluate(ctx, criterion, submission)
	return a.clamp(result)
}

// clamp enforces 0 <= points_earned <= criterion.points on every result,
// regardless of what the evaluator produced.
func (a *Aggregator) clamp(result EvaluationResult) EvaluationResult {
	max := float64(result.Criterion.Points)

	if result.PointsEarned < 0 || result.PointsEarned > max {
		a.logger.Error().
			Str("criterion", result.Criterion.Description).
			Float64("earned", result.PointsEarned).
			Float64("max", max).
			Msg("aggregation invariant violation: criterion score out of range, clamping")
		observability.InvariantViolations().Inc()
	}

	if result.PointsEarned < 0 {
		result.PointsEarned = 0
	}
	if result.PointsEarned > max {
		result.PointsEarned = max
	}

	return result
}
