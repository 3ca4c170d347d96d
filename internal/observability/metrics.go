package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	gradingRunsTotal    *prometheus.CounterVec
	gradingRunSeconds   prometheus.Histogram
	degradedCriteria    prometheus.Counter
	invariantViolations prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for grading runs.
func RegisterMetrics() {
	registerOnce.Do(func() {
		gradingRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_runs_total",
			Help: "Total number of grading runs, labelled by outcome.",
		}, []string{"outcome"})

		gradingRunSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grading_run_seconds",
			Help:    "Wall-clock duration of complete grading runs.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		})

		degradedCriteria = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_degraded_criteria_total",
			Help: "Number of criteria scored zero because their evaluator failed.",
		})

		invariantViolations = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grading_invariant_violations_total",
			Help: "Number of times an evaluator or category total had to be clamped.",
		})

		prometheus.MustRegister(gradingRunsTotal, gradingRunSeconds, degradedCriteria, invariantViolations)
	})
}

// GradingRuns exposes the counter for grading run outcomes.
func GradingRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRunsTotal
}

// GradingRunDuration exposes the histogram for grading run durations.
func GradingRunDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradingRunSeconds
}

// DegradedCriteria exposes the counter for evaluator failures.
func DegradedCriteria() prometheus.Counter {
	RegisterMetrics()
	return degradedCriteria
}

// InvariantViolations exposes the counter for clamped totals.
func InvariantViolations() prometheus.Counter {
	RegisterMetrics()
	return invariantViolations
}
