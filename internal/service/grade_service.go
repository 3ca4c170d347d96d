package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/edugrade/codegrader/internal/grading"
	"github.com/edugrade/codegrader/internal/rubric"
	"github.com/edugrade/codegrader/internal/sink"
	"github.com/edugrade/codegrader/pkg/ai"
	dockerexec "github.com/edugrade/codegrader/pkg/docker"
)

// GradeService runs the full grading pipeline: rubric load, criterion
// evaluation, feedback composition, and report hand-off.
type GradeService interface {
	GradeDir(ctx context.Context, rubricPath, submissionDir, studentEmail string) (*grading.GradingReport, error)
	GradeInline(ctx context.Context, rubricJSON []byte, files []rubric.SubmissionFile, studentEmail string) (*grading.GradingReport, error)
}

// GradeServiceConfig groups the service's tuning knobs.
type GradeServiceConfig struct {
	Sandbox     grading.SandboxConfig
	Concurrency int
}

type gradeService struct {
	judgment ai.Client
	executor dockerexec.Executor
	sink     sink.Sink
	composer *grading.FeedbackComposer
	cfg      GradeServiceConfig
	logger   zerolog.Logger
}

// NewGradeService constructs the grading pipeline. Judgment client, executor,
// and sink may each be nil; the affected criteria then degrade with a
// recorded reason instead of failing the run.
func NewGradeService(judgment ai.Client, executor dockerexec.Executor, reportSink sink.Sink, logger zerolog.Logger, cfg GradeServiceConfig) GradeService {
	return &gradeService{
		judgment: judgment,
		executor: executor,
		sink:     reportSink,
		composer: grading.NewFeedbackComposer(judgment, logger),
		cfg:      cfg,
		logger:   logger.With().Str("component", "grade_service").Logger(),
	}
}

func (s *gradeService) GradeDir(ctx context.Context, rubricPath, submissionDir, studentEmail string) (*grading.GradingReport, error) {
	r, err := rubric.Load(rubricPath)
	if err != nil {
		return nil, err
	}

	submission, err := rubric.LoadSubmission(submissionDir, r.Assignment.StudentFiles)
	if err != nil {
		return nil, err
	}

	return s.grade(ctx, r, submission, studentEmail), nil
}

func (s *gradeService) GradeInline(ctx context.Context, rubricJSON []byte, files []rubric.SubmissionFile, studentEmail string) (*grading.GradingReport, error) {
	r, err := rubric.Parse(rubricJSON)
	if err != nil {
		return nil, err
	}

	submission := &rubric.Submission{Files: files}
	return s.grade(ctx, r, submission, studentEmail), nil
}

// grade never fails once the rubric is loaded: evaluator failures degrade
// individual criteria and sink failures are logged, so the caller always
// gets a report.
func (s *gradeService) grade(ctx context.Context, r *rubric.Rubric, submission *rubric.Submission, studentEmail string) *grading.GradingReport {
	start := time.Now()

	registry := grading.NewRegistry()
	registry.Register(rubric.CriterionAIReview, grading.NewAIReviewEvaluator(s.judgment, s.logger))
	registry.Register(rubric.CriterionOutputMatch, grading.NewOutputMatchEvaluator(s.buildRunner(r), s.logger))

	aggregator := grading.NewAggregator(registry, s.cfg.Concurrency, s.logger)
	report := aggregator.Grade(ctx, r, submission)
	report.FeedbackText = s.composer.Compose(ctx, r, submission, report)

	if s.sink != nil {
		// Delivery failure never invalidates the report; the engine hands
		// off exactly once and leaves retries to the collaborator.
		if err := s.sink.Publish(ctx, report, studentEmail); err != nil {
			s.logger.Error().Err(err).Str("run_id", report.RunID).Msg("report delivery failed")
		}
	}

	s.logger.Info().
		Str("run_id", report.RunID).
		Dur("elapsed", time.Since(start)).
		Msg("grading pipeline finished")

	return report
}

func (s *gradeService) buildRunner(r *rubric.Rubric) grading.Runner {
	if s.executor == nil {
		return nil
	}

	runner, err := grading.NewSandboxRunner(s.executor, r.Assignment.Type, s.cfg.Sandbox, s.logger)
	if err != nil {
		// Assignment types without a sandbox never reach here with an
		// output_match criterion; the loader rejects those rubrics.
		s.logger.Warn().Err(err).Str("assignment_type", r.Assignment.Type).Msg("sandbox unavailable for assignment type")
		return nil
	}

	return runner
}
