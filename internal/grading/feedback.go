package grading

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/edugrade/codegrader/internal/rubric"
	"github.com/edugrade/codegrader/pkg/ai"
)

// FallbackFeedback is returned when the judgment client cannot produce a
// summary. Feedback is best-effort relative to the score itself.
const FallbackFeedback = "Feedback unavailable"

const defaultFeedbackPrompt = "You are a kind mentor reviewing a student's graded code. " +
	"Using the grading notes, write a short encouraging summary with at most " +
	"{{max_suggestions}} actionable suggestions for improvement."

// FeedbackComposer produces the tone-constrained natural-language summary
// appended to the grading report.
type FeedbackComposer struct {
	client    ai.Client
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewFeedbackComposer constructs the composer. Model output is stripped of
// any HTML before it reaches students.
func NewFeedbackComposer(client ai.Client, logger zerolog.Logger) *FeedbackComposer {
	return &FeedbackComposer{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "feedback_composer").Logger(),
	}
}

// Compose builds the feedback summary from the per-criterion rationales. It
// returns an empty string when feedback is disabled and the fallback message
// when the judgment client fails.
func (c *FeedbackComposer) Compose(ctx context.Context, r *rubric.Rubric, submission *rubric.Submission, report *GradingReport) string {
	if !r.Feedback.Enabled {
		return ""
	}
	if c.client == nil {
		return FallbackFeedback
	}

	systemPrompt := r.Feedback.PromptTemplate
	if systemPrompt == "" {
		systemPrompt = defaultFeedbackPrompt
	}
	systemPrompt = strings.ReplaceAll(systemPrompt, "{{max_suggestions}}", strconv.Itoa(r.Feedback.MaxSuggestions))

	response, err := c.client.Ask(ctx, systemPrompt, c.buildContent(submission, report))
	if err != nil {
		c.logger.Warn().Err(err).Msg("feedback request failed, using fallback message")
		return FallbackFeedback
	}

	feedback := strings.TrimSpace(c.sanitizer.Sanitize(response))
	if feedback == "" {
		return FallbackFeedback
	}

	return feedback
}

func (c *FeedbackComposer) buildContent(submission *rubric.Submission, report *GradingReport) string {
	builder := strings.Builder{}
	builder.WriteString("## Submission\n")
	builder.WriteString(submission.Combined())
	builder.WriteString("\n\n## Grading notes\n")
	for _, category := range report.Categories {
		for _, result := range category.Results {
			builder.WriteString(fmt.Sprintf("- [%.1f/%d] %s: %s\n",
				result.PointsEarned, result.Criterion.Points,
				result.Criterion.Description, result.Rationale))
		}
	}
	builder.WriteString(fmt.Sprintf("\nOverall score: %d/%d\n", report.PointsEarned, report.PointsPossible))
	return builder.String()
}
