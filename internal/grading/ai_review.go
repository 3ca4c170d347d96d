package grading

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edugrade/codegrader/internal/rubric"
	"github.com/edugrade/codegrader/pkg/ai"
)

// verdictNumber matches the first number in a judgment response. The judging
// prompt instructs the model to answer with a number followed by its
// justification.
var verdictNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// AIReviewEvaluator grades a criterion by asking the judgment client for a
// numeric verdict on the submission.
type AIReviewEvaluator struct {
	client ai.Client
	logger zerolog.Logger
}

// NewAIReviewEvaluator constructs the ai_review strategy.
func NewAIReviewEvaluator(client ai.Client, logger zerolog.Logger) *AIReviewEvaluator {
	return &AIReviewEvaluator{
		client: client,
		logger: logger.With().Str("component", "ai_review_evaluator").Logger(),
	}
}

// Evaluate sends the criterion's judging prompt plus the submission text to
// the judgment client and parses the verdict. Client failures and
// unparseable responses degrade to zero points with the reason recorded.
func (e *AIReviewEvaluator) Evaluate(ctx context.Context, criterion rubric.Criterion, submission *rubric.Submission) EvaluationResult {
	if e.client == nil {
		return degraded(criterion, "judgment client not configured")
	}

	response, err := e.client.Ask(ctx, criterion.SystemPrompt, submission.Combined())
	if err != nil {
		e.logger.Warn().Err(err).Str("criterion", criterion.Description).Msg("judgment request failed")
		return degradedErr(criterion, "judgment request failed", err)
	}

	points, rationale, ok := parseVerdict(response, criterion.Points)
	if !ok {
		return degraded(criterion, "no numeric verdict in judgment response: "+truncate(response, 200))
	}

	return EvaluationResult{
		Criterion:    criterion,
		PointsEarned: points,
		Rationale:    rationale,
	}
}

// parseVerdict extracts the first number in the response, clamps it into
// [0, max], and returns the remainder of the response as the rationale.
func parseVerdict(response string, max int) (float64, string, bool) {
	loc := verdictNumber.FindStringIndex(response)
	if loc == nil {
		return 0, "", false
	}

	value, err := strconv.ParseFloat(response[loc[0]:loc[1]], 64)
	if err != nil {
		return 0, "", false
	}

	if value < 0 {
		value = 0
	}
	if value > float64(max) {
		value = float64(max)
	}

	rationale := strings.TrimLeft(response[loc[1]:], " \t\r\n-–:.,/")
	return value, strings.TrimSpace(rationale), true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
