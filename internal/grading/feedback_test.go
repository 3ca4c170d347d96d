package grading

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/edugrade/codegrader/internal/rubric"
)

func feedbackRubric(enabled bool) *rubric.Rubric {
	return &rubric.Rubric{
		Assignment: rubric.Assignment{Name: "A", PointsPossible: 10},
		Feedback: rubric.FeedbackConfig{
			Enabled:        enabled,
			PromptTemplate: "Be kind. At most {{max_suggestions}} suggestions.",
			MaxSuggestions: 2,
		},
	}
}

func feedbackReport() *GradingReport {
	return &GradingReport{
		AssignmentName: "A",
		PointsEarned:   8,
		PointsPossible: 10,
		Categories: []CategoryScore{{
			Name:           "Only",
			PointsEarned:   8,
			PointsPossible: 10,
			Results: []EvaluationResult{{
				Criterion:    rubric.Criterion{Description: "prints output", Points: 10},
				PointsEarned: 8,
				Rationale:    "mostly right",
			}},
		}},
	}
}

func TestComposeDisabledReturnsEmpty(t *testing.T) {
	client := &stubClient{responses: map[string]string{}}
	composer := NewFeedbackComposer(client, zerolog.Nop())

	out := composer.Compose(context.Background(), feedbackRubric(false), singleFileSubmission(), feedbackReport())
	require.Empty(t, out)
	require.Empty(t, client.calls)
}

func TestComposeSubstitutesMaxSuggestions(t *testing.T) {
	client := &stubClient{responses: map[string]string{
		"Be kind. At most 2 suggestions.": "Nice work! Try naming your loop variable.",
	}}
	composer := NewFeedbackComposer(client, zerolog.Nop())

	out := composer.Compose(context.Background(), feedbackRubric(true), singleFileSubmission(), feedbackReport())
	require.Equal(t, "Nice work! Try naming your loop variable.", out)
	require.Len(t, client.systems, 1)
	require.NotContains(t, client.systems[0], "{{max_suggestions}}")
}

func TestComposeContentCarriesRationalesAndScore(t *testing.T) {
	client := &stubClient{responses: map[string]string{
		"Be kind. At most 2 suggestions.": "ok",
	}}
	composer := NewFeedbackComposer(client, zerolog.Nop())

	composer.Compose(context.Background(), feedbackRubric(true), singleFileSubmission(), feedbackReport())
	require.Len(t, client.calls, 1)
	require.Contains(t, client.calls[0], "mostly right")
	require.Contains(t, client.calls[0], "Overall score: 8/10")
	require.Contains(t, client.calls[0], "# === main.py ===")
}

func TestComposeFallbackOnClientError(t *testing.T) {
	client := &stubClient{err: errors.New("rate limited")}
	composer := NewFeedbackComposer(client, zerolog.Nop())

	out := composer.Compose(context.Background(), feedbackRubric(true), singleFileSubmission(), feedbackReport())
	require.Equal(t, FallbackFeedback, out)
}

func TestComposeFallbackWithoutClient(t *testing.T) {
	composer := NewFeedbackComposer(nil, zerolog.Nop())

	out := composer.Compose(context.Background(), feedbackRubric(true), singleFileSubmission(), feedbackReport())
	require.Equal(t, FallbackFeedback, out)
}

func TestComposeSanitizesHTML(t *testing.T) {
	client := &stubClient{responses: map[string]string{
		"Be kind. At most 2 suggestions.": "<script>alert(1)</script>Good effort overall.",
	}}
	composer := NewFeedbackComposer(client, zerolog.Nop())

	out := composer.Compose(context.Background(), feedbackRubric(true), singleFileSubmission(), feedbackReport())
	require.Equal(t, "Good effort overall.", out)
}

func TestComposeFallbackWhenSanitizedEmpty(t *testing.T) {
	client := &stubClient{responses: map[string]string{
		"Be kind. At most 2 suggestions.": "<img src=x>",
	}}
	composer := NewFeedbackComposer(client, zerolog.Nop())

	out := composer.Compose(context.Background(), feedbackRubric(true), singleFileSubmission(), feedbackReport())
	require.Equal(t, FallbackFeedback, out)
}
