package rubric

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validRubricJSON() string {
	return `{
		"assignment": {
			"name": "Turtle Drawing",
			"description": "Draw a square with turtle graphics",
			"points_possible": 100,
			"type": "python",
			"student_files": ["main.py"]
		},
		"rubric": {
			"categories": [
				{
					"name": "Correctness",
					"points": 60,
					"criteria": [
						{
							"description": "Program prints the expected output",
							"points": 20,
							"type": "output_match",
							"expected": "Hello, World!",
							"partial_credit": true
						},
						{
							"description": "Uses a loop to draw the square",
							"points": 40,
							"type": "ai_review",
							"system_prompt": "Award up to 40 points for loop usage. Respond with a number then justification."
						}
					]
				},
				{
					"name": "Style",
					"points": 40,
					"criteria": [
						{
							"description": "Meaningful variable names",
							"points": 40,
							"type": "ai_review",
							"system_prompt": "Award up to 40 points for naming. Respond with a number then justification."
						}
					]
				}
			]
		},
		"ai_feedback": {
			"enabled": true,
			"prompt_template": "Give friendly feedback with at most {{max_suggestions}} suggestions.",
			"max_suggestions": 2
		}
	}`
}

func TestParseValidRubric(t *testing.T) {
	r, err := Parse([]byte(validRubricJSON()))
	require.NoError(t, err)
	require.Equal(t, "Turtle Drawing", r.Assignment.Name)
	require.Equal(t, 100, r.Assignment.PointsPossible)
	require.Len(t, r.Categories, 2)
	require.Equal(t, 3, r.CriterionCount())
	require.Equal(t, CriterionOutputMatch, r.Categories[0].Criteria[0].Type)
	require.True(t, r.Categories[0].Criteria[0].PartialCredit)
	require.Equal(t, 2, r.Feedback.MaxSuggestions)
}

func TestParseIgnoresUnknownTopLevelKeys(t *testing.T) {
	data := `{
		"assignment": {"name": "A", "points_possible": 10, "type": "python", "student_files": ["main.py"]},
		"rubric": {"categories": [{"name": "All", "points": 10, "criteria": [
			{"description": "d", "points": 10, "type": "output_match", "expected": "x"}
		]}]},
		"future_extension": {"anything": true}
	}`
	_, err := Parse([]byte(data))
	require.NoError(t, err)
}

func TestParseRejectsMissingRequiredFields(t *testing.T) {
	data := `{"assignment": {"name": "A", "type": "python"}, "rubric": {"categories": []}}`
	_, err := Parse([]byte(data))
	require.Error(t, err)
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
}

func TestParseRejectsCategorySumMismatch(t *testing.T) {
	data := `{
		"assignment": {"name": "A", "points_possible": 100, "type": "python", "student_files": ["main.py"]},
		"rubric": {"categories": [{"name": "Only", "points": 60, "criteria": [
			{"description": "d", "points": 60, "type": "output_match", "expected": "x"}
		]}]}
	}`
	_, err := Parse([]byte(data))
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Contains(t, configErr.Reason, "60")
	require.Contains(t, configErr.Reason, "100")
}

func TestParseRejectsCriterionSumMismatch(t *testing.T) {
	data := `{
		"assignment": {"name": "A", "points_possible": 50, "type": "python", "student_files": ["main.py"]},
		"rubric": {"categories": [{"name": "Only", "points": 50, "criteria": [
			{"description": "d", "points": 30, "type": "output_match", "expected": "x"}
		]}]}
	}`
	_, err := Parse([]byte(data))
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
}

func TestParseRejectsUnknownCriterionType(t *testing.T) {
	data := `{
		"assignment": {"name": "A", "points_possible": 10, "type": "python", "student_files": ["main.py"]},
		"rubric": {"categories": [{"name": "Only", "points": 10, "criteria": [
			{"description": "d", "points": 10, "type": "regex_match", "expected": "x"}
		]}]}
	}`
	_, err := Parse([]byte(data))
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Contains(t, configErr.Reason, "regex_match")
}

func TestParseRejectsUnknownAssignmentType(t *testing.T) {
	data := `{
		"assignment": {"name": "A", "points_possible": 10, "type": "fortran", "student_files": ["main.f90"]},
		"rubric": {"categories": [{"name": "Only", "points": 10, "criteria": [
			{"description": "d", "points": 10, "type": "output_match", "expected": "x"}
		]}]}
	}`
	_, err := Parse([]byte(data))
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
}

func TestParseRejectsOutputMatchForMicrobit(t *testing.T) {
	data := `{
		"assignment": {"name": "A", "points_possible": 10, "type": "microbit", "student_files": ["main.py"]},
		"rubric": {"categories": [{"name": "Only", "points": 10, "criteria": [
			{"description": "d", "points": 10, "type": "output_match", "expected": "x"}
		]}]}
	}`
	_, err := Parse([]byte(data))
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Contains(t, configErr.Reason, "not valid for this assignment type")
}

func TestParseAllowsAIReviewForMicrobit(t *testing.T) {
	data := `{
		"assignment": {"name": "A", "points_possible": 10, "type": "microbit", "student_files": ["main.py"]},
		"rubric": {"categories": [{"name": "Only", "points": 10, "criteria": [
			{"description": "d", "points": 10, "type": "ai_review", "system_prompt": "judge it"}
		]}]}
	}`
	_, err := Parse([]byte(data))
	require.NoError(t, err)
}

func TestParseRequiresSystemPromptForAIReview(t *testing.T) {
	data := `{
		"assignment": {"name": "A", "points_possible": 10, "type": "python", "student_files": ["main.py"]},
		"rubric": {"categories": [{"name": "Only", "points": 10, "criteria": [
			{"description": "d", "points": 10, "type": "ai_review"}
		]}]}
	}`
	_, err := Parse([]byte(data))
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Contains(t, configErr.Reason, "system_prompt")
}

func TestParseRequiresExpectedForOutputMatch(t *testing.T) {
	data := `{
		"assignment": {"name": "A", "points_possible": 10, "type": "python", "student_files": ["main.py"]},
		"rubric": {"categories": [{"name": "Only", "points": 10, "criteria": [
			{"description": "d", "points": 10, "type": "output_match"}
		]}]}
	}`
	_, err := Parse([]byte(data))
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Contains(t, configErr.Reason, "expected")
}

func TestParseDefaultsMaxSuggestions(t *testing.T) {
	data := `{
		"assignment": {"name": "A", "points_possible": 10, "type": "python", "student_files": ["main.py"]},
		"rubric": {"categories": [{"name": "Only", "points": 10, "criteria": [
			{"description": "d", "points": 10, "type": "output_match", "expected": "x"}
		]}]},
		"ai_feedback": {"enabled": true}
	}`
	r, err := Parse([]byte(data))
	require.NoError(t, err)
	require.Equal(t, defaultMaxSuggestions, r.Feedback.MaxSuggestions)
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
}
