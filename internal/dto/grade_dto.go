package dto

import (
	"encoding/json"
	"time"

	"github.com/edugrade/codegrader/internal/grading"
	"github.com/edugrade/codegrader/internal/rubric"
)

// SubmissionFilePayload is one inline source file in a grade request.
type SubmissionFilePayload struct {
	Name    string `json:"name" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// GradeRequest asks the engine to grade inline files against an inline rubric.
type GradeRequest struct {
	Rubric       json.RawMessage         `json:"rubric" validate:"required"`
	Files        []SubmissionFilePayload `json:"files" validate:"required,min=1,dive"`
	StudentEmail string                  `json:"student_email" validate:"omitempty,email"`
}

// SubmissionFiles converts the payload into the engine's submission files.
func (r GradeRequest) SubmissionFiles() []rubric.SubmissionFile {
	files := make([]rubric.SubmissionFile, 0, len(r.Files))
	for _, file := range r.Files {
		files = append(files, rubric.SubmissionFile{Name: file.Name, Content: file.Content})
	}
	return files
}

// CriterionResultResponse is the per-criterion slice of a grade response.
type CriterionResultResponse struct {
	Description    string  `json:"description"`
	Type           string  `json:"type"`
	PointsEarned   float64 `json:"points_earned"`
	PointsPossible int     `json:"points_possible"`
	Rationale      string  `json:"rationale"`
	EvaluatorError string  `json:"evaluator_error,omitempty"`
}

// CategoryResponse is the per-category breakdown of a grade response.
type CategoryResponse struct {
	Name           string                    `json:"name"`
	PointsEarned   float64                   `json:"points_earned"`
	PointsPossible int                       `json:"points_possible"`
	Results        []CriterionResultResponse `json:"results"`
}

// GradeResponse is the API shape of a grading report.
type GradeResponse struct {
	RunID          string             `json:"run_id"`
	AssignmentName string             `json:"assignment_name"`
	PointsEarned   int                `json:"points_earned"`
	PointsPossible int                `json:"points_possible"`
	Categories     []CategoryResponse `json:"categories"`
	Feedback       string             `json:"feedback"`
	GeneratedAt    time.Time          `json:"generated_at"`
	Partial        bool               `json:"partial,omitempty"`
}

// NewGradeResponse maps a grading report into its API representation.
func NewGradeResponse(report *grading.GradingReport) GradeResponse {
	categories := make([]CategoryResponse, 0, len(report.Categories))
	for _, category := range report.Categories {
		results := make([]CriterionResultResponse, 0, len(category.Results))
		for _, result := range category.Results {
			results = append(results, CriterionResultResponse{
				Description:    result.Criterion.Description,
				Type:           string(result.Criterion.Type),
				PointsEarned:   result.PointsEarned,
				PointsPossible: result.Criterion.Points,
				Rationale:      result.Rationale,
				EvaluatorError: result.EvaluatorError,
			})
		}
		categories = append(categories, CategoryResponse{
			Name:           category.Name,
			PointsEarned:   category.PointsEarned,
			PointsPossible: category.PointsPossible,
			Results:        results,
		})
	}

	return GradeResponse{
		RunID:          report.RunID,
		AssignmentName: report.AssignmentName,
		PointsEarned:   report.PointsEarned,
		PointsPossible: report.PointsPossible,
		Categories:     categories,
		Feedback:       report.FeedbackText,
		GeneratedAt:    report.GeneratedAt,
		Partial:        report.Partial,
	}
}
