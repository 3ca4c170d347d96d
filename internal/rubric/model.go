package rubric

// CriterionType discriminates which evaluation strategy handles a criterion.
type CriterionType string

// Known criterion types.
const (
	CriterionAIReview    CriterionType = "ai_review"
	CriterionOutputMatch CriterionType = "output_match"
)

// Assignment types supported by the engine.
const (
	AssignmentPython     = "python"
	AssignmentJavaScript = "javascript"
	AssignmentGo         = "go"
	AssignmentMicrobit   = "microbit"
)

// Assignment describes the graded assignment as declared in the rubric document.
type Assignment struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	PointsPossible int      `json:"points_possible"`
	Type           string   `json:"type"`
	StudentFiles   []string `json:"student_files"`
}

// Criterion is the smallest scored unit. The Type tag selects the evaluator;
// SystemPrompt is only meaningful for ai_review, Expected and PartialCredit
// only for output_match.
type Criterion struct {
	Description   string        `json:"description"`
	Points        int           `json:"points"`
	Type          CriterionType `json:"type"`
	SystemPrompt  string        `json:"system_prompt,omitempty"`
	Expected      string        `json:"expected,omitempty"`
	PartialCredit bool          `json:"partial_credit,omitempty"`
}

// Category groups criteria under a shared point ceiling.
type Category struct {
	Name     string      `json:"name"`
	Points   int         `json:"points"`
	Criteria []Criterion `json:"criteria"`
}

// FeedbackConfig controls the AI feedback summary appended to the report.
type FeedbackConfig struct {
	Enabled        bool   `json:"enabled"`
	PromptTemplate string `json:"prompt_template"`
	MaxSuggestions int    `json:"max_suggestions"`
}

// Rubric is the validated, immutable grading configuration for one assignment.
// Instances are only produced by Load/Parse and are never mutated afterwards.
type Rubric struct {
	Assignment Assignment     `json:"assignment"`
	Categories []Category     `json:"categories"`
	Feedback   FeedbackConfig `json:"ai_feedback"`
}

// CriterionCount returns the total number of criteria across all categories.
func (r *Rubric) CriterionCount() int {
	total := 0
	for _, category := range r.Categories {
		total += len(category.Criteria)
	}
	return total
}

// allowedCriterionTypes maps an assignment type to the criterion types its
// rubric may use. Types without a sandbox image cannot run output_match.
var allowedCriterionTypes = map[string]map[CriterionType]bool{
	AssignmentPython:     {CriterionAIReview: true, CriterionOutputMatch: true},
	AssignmentJavaScript: {CriterionAIReview: true, CriterionOutputMatch: true},
	AssignmentGo:         {CriterionAIReview: true, CriterionOutputMatch: true},
	AssignmentMicrobit:   {CriterionAIReview: true},
}
