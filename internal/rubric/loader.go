package rubric

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("rubric-schema.json", schemaJSON)

// defaultMaxSuggestions bounds the feedback summary when the rubric does not
// configure its own limit.
const defaultMaxSuggestions = 3

type criterionDocument struct {
	Description   string  `json:"description"`
	Points        int     `json:"points"`
	Type          string  `json:"type"`
	SystemPrompt  *string `json:"system_prompt"`
	Expected      *string `json:"expected"`
	PartialCredit bool    `json:"partial_credit"`
}

type categoryDocument struct {
	Name     string              `json:"name"`
	Points   int                 `json:"points"`
	Criteria []criterionDocument `json:"criteria"`
}

type document struct {
	Assignment Assignment `json:"assignment"`
	Rubric     struct {
		Categories []categoryDocument `json:"categories"`
	} `json:"rubric"`
	Feedback FeedbackConfig `json:"ai_feedback"`
}

// Load reads and validates a rubric document from disk.
func Load(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configErrorf("", "read %s: %v", path, err)
	}
	return Parse(data)
}

// Parse validates a rubric document and builds the immutable rubric tree.
// Validation is all-or-nothing: no partial rubric is ever returned, because a
// silently-wrong rubric corrupts every downstream score.
func Parse(data []byte) (*Rubric, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, configErrorf("", "invalid json: %v", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, configErrorf("", "schema validation failed: %v", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, configErrorf("", "decode: %v", err)
	}

	allowed, ok := allowedCriterionTypes[doc.Assignment.Type]
	if !ok {
		return nil, configErrorf("assignment.type", "unknown assignment type %q", doc.Assignment.Type)
	}

	rubric := &Rubric{
		Assignment: doc.Assignment,
		Categories: make([]Category, 0, len(doc.Rubric.Categories)),
		Feedback:   doc.Feedback,
	}

	categoryTotal := 0
	for i, categoryDoc := range doc.Rubric.Categories {
		category, err := buildCategory(categoryDoc, i, allowed)
		if err != nil {
			return nil, err
		}
		categoryTotal += category.Points
		rubric.Categories = append(rubric.Categories, category)
	}

	if categoryTotal != doc.Assignment.PointsPossible {
		return nil, configErrorf("rubric.categories",
			"category points sum to %d but assignment declares %d possible",
			categoryTotal, doc.Assignment.PointsPossible)
	}

	if rubric.Feedback.Enabled && rubric.Feedback.MaxSuggestions <= 0 {
		rubric.Feedback.MaxSuggestions = defaultMaxSuggestions
	}

	return rubric, nil
}

func buildCategory(doc categoryDocument, index int, allowed map[CriterionType]bool) (Category, error) {
	field := fmt.Sprintf("rubric.categories[%d]", index)

	category := Category{
		Name:     doc.Name,
		Points:   doc.Points,
		Criteria: make([]Criterion, 0, len(doc.Criteria)),
	}

	criterionTotal := 0
	for j, criterionDoc := range doc.Criteria {
		criterion, err := buildCriterion(criterionDoc, fmt.Sprintf("%s.criteria[%d]", field, j), allowed)
		if err != nil {
			return Category{}, err
		}
		criterionTotal += criterion.Points
		category.Criteria = append(category.Criteria, criterion)
	}

	if criterionTotal != doc.Points {
		return Category{}, configErrorf(field,
			"criterion points sum to %d but category %q declares %d",
			criterionTotal, doc.Name, doc.Points)
	}

	return category, nil
}

func buildCriterion(doc criterionDocument, field string, allowed map[CriterionType]bool) (Criterion, error) {
	criterionType := CriterionType(doc.Type)

	switch criterionType {
	case CriterionAIReview:
		if doc.SystemPrompt == nil || *doc.SystemPrompt == "" {
			return Criterion{}, configErrorf(field, "ai_review criterion requires a system_prompt")
		}
	case CriterionOutputMatch:
		if doc.Expected == nil {
			return Criterion{}, configErrorf(field, "output_match criterion requires an expected output")
		}
	default:
		// Unknown tags are a configuration error, never a silent zero score.
		return Criterion{}, configErrorf(field, "unknown criterion type %q", doc.Type)
	}

	if !allowed[criterionType] {
		return Criterion{}, configErrorf(field, "criterion type %q is not valid for this assignment type", doc.Type)
	}

	criterion := Criterion{
		Description:   doc.Description,
		Points:        doc.Points,
		Type:          criterionType,
		PartialCredit: doc.PartialCredit,
	}
	if doc.SystemPrompt != nil {
		criterion.SystemPrompt = *doc.SystemPrompt
	}
	if doc.Expected != nil {
		criterion.Expected = *doc.Expected
	}

	return criterion, nil
}
