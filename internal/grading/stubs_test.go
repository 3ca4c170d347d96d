package grading

import (
	"context"
	"sync"

	"github.com/edugrade/codegrader/internal/rubric"
)

// stubClient scripts judgment responses per system prompt and records calls.
type stubClient struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
	calls     []string
	systems   []string
}

func (s *stubClient) Ask(ctx context.Context, systemPrompt, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, content)
	s.systems = append(s.systems, systemPrompt)
	if s.err != nil {
		return "", s.err
	}
	if response, ok := s.responses[systemPrompt]; ok {
		return response, nil
	}
	return "", nil
}

// stubRunner returns a fixed execution result.
type stubRunner struct {
	result RunResult
	err    error
	runs   int
}

func (s *stubRunner) Run(ctx context.Context, submission *rubric.Submission) (RunResult, error) {
	s.runs++
	return s.result, s.err
}

// stubEvaluator returns a fixed score for every criterion.
type stubEvaluator struct {
	points    float64
	rationale string
	failWith  string
}

func (s *stubEvaluator) Evaluate(ctx context.Context, criterion rubric.Criterion, submission *rubric.Submission) EvaluationResult {
	if s.failWith != "" {
		return degraded(criterion, s.failWith)
	}
	return EvaluationResult{
		Criterion:    criterion,
		PointsEarned: s.points,
		Rationale:    s.rationale,
	}
}

func singleFileSubmission() *rubric.Submission {
	return &rubric.Submission{Files: []rubric.SubmissionFile{
		{Name: "main.py", Content: "print('Hello, World!')\n"},
	}}
}
