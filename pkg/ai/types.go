package ai

import (
	"context"
	"errors"
	"fmt"
)

var (
	errMissingAPIKey = errors.New("api key is required")
	errNoChoices     = errors.New("no choices returned")
)

// Client is the judgment capability used by the grading engine: it sends a
// judging prompt plus submission text to a reasoning service and returns the
// raw text verdict.
type Client interface {
	Ask(ctx context.Context, systemPrompt, content string) (string, error)
}

// ServiceError wraps a judgment service failure (network, auth, rate limit).
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("judgment service: %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
