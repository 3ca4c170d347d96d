package grading

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/edugrade/codegrader/internal/rubric"
	dockerexec "github.com/edugrade/codegrader/pkg/docker"
)

// sandboxSpec describes how submissions of one assignment type are executed.
// The primary student file is appended to the command.
type sandboxSpec struct {
	Image   string
	Command []string
}

// Assignment types without an entry here (microbit) cannot run output_match
// criteria; the rubric loader rejects such rubrics up front.
var sandboxSpecs = map[string]sandboxSpec{
	rubric.AssignmentPython:     {Image: "python:3.11-alpine", Command: []string{"python"}},
	rubric.AssignmentJavaScript: {Image: "node:20-alpine", Command: []string{"node"}},
	rubric.AssignmentGo:         {Image: "golang:1.22-alpine", Command: []string{"go", "run"}},
}

// SandboxConfig groups per-run resource limits for submission execution.
type SandboxConfig struct {
	Timeout       time.Duration
	MemoryLimitMB int
	CPUShares     int
	WorkspaceRoot string
}

// SandboxRunner implements Runner by staging the submission files into a
// temporary workspace and executing them inside a container. The workspace
// is removed on every exit path.
type SandboxRunner struct {
	executor dockerexec.Executor
	spec     sandboxSpec
	cfg      SandboxConfig
	logger   zerolog.Logger
}

// NewSandboxRunner builds a runner for the given assignment type. It fails
// when the type has no sandbox image.
func NewSandboxRunner(executor dockerexec.Executor, assignmentType string, cfg SandboxConfig, logger zerolog.Logger) (*SandboxRunner, error) {
	spec, ok := sandboxSpecs[assignmentType]
	if !ok {
		return nil, fmt.Errorf("no sandbox for assignment type %q", assignmentType)
	}

	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = os.TempDir()
	}

	return &SandboxRunner{
		executor: executor,
		spec:     spec,
		cfg:      cfg,
		logger:   logger.With().Str("component", "sandbox_runner").Logger(),
	}, nil
}

// Run stages the submission into a fresh workspace and executes its primary
// file in the sandbox.
func (r *SandboxRunner) Run(ctx context.Context, submission *rubric.Submission) (RunResult, error) {
	workspace, err := os.MkdirTemp(r.cfg.WorkspaceRoot, "submission-")
	if err != nil {
		return RunResult{}, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	for _, file := range submission.Files {
		path := filepath.Join(workspace, filepath.Base(file.Name))
		if err := os.WriteFile(path, []byte(file.Content), 0600); err != nil {
			return RunResult{}, fmt.Errorf("write %s: %w", file.Name, err)
		}
	}

	cmd := append(append([]string{}, r.spec.Command...), filepath.Base(submission.Primary().Name))

	result, err := r.executor.Run(ctx, dockerexec.ExecutionRequest{
		Image:         r.spec.Image,
		Cmd:           cmd,
		Timeout:       r.cfg.Timeout,
		Workspace:     workspace,
		WorkingDir:    "/workspace",
		MemoryLimitMB: int64(r.cfg.MemoryLimitMB),
		CPUShares:     int64(r.cfg.CPUShares),
	})

	runResult := RunResult{
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		ExitCode: result.ExitCode,
		TimedOut: result.TimedOut,
	}

	if result.TimedOut {
		// Timeout is reported through RunResult so the evaluator can degrade
		// the criterion with a precise reason.
		return runResult, nil
	}

	return runResult, err
}
