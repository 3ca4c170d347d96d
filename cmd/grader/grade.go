package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/edugrade/codegrader/internal/config"
	"github.com/edugrade/codegrader/internal/grading"
	"github.com/edugrade/codegrader/internal/service"
)

func newGradeCommand() *cobra.Command {
	var (
		rubricPath    string
		submissionDir string
		studentEmail  string
		modelOverride string
	)

	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a submission directory against a rubric",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			// Logs go to stderr so stdout stays clean for the report JSON.
			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

			deps, err := buildDependencies(cfg, logger, modelOverride)
			if err != nil {
				return err
			}
			defer deps.close(logger)

			svc := service.NewGradeService(deps.judgment, deps.executor, deps.sink, logger, service.GradeServiceConfig{
				Sandbox: grading.SandboxConfig{
					Timeout:       cfg.ExecutionTimeout,
					MemoryLimitMB: cfg.SandboxMemoryMB,
					CPUShares:     cfg.SandboxCPUShares,
					WorkspaceRoot: cfg.WorkspaceRoot,
				},
				Concurrency: cfg.Concurrency,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			start := time.Now()
			report, err := svc.GradeDir(ctx, rubricPath, submissionDir, studentEmail)
			if err != nil {
				return err
			}

			return printReport(cmd, report, time.Since(start))
		},
	}

	cmd.Flags().StringVarP(&rubricPath, "config", "c", "autograde_config.json", "path to the rubric configuration")
	cmd.Flags().StringVarP(&submissionDir, "submission-dir", "d", ".", "directory containing the student files")
	cmd.Flags().StringVar(&studentEmail, "student-email", "", "student e-mail for sink delivery")
	cmd.Flags().StringVar(&modelOverride, "model", "", "override the primary judgment model")

	return cmd
}

func printReport(cmd *cobra.Command, report *grading.GradingReport, elapsed time.Duration) error {
	out := map[string]interface{}{
		"grade":           report.PointsEarned,
		"points_possible": report.PointsPossible,
		"feedback":        report.FeedbackText,
		"elapsed_seconds": math.Round(elapsed.Seconds()*100) / 100,
	}
	if report.Partial {
		out["partial"] = true
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	cmd.Println(string(data))
	return nil
}
