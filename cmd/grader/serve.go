package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/edugrade/codegrader/internal/config"
	"github.com/edugrade/codegrader/internal/grading"
	"github.com/edugrade/codegrader/internal/handler"
	"github.com/edugrade/codegrader/internal/middleware"
	"github.com/edugrade/codegrader/internal/router"
	"github.com/edugrade/codegrader/internal/service"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the grading engine as an HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

			deps, err := buildDependencies(cfg, logger, "")
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

			validate := validator.New(validator.WithRequiredStructEnabled())
			gradeHandler := handler.NewGradeHandler(svc, validate, logger)

			app := fiber.New(fiber.Config{
				AppName:      cfg.AppName,
				ServerHeader: cfg.AppName,
			})

			middleware.Register(app)

			var jwtMiddleware fiber.Handler
			if cfg.JWTSecret != "" {
				jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
			} else {
				logger.Warn().Msg("no jwt secret configured, grade endpoint is unauthenticated")
			}

			router.Register(app, cfg, router.Dependencies{
				GradeHandler:  gradeHandler,
				JWTMiddleware: jwtMiddleware,
			})

			errCh := make(chan error, 1)
			go func() {
				errCh <- app.Listen(cfg.HTTPAddress())
			}()

			shutdownCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return err
			case <-shutdownCtx.Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := app.ShutdownWithContext(ctx); err != nil {
				logger.Error().Err(err).Msg("graceful shutdown failed")
			}

			logger.Info().Msg("server stopped")
			return nil
		},
	}
}
