package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/edugrade/codegrader/internal/config"
	"github.com/edugrade/codegrader/internal/handler"
	"github.com/edugrade/codegrader/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradeHandler  *handler.GradeHandler
	JWTMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.GradeHandler != nil {
		gradeGroup := api.Group("/grade", jwtMiddleware)
		deps.GradeHandler.Register(gradeGroup)
	}
}
