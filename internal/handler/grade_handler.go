package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edugrade/codegrader/internal/dto"
	"github.com/edugrade/codegrader/internal/rubric"
	"github.com/edugrade/codegrader/internal/service"
	"github.com/edugrade/codegrader/internal/utils"
)

// GradeHandler exposes the grading pipeline over HTTP.
type GradeHandler struct {
	service   service.GradeService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(service service.GradeService, validator *validator.Validate, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "grade_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group.
func (h *GradeHandler) Register(router fiber.Router) {
	router.Post("", h.grade)
}

func (h *GradeHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.GradeInline(c.Context(), payload.Rubric, payload.SubmissionFiles(), payload.StudentEmail)
	if err != nil {
		var configErr *rubric.ConfigError
		if errors.As(err, &configErr) {
			return utils.SendError(c, fiber.StatusBadRequest, configErr.Error())
		}
		h.logger.Error().Err(err).Msg("grading failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "grading failed")
	}

	return utils.SendSuccess(c, "grading complete", dto.NewGradeResponse(report))
}
