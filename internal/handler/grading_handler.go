package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/atlas-lms/atlas-api/internal/dto"
	"github.com/atlas-lms/atlas-api/internal/service"
	"github.com/atlas-lms/atlas-api/internal/utils"
)

// GradingHandler wires grading HTTP routes addressed by submission id.
type GradingHandler struct {
	grading     service.GradingService
	submissions service.SubmissionService
	logger      zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(grading service.GradingService, submissions service.SubmissionService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading:     grading,
		submissions: submissions,
		logger:      logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the submissions group.
func (h *GradingHandler) Register(router fiber.Router, grade fiber.Handler) {
	router.Post("/:id/grade", grade, h.grade)
	router.Get("/:id", grade, h.get)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.grading.GradeSubmission(c.Context(), submissionID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *GradingHandler) get(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.submissions.GetByID(c.Context(), submissionID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, "student is not enrolled in this course")
	case errors.Is(err, service.ErrInvalidGrade):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "grade is out of range")
	case errors.As(err, &validationErrors):
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "validation failed", validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
