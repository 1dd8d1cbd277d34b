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

// CourseGradeHandler wires the standalone grade ledger routes under courses.
type CourseGradeHandler struct {
	service service.CourseGradeService
	logger  zerolog.Logger
}

// NewCourseGradeHandler constructs the handler.
func NewCourseGradeHandler(service service.CourseGradeService, logger zerolog.Logger) *CourseGradeHandler {
	return &CourseGradeHandler{
		service: service,
		logger:  logger.With().Str("component", "course_grade_handler").Logger(),
	}
}

// Register attaches grade ledger endpoints to the courses group.
func (h *CourseGradeHandler) Register(router fiber.Router, grade fiber.Handler) {
	router.Post("/:id/grades", grade, h.upsert)
	router.Get("/:id/grades", grade, h.list)
}

func (h *CourseGradeHandler) upsert(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CourseGradeUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	grade, err := h.service.Upsert(c.Context(), courseID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grade recorded", grade)
}

func (h *CourseGradeHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	grades, err := h.service.ListForCourse(c.Context(), courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithMeta(c, "grades retrieved", grades, fiber.Map{"total": len(grades)})
}

func (h *CourseGradeHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
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
