package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/atlas-lms/atlas-api/internal/dto"
	"github.com/atlas-lms/atlas-api/internal/middleware"
	"github.com/atlas-lms/atlas-api/internal/service"
	"github.com/atlas-lms/atlas-api/internal/utils"
)

// SubmissionHandler wires submission HTTP routes underneath assignments.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the assignments group.
func (h *SubmissionHandler) Register(router fiber.Router, submit, limit, grade fiber.Handler) {
	router.Post("/:id/submissions", submit, limit, h.submit)
	router.Get("/:id/submissions/me", h.current)
	router.Get("/:id/submissions", grade, h.listForAssignment)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	actor := activityActorFromContext(c)
	studentID := actor.ID
	if payload.StudentID != nil && *payload.StudentID != actor.ID {
		if !middleware.HasCapability(actor.Role, middleware.CapabilityManage) {
			return utils.SendError(c, fiber.StatusForbidden, "cannot submit on behalf of another student")
		}
		studentID = *payload.StudentID
	}

	if studentID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "student could not be determined")
	}

	submission, err := h.service.Submit(c.Context(), assignmentID, studentID, payload, actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission recorded", submission)
}

func (h *SubmissionHandler) current(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID := userIDFromContext(c)
	requested, err := parseQueryUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if requested != nil {
		if *requested != studentID && !middleware.HasCapability(userRoleFromContext(c), middleware.CapabilityGrade) {
			return utils.SendError(c, fiber.StatusForbidden, "cannot view another student's submission")
		}
		studentID = *requested
	}

	result, err := h.service.GetCurrent(c.Context(), assignmentID, studentID)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", result)
}

func (h *SubmissionHandler) listForAssignment(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListForAssignment(c.Context(), assignmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithMeta(c, "submissions retrieved", submissions, fiber.Map{"total": len(submissions)})
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, "student is not enrolled in this course")
	case errors.Is(err, service.ErrAssignmentUnpublished):
		return utils.SendError(c, fiber.StatusForbidden, "assignment is not open for submissions")
	case errors.Is(err, service.ErrSubmissionClosed):
		return utils.SendError(c, fiber.StatusForbidden, "submissions are closed for this assignment")
	case errors.Is(err, service.ErrAttemptLimitExceeded):
		return utils.SendError(c, fiber.StatusConflict, "attempt limit reached")
	case errors.Is(err, service.ErrSubmissionConflict):
		return utils.SendError(c, fiber.StatusConflict, "submission conflict, please retry")
	case errors.Is(err, service.ErrInvalidSubmissionPayload):
		return utils.SendError(c, fiber.StatusBadRequest, "submission content does not match the assignment type")
	case errors.As(err, &validationErrors):
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "validation failed", validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
