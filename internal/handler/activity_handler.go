package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/atlas-lms/atlas-api/internal/repository"
	"github.com/atlas-lms/atlas-api/internal/service"
	"github.com/atlas-lms/atlas-api/internal/utils"
)

// ActivityHandler exposes the audit trail to staff.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the activity endpoint to the router group.
func (h *ActivityHandler) Register(router fiber.Router, manage fiber.Handler) {
	router.Get("/activity", manage, h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	filter := repository.ActivityLogFilter{
		Page:       c.QueryInt("page", 1),
		PageSize:   c.QueryInt("page_size", 20),
		Action:     strings.TrimSpace(c.Query("action")),
		EntityType: strings.TrimSpace(c.Query("entity_type")),
	}

	actorID, err := parseQueryUint(c, "actor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	filter.ActorID = actorID

	result, err := h.service.List(c.Context(), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccessWithMeta(c, "activity retrieved", result.Items, fiber.Map{"total": result.Total})
}
