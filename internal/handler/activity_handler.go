package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classworks/lms-api/internal/repository"
	"github.com/classworks/lms-api/internal/service"
	"github.com/classworks/lms-api/internal/utils"
)

// ActivityHandler exposes the admin audit trail.
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

// Register attaches activity endpoints to the router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	filter := repository.ActivityLogFilter{
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
	if page, err := strconv.Atoi(c.Query("page", "1")); err == nil {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.Query("page_size", "20")); err == nil {
		filter.PageSize = pageSize
	}
	if actorID, err := parseQueryUint(c, "actor_id"); err == nil && actorID > 0 {
		filter.ActorID = &actorID
	}

	entries, total, err := h.service.List(c.Context(), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "activity retrieved", fiber.Map{
		"items": entries,
		"total": total,
	})
}
