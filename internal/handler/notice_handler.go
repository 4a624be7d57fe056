package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classworks/lms-api/internal/dto"
	"github.com/classworks/lms-api/internal/service"
	"github.com/classworks/lms-api/internal/utils"
)

// NoticeHandler wires course notice HTTP routes.
type NoticeHandler struct {
	service service.NoticeService
	logger  zerolog.Logger
}

// NewNoticeHandler constructs the handler.
func NewNoticeHandler(service service.NoticeService, logger zerolog.Logger) *NoticeHandler {
	return &NoticeHandler{
		service: service,
		logger:  logger.With().Str("component", "notice_handler").Logger(),
	}
}

// Register attaches notice endpoints to the router group.
func (h *NoticeHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *NoticeHandler) list(c *fiber.Ctx) error {
	courseID, err := parseQueryUint(c, "course_id")
	if err != nil || courseID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "course_id is required")
	}

	notices, err := h.service.ListByCourse(c.Context(), actorFromContext(c), courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "notices retrieved", notices)
}

func (h *NoticeHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	notice, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "notice retrieved", notice)
}

func (h *NoticeHandler) create(c *fiber.Ctx) error {
	payload := dto.NoticeCreateRequest{
		Title:       c.FormValue("title"),
		Body:        c.FormValue("body"),
		ExternalURL: c.FormValue("external_url"),
	}
	if courseID, err := strconv.ParseUint(c.FormValue("course_id"), 10, 64); err == nil {
		payload.CourseID = uint(courseID)
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	notice, err := h.service.Create(c.Context(), actorFromContext(c), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "notice posted", notice)
}

func (h *NoticeHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.NoticeUpdateRequest{}
	if title := c.FormValue("title"); title != "" {
		payload.Title = &title
	}
	if body := c.FormValue("body"); body != "" {
		payload.Body = &body
	}
	if url := c.FormValue("external_url"); url != "" {
		payload.ExternalURL = &url
	}

	notice, err := h.service.Update(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "notice updated", notice)
}

func (h *NoticeHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "notice deleted", fiber.Map{"id": id})
}

func (h *NoticeHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNoticeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "notice not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrUnsupportedFileType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
