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

// MaterialHandler wires study material HTTP routes.
type MaterialHandler struct {
	service service.MaterialService
	logger  zerolog.Logger
}

// NewMaterialHandler constructs the handler.
func NewMaterialHandler(service service.MaterialService, logger zerolog.Logger) *MaterialHandler {
	return &MaterialHandler{
		service: service,
		logger:  logger.With().Str("component", "material_handler").Logger(),
	}
}

// Register attaches material endpoints to the router group.
func (h *MaterialHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *MaterialHandler) list(c *fiber.Ctx) error {
	courseID, err := parseQueryUint(c, "course_id")
	if err != nil || courseID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "course_id is required")
	}

	materials, err := h.service.ListByCourse(c.Context(), actorFromContext(c), courseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "materials retrieved", materials)
}

func (h *MaterialHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	material, err := h.service.Get(c.Context(), actorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "material retrieved", material)
}

func (h *MaterialHandler) create(c *fiber.Ctx) error {
	payload := dto.MaterialCreateRequest{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		ExternalURL: c.FormValue("external_url"),
	}
	if courseID, err := strconv.ParseUint(c.FormValue("course_id"), 10, 64); err == nil {
		payload.CourseID = uint(courseID)
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	material, err := h.service.Create(c.Context(), actorFromContext(c), payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "material published", material)
}

func (h *MaterialHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.MaterialUpdateRequest{}
	if title := c.FormValue("title"); title != "" {
		payload.Title = &title
	}
	if description := c.FormValue("description"); description != "" {
		payload.Description = &description
	}
	if url := c.FormValue("external_url"); url != "" {
		payload.ExternalURL = &url
	}

	material, err := h.service.Update(c.Context(), actorFromContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "material updated", material)
}

func (h *MaterialHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), actorFromContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "material deleted", fiber.Map{"id": id})
}

func (h *MaterialHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrMaterialNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "material not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrMaterialContentMissing):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
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
