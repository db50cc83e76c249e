package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/service"
	"github.com/aula-labs/aula-go-api/internal/utils"
)

// LearningPathHandler wires AI study plan HTTP routes.
type LearningPathHandler struct {
	service   service.LearningPathService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewLearningPathHandler constructs the handler.
func NewLearningPathHandler(service service.LearningPathService, validator *validator.Validate, logger zerolog.Logger) *LearningPathHandler {
	return &LearningPathHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "learning_path_handler").Logger(),
	}
}

// Register attaches learning path endpoints to the router group.
func (h *LearningPathHandler) Register(router fiber.Router) {
	router.Post("", h.generate)
	router.Get("/student/:studentId", h.listByStudent)
	router.Get("/:id", h.get)
	router.Patch("/:pathId/tasks/:taskId", h.updateTask)
	router.Delete("/:id", h.delete)
}

func (h *LearningPathHandler) generate(c *fiber.Ctx) error {
	var payload dto.LearningPathCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	path, err := h.service.Generate(requestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("student_id", payload.StudentID).
		Uint("path_id", path.ID).
		Msg("learning path generated")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "learning path generated", path)
}

func (h *LearningPathHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	path, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "learning path retrieved", path)
}

func (h *LearningPathHandler) listByStudent(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	paths, err := h.service.ListByStudent(requestContext(c), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "learning paths retrieved", paths)
}

func (h *LearningPathHandler) updateTask(c *fiber.Ctx) error {
	pathID, err := parseUintParam(c, "pathId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PathTaskUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	path, err := h.service.SetTaskCompletion(requestContext(c), pathID, taskID, payload.IsCompleted)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "task updated", path)
}

func (h *LearningPathHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "learning path deleted", fiber.Map{"id": id})
}

func (h *LearningPathHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrLearningPathNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "learning path not found")
	case errors.Is(err, service.ErrPathTaskNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrPlannerUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "plan generation is unavailable")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
