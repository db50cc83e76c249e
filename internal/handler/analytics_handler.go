package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/aula-labs/aula-go-api/internal/service"
	"github.com/aula-labs/aula-go-api/internal/utils"
)

// AnalyticsHandler wires score analytics HTTP routes.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register attaches analytics endpoints. A tags query parameter on the
// classroom endpoint narrows the report to matching assessments.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("/assessments/:assessmentId", h.assessment)
	router.Get("/classrooms/:classroomId", h.classroom)
	router.Get("/classrooms/:classroomId/aggregate", h.aggregate)
}

func (h *AnalyticsHandler) assessment(c *fiber.Ctx) error {
	assessmentID, err := parseUintParam(c, "assessmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.ForAssessment(requestContext(c), assessmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment analytics", report)
}

func (h *AnalyticsHandler) classroom(c *fiber.Ctx) error {
	classroomID, err := parseUintParam(c, "classroomId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := requestContext(c)

	if raw := c.Query("tags"); raw != "" {
		tags := splitAndTrim(raw)
		if len(tags) == 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "tags must not be empty")
		}

		report, err := h.service.ByTag(ctx, classroomID, tags)
		if err != nil {
			return h.handleError(c, err)
		}
		return utils.SendSuccess(c, "classroom analytics", report)
	}

	report, err := h.service.ForClassroom(ctx, classroomID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "classroom analytics", report)
}

func (h *AnalyticsHandler) aggregate(c *fiber.Ctx) error {
	classroomID, err := parseUintParam(c, "classroomId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.Aggregate(requestContext(c), classroomID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "aggregate analytics", report)
}

func (h *AnalyticsHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNoAnalyticsData):
		return utils.SendError(c, fiber.StatusNotFound, "no submissions to analyze")
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "classroom not found")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
