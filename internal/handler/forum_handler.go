package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/service"
	"github.com/aula-labs/aula-go-api/internal/utils"
)

// ForumHandler wires classroom forum endpoints including the websocket upgrade.
type ForumHandler struct {
	service   service.ForumService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewForumHandler creates a forum handler instance.
func NewForumHandler(service service.ForumService, validator *validator.Validate, logger zerolog.Logger) *ForumHandler {
	return &ForumHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "forum_handler").Logger(),
	}
}

// Register binds forum routes under the provided router group.
func (h *ForumHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
	router.Get("/history", h.history)
}

func (h *ForumHandler) handleConnection(conn *websocket.Conn) {
	userID := websocketUserID(conn)
	if userID == "" {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "user id missing"))
		_ = conn.Close()
		return
	}

	classroomID, err := websocketClassroomID(conn)
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusBadRequest, "classroom_id required"))
		_ = conn.Close()
		return
	}

	role := fmt.Sprint(conn.Locals("user_role"))
	correlation := fmt.Sprint(conn.Locals("correlation_id"))
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.ForumConnectionOptions{
		UserID:        userID,
		Role:          role,
		ClassroomID:   classroomID,
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	room := service.RoomKey(classroomID)
	h.logger.Info().Str("user_id", userID).Str("room", room).Msg("forum websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Str("user_id", userID).Str("room", room).Msg("forum websocket disconnected")
}

func (h *ForumHandler) history(c *fiber.Ctx) error {
	classroomID, err := parseQueryUint(c, "classroom_id")
	if err != nil || classroomID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "classroom_id required")
	}

	var beforePtr *time.Time
	if before := c.Query("before"); before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid before timestamp")
		}
		beforePtr = &parsed
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	query := dto.ForumHistoryQuery{
		ClassroomID: classroomID,
		Before:      beforePtr,
		Limit:       limit,
	}

	if err := h.validator.Struct(query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	messages, err := h.service.History(requestContext(c), query)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "forum history", messages)
}

func websocketUserID(conn *websocket.Conn) string {
	if value := conn.Locals("user_id"); value != nil {
		switch v := value.(type) {
		case float64:
			return fmt.Sprintf("%d", uint(v))
		case uint:
			return fmt.Sprintf("%d", v)
		case int:
			return fmt.Sprintf("%d", v)
		case string:
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func websocketClassroomID(conn *websocket.Conn) (uint, error) {
	raw := strings.TrimSpace(conn.Query("classroom_id"))
	if raw == "" {
		return 0, fmt.Errorf("classroom_id required")
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid classroom_id")
	}
	return uint(parsed), nil
}
