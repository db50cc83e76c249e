package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aula-labs/aula-go-api/internal/dto"
	"github.com/aula-labs/aula-go-api/internal/middleware"
	"github.com/aula-labs/aula-go-api/internal/models"
	"github.com/aula-labs/aula-go-api/internal/observability"
	"github.com/aula-labs/aula-go-api/internal/repository"
)

const (
	forumRedisTTL       = 30 * time.Minute
	forumSendBufferSize = 32
)

// ErrForumNotAuthorised indicates the sender attempted to post into a
// classroom room they are not connected to.
var ErrForumNotAuthorised = errors.New("sender not authorised for classroom")

// ForumConnectionOptions wraps metadata extracted during the HTTP upgrade.
// Enrollment is checked at upgrade time; the service trusts ClassroomID.
type ForumConnectionOptions struct {
	UserID        string
	Role          string
	ClassroomID   uint
	CorrelationID string
	Context       context.Context
}

// ForumService manages websocket forum connections and message delivery.
type ForumService interface {
	ServeConnection(conn *websocket.Conn, opts ForumConnectionOptions)
	History(ctx context.Context, query dto.ForumHistoryQuery) ([]dto.ForumMessageResponse, error)
	Start(ctx context.Context)
}

type forumService struct {
	repo        repository.ForumRepository
	redis       *redis.Client
	redisStream string
	redisCache  string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	hub         *forumHub
	nodeID      string
}

// forumHub tracks active websocket clients per classroom room.
type forumHub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*forumClient]struct{}
	log   zerolog.Logger
}

type forumClient struct {
	conn    *websocket.Conn
	send    chan dto.ForumMessageResponse
	options ForumConnectionOptions
	service *forumService
	closed  chan struct{}
	once    sync.Once
	baseCtx context.Context
}

type forumEvent struct {
	Source  string                   `json:"source"`
	Message dto.ForumMessageResponse `json:"message"`
	SentAt  time.Time                `json:"sent_at"`
}

// NewForumService creates a websocket forum service instance.
func NewForumService(repo repository.ForumRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) ForumService {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("br")

	hub := &forumHub{
		rooms: make(map[uint]map[*forumClient]struct{}),
		log:   logger.With().Str("component", "forum_hub").Logger(),
	}

	streamChannel := ""
	cachePrefix := ""
	natsSubject := ""
	if channelBase != "" {
		streamChannel = channelBase + ":forum"
		cachePrefix = channelBase + ":forum:last"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".forum"
	}

	return &forumService{
		repo:        repo,
		redis:       redisClient,
		redisStream: streamChannel,
		redisCache:  cachePrefix,
		nats:        natsConn,
		natsSubject: natsSubject,
		validator:   validate,
		logger:      logger.With().Str("component", "forum_service").Logger(),
		tracer:      otel.Tracer("github.com/aula-labs/aula-go-api/internal/service/forum"),
		sanitizer:   sanitizer,
		hub:         hub,
		nodeID:      uuid.NewString(),
	}
}

func (s *forumService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *forumService) ServeConnection(conn *websocket.Conn, opts ForumConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	client := &forumClient{
		conn:    conn,
		send:    make(chan dto.ForumMessageResponse, forumSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
		baseCtx: baseCtx,
	}

	s.hub.register(client)
	observability.ForumClientsActive().Inc()

	if last := s.fetchLastMessage(baseCtx, opts.ClassroomID); last != nil {
		select {
		case client.send <- *last:
		default:
			s.logger.Debug().Uint("classroom_id", opts.ClassroomID).Msg("dropping cached forum message due to slow consumer")
		}
	}

	go client.writer()
	client.reader()
}

func (s *forumService) History(ctx context.Context, query dto.ForumHistoryQuery) ([]dto.ForumMessageResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	before := time.Time{}
	if query.Before != nil {
		before = *query.Before
	}

	messages, err := s.repo.ListByClassroom(ctx, query.ClassroomID, before, query.Limit)
	if err != nil {
		return nil, err
	}

	return dto.NewForumMessageResponseSlice(messages), nil
}

func (s *forumService) processSend(ctx context.Context, client *forumClient, correlation string, payload dto.ForumSendRequest) (dto.ForumMessageResponse, error) {
	if payload.ClassroomID == 0 {
		payload.ClassroomID = client.options.ClassroomID
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ForumMessageResponse{}, err
	}

	// A connection only speaks for the room it joined.
	if payload.ClassroomID != client.options.ClassroomID {
		return dto.ForumMessageResponse{}, ErrForumNotAuthorised
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if clean == "" {
		return dto.ForumMessageResponse{}, fmt.Errorf("message content empty after sanitization")
	}

	attrs := []attribute.KeyValue{
		attribute.Int("forum.classroom_id", int(payload.ClassroomID)),
		attribute.String("forum.sender_id", client.options.UserID),
	}
	if correlation != "" {
		attrs = append(attrs, attribute.String("correlation_id", correlation))
	}

	spanCtx, span := s.tracer.Start(ctx, "forum.broadcast", trace.WithAttributes(attrs...))
	defer span.End()

	model := models.ForumMessage{
		ClassroomID: payload.ClassroomID,
		SenderID:    client.options.UserID,
		SenderRole:  strings.ToLower(client.options.Role),
		Content:     clean,
	}

	if err := s.repo.Save(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.ForumMessageResponse{}, err
	}

	response := dto.NewForumMessageResponse(model)
	s.cacheLastMessage(spanCtx, response)
	s.broadcast(response)
	if err := s.publish(spanCtx, response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish forum event")
	}

	return response, nil
}

func (s *forumService) cacheLastMessage(ctx context.Context, message dto.ForumMessageResponse) {
	if s.redis == nil || s.redisCache == "" {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal forum message for cache")
		return
	}

	key := fmt.Sprintf("%s:%d", s.redisCache, message.ClassroomID)
	if err := s.redis.Set(ctx, key, payload, forumRedisTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache forum message")
	}
}

func (s *forumService) fetchLastMessage(ctx context.Context, classroomID uint) *dto.ForumMessageResponse {
	if s.redis == nil || s.redisCache == "" {
		return nil
	}

	key := fmt.Sprintf("%s:%d", s.redisCache, classroomID)
	result, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var message dto.ForumMessageResponse
	if err := json.Unmarshal([]byte(result), &message); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached forum message")
		return nil
	}

	return &message
}

func (s *forumService) broadcast(message dto.ForumMessageResponse) {
	s.hub.broadcast(message.ClassroomID, message)
}

func (s *forumService) publish(ctx context.Context, message dto.ForumMessageResponse) error {
	event := forumEvent{
		Source:  s.nodeID,
		Message: message,
		SentAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *forumService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("forum redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *forumService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "aula-forum", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats forum subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain forum nats subscription")
		}
	}()
}

func (s *forumService) handleEvent(data []byte) {
	var event forumEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid forum event")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.broadcast(event.Message)
}

func (h *forumHub) register(client *forumClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := client.options.ClassroomID
	if _, exists := h.rooms[room]; !exists {
		h.rooms[room] = make(map[*forumClient]struct{})
	}
	h.rooms[room][client] = struct{}{}
	h.log.Debug().Uint("classroom_id", room).Str("user_id", client.options.UserID).Msg("forum client connected")
}

func (h *forumHub) unregister(client *forumClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := client.options.ClassroomID
	if clients, ok := h.rooms[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, room)
		}
	}
	h.log.Debug().Uint("classroom_id", room).Str("user_id", client.options.UserID).Msg("forum client disconnected")
}

func (h *forumHub) broadcast(classroomID uint, message dto.ForumMessageResponse) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.rooms[classroomID]
	for client := range clients {
		select {
		case client.send <- message:
		default:
			h.log.Warn().Uint("classroom_id", classroomID).Str("user_id", client.options.UserID).Msg("dropping forum message for slow client")
		}
	}
}

func (c *forumClient) reader() {
	defer c.close()

	connCtx := c.baseCtx
	if connCtx == nil {
		connCtx = context.Background()
	}
	correlation := c.options.CorrelationID
	if correlation == "" {
		correlation = middleware.CorrelationIDFromContext(connCtx)
	}

	for {
		var payload dto.ForumSendRequest
		if err := c.conn.ReadJSON(&payload); err != nil {
			c.service.logger.Debug().Err(err).Msg("forum read loop ended")
			return
		}

		response, err := c.service.processSend(connCtx, c, correlation, payload)
		if err != nil {
			c.service.logger.Warn().Err(err).Msg("failed to process forum message")
			continue
		}

		select {
		case <-c.closed:
			return
		default:
		}

		select {
		case c.send <- response:
		default:
			c.service.logger.Warn().Msg("sender queue full, dropping ack message")
		}
	}
}

func (c *forumClient) writer() {
	defer c.close()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.service.logger.Debug().Err(err).Msg("forum write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("forum ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *forumClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		observability.ForumClientsActive().Dec()
		_ = c.conn.Close()
	})
}

// RoomKey renders the canonical room name for a classroom, used by clients
// subscribing over the upgrade URL.
func RoomKey(classroomID uint) string {
	return "classroom:" + strconv.FormatUint(uint64(classroomID), 10)
}
