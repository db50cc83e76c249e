package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicDefaultModel   = "claude-3-5-sonnet-latest"
	anthropicAPIVersion     = "2023-06-01"
)

// AnthropicConfig defines configuration options for the Anthropic planner.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
	Logger    zerolog.Logger
}

// AnthropicPlanner implements Planner against the Anthropic Messages API.
// The API has no official Go SDK, so the client speaks HTTP directly.
type AnthropicPlanner struct {
	httpClient *http.Client
	cfg        AnthropicConfig
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewAnthropicPlanner builds a new planner using the provided configuration.
func NewAnthropicPlanner(cfg AnthropicConfig) (*AnthropicPlanner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = anthropicDefaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropicDefaultBaseURL
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &AnthropicPlanner{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		cfg:        cfg,
		tracer:     otel.Tracer("github.com/aula-labs/aula-go-api/pkg/ai/anthropic"),
		logger:     logger,
	}, nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// GeneratePlan sends the planning request to the Messages API and parses the
// response.
func (p *AnthropicPlanner) GeneratePlan(parent context.Context, input PlanInput) (Plan, error) {
	ctx, span := p.tracer.Start(parent, "anthropic.generate_plan", trace.WithAttributes(
		attribute.String("model", p.cfg.Model),
	))
	defer span.End()

	body, err := json.Marshal(anthropicRequest{
		Model:     p.cfg.Model,
		MaxTokens: p.cfg.MaxTokens,
		System:    plannerSystemPrompt(),
		Messages: []anthropicMessage{
			{Role: "user", Content: buildPlanPrompt(input)},
		},
	})
	if err != nil {
		return Plan{}, fmt.Errorf("anthropic encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return Plan{}, fmt.Errorf("anthropic build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-api-key", p.cfg.APIKey)
	request.Header.Set("anthropic-version", anthropicAPIVersion)

	start := time.Now()
	response, err := p.httpClient.Do(request)
	duration := time.Since(start)
	aiDuration.WithLabelValues(p.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		aiFailures.WithLabelValues(p.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Plan{}, fmt.Errorf("anthropic generate plan: %w", err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		aiFailures.WithLabelValues(p.cfg.Model).Inc()
		span.RecordError(err)
		return Plan{}, fmt.Errorf("anthropic read response: %w", err)
	}

	var decoded anthropicResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		aiFailures.WithLabelValues(p.cfg.Model).Inc()
		span.RecordError(err)
		return Plan{}, fmt.Errorf("anthropic decode response: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		message := response.Status
		if decoded.Error != nil {
			message = decoded.Error.Message
		}
		err := fmt.Errorf("anthropic api error: %s", message)
		aiFailures.WithLabelValues(p.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Plan{}, err
	}

	var text strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	plan, err := parsePlanResponse(strings.TrimSpace(text.String()))
	if err != nil {
		aiFailures.WithLabelValues(p.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Plan{}, err
	}

	plan.Raw = map[string]interface{}{
		"usage":       decoded.Usage,
		"stop_reason": decoded.StopReason,
	}

	return plan, nil
}
