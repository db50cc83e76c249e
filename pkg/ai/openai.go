package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aula",
		Subsystem: "ai",
		Name:      "plan_duration_seconds",
		Help:      "Duration of AI plan generation requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aula",
		Subsystem: "ai",
		Name:      "plan_failures_total",
		Help:      "Number of AI plan generation failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI planner.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIPlanner implements Planner against the OpenAI chat completion API.
type OpenAIPlanner struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIPlanner builds a new planner using the provided configuration.
func NewOpenAIPlanner(cfg OpenAIConfig) (*OpenAIPlanner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	tracer := otel.Tracer("github.com/aula-labs/aula-go-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIPlanner{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// GeneratePlan sends the planning request to OpenAI and parses the response.
func (p *OpenAIPlanner) GeneratePlan(parent context.Context, input PlanInput) (Plan, error) {
	ctx, span := p.tracer.Start(parent, "openai.generate_plan", trace.WithAttributes(
		attribute.String("model", p.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: plannerSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPlanPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := p.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	aiDuration.WithLabelValues(p.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		aiFailures.WithLabelValues(p.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Plan{}, fmt.Errorf("openai generate plan: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(p.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Plan{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	plan, err := parsePlanResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(p.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Plan{}, err
	}

	plan.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return plan, nil
}

func plannerSystemPrompt() string {
	return "You are a study planner for university students. Respond with a JSON object containing title and tasks. Each task ha" +
		"s title, description, category (PREREQUISITE, WEEK or RESOURCE), and for WEEK tasks week_number, day_range and week_title" +
		". Order tasks: prerequisites first, then weeks in sequence, then resources."
}

func buildPlanPrompt(input PlanInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Goal\n")
	builder.WriteString(input.Goal)
	if input.Deadline != nil {
		builder.WriteString("\n\n## Deadline\n")
		builder.WriteString(input.Deadline.Format("2006-01-02"))
	}
	if len(input.PriorPaths) > 0 {
		builder.WriteString("\n\n## Already planned\n")
		builder.WriteString(strings.Join(input.PriorPaths, "\n"))
	}
	if input.AdditionalNotes != "" {
		builder.WriteString("\n\n## Notes\n")
		builder.WriteString(input.AdditionalNotes)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parsePlanResponse(content string) (Plan, error) {
	var plan Plan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return Plan{}, fmt.Errorf("parse plan json: %w", err)
	}

	if plan.Title == "" {
		return Plan{}, fmt.Errorf("plan response missing title")
	}
	if len(plan.Tasks) == 0 {
		return Plan{}, fmt.Errorf("plan response contains no tasks")
	}

	for i := range plan.Tasks {
		plan.Tasks[i].Category = strings.ToUpper(strings.TrimSpace(plan.Tasks[i].Category))
	}

	return plan, nil
}
