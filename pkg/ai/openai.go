package ai

import (
	"context"
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
	askDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "codegrader",
		Subsystem: "judgment",
		Name:      "request_duration_seconds",
		Help:      "Duration of judgment service requests",
	}, []string{"model"})

	askFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codegrader",
		Subsystem: "judgment",
		Name:      "request_failures_total",
		Help:      "Number of failed judgment service requests",
	}, []string{"model"})
)

// DefaultModelChain is tried in order until one model answers.
var DefaultModelChain = []string{"gpt-4.1-nano", "gpt-4o-mini", "gpt-3.5-turbo"}

// OpenAIConfig defines configuration options for the OpenAI judgment client.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Models       []string
	MaxTokens    int
	Temperature  float32
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       zerolog.Logger
}

// OpenAIClient implements Client against the OpenAI chat completion API. Each
// model in the chain is tried with a bounded number of retries before the
// client falls through to the next model.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClient builds a judgment client from the provided configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, &ServiceError{Op: "configure", Err: errMissingAPIKey}
	}

	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModelChain
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(config)

	tracer := otel.Tracer("github.com/edugrade/codegrader/pkg/ai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &OpenAIClient{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger.With().Str("component", "judgment_client").Logger(),
	}, nil
}

// Ask sends the system prompt and content to the model chain and returns the
// first successful text response.
func (c *OpenAIClient) Ask(parent context.Context, systemPrompt, content string) (string, error) {
	ctx, span := c.tracer.Start(parent, "judgment.ask")
	defer span.End()

	var lastErr error
	for _, model := range c.cfg.Models {
		for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					span.SetStatus(codes.Error, ctx.Err().Error())
					return "", &ServiceError{Op: "ask", Err: ctx.Err()}
				case <-time.After(c.cfg.RetryBackoff):
				}
			}

			answer, err := c.complete(ctx, model, systemPrompt, content)
			if err == nil {
				span.SetAttributes(attribute.String("model", model))
				return answer, nil
			}

			lastErr = err
			askFailures.WithLabelValues(model).Inc()
			c.logger.Warn().Err(err).Str("model", model).Int("attempt", attempt+1).Msg("judgment request failed")

			if ctx.Err() != nil {
				span.RecordError(ctx.Err())
				span.SetStatus(codes.Error, ctx.Err().Error())
				return "", &ServiceError{Op: "ask", Err: ctx.Err()}
			}
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return "", &ServiceError{Op: "ask", Err: lastErr}
}

func (c *OpenAIClient) complete(parent context.Context, model, systemPrompt, content string) (string, error) {
	ctx, cancel := context.WithTimeout(parent, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
	})
	askDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
