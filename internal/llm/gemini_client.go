// Package llm implements ports.LLMClient on top of Google's Gemini API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cmdrelay/internal/logging"
	"cmdrelay/internal/observability"
	"cmdrelay/internal/ports"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-1.5-flash"

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY not found in environment variables")

// Config configures a GeminiClient.
type Config struct {
	APIKey string
	Model  string
	Retry  RetryConfig
}

// contentGenerator is the subset of *genai.Models the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient sends single-turn prompts to a Gemini model.
type GeminiClient struct {
	models  contentGenerator
	model   string
	logger  logging.Logger
	metrics *observability.MetricsCollector
	tracer  *observability.TracerProvider
}

var _ ports.LLMClient = (*GeminiClient)(nil)

// Option configures a GeminiClient.
type Option func(*GeminiClient)

func WithLogger(logger logging.Logger) Option {
	return func(c *GeminiClient) { c.logger = logging.OrNop(logger) }
}

func WithMetrics(m *observability.MetricsCollector) Option {
	return func(c *GeminiClient) { c.metrics = m }
}

func WithTracer(tp *observability.TracerProvider) Option {
	return func(c *GeminiClient) { c.tracer = tp }
}

// NewGeminiClient creates a client for cfg.Model authenticated with cfg.APIKey.
func NewGeminiClient(ctx context.Context, cfg Config, opts ...Option) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGeminiClient(client.Models, cfg.Model, opts...), nil
}

func newGeminiClient(models contentGenerator, model string, opts ...Option) *GeminiClient {
	if model == "" {
		model = DefaultModel
	}
	c := &GeminiClient{
		models: models,
		model:  model,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model name used by this client.
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate sends req.Prompt with the optional system instruction.
func (c *GeminiClient) Generate(ctx context.Context, req ports.GenerateRequest) (resp *ports.GenerateResponse, err error) {
	ctx, span := c.tracer.StartSpan(ctx, observability.SpanLLMGenerate,
		attribute.String(observability.AttrModel, c.model))
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordLLMRequest(ctx, c.model, status, time.Since(start))
		observability.EndSpan(span, err)
	}()

	var config *genai.GenerateContentConfig
	if req.SystemInstruction != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		}
	}

	logger := logging.FromContext(ctx, c.logger)
	logger.Debug("Gemini request: model=%s prompt_chars=%d", c.model, len(req.Prompt))

	result, err := c.models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
	if err != nil {
		logger.Warn("Gemini request failed after %v: %v", time.Since(start), err)
		return nil, err
	}

	resp = &ports.GenerateResponse{Text: result.Text()}
	if usage := result.UsageMetadata; usage != nil {
		resp.Usage = ports.TokenUsage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}
	logger.Debug("Gemini response: chars=%d tokens=%d", len(resp.Text), resp.Usage.TotalTokens)
	return resp, nil
}
