package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/alfred-cloud/alfred/internal/domain"
	"github.com/alfred-cloud/alfred/internal/metrics"
)

// Request kinds for metrics labels.
const (
	kindGenerate = "generate"
	kindAdvise   = "advise"
	kindEmbed    = "embed"
)

// ModelOptions holds generation parameters for one model role.
type ModelOptions struct {
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client talks to an OpenAI-compatible generation API (e.g. Ollama's /v1
// endpoint). One client serves three roles: free-form answers, the
// low-latency routing advisor, and query/document embeddings.
type Client struct {
	client         *openai.Client
	embeddingModel string
	generation     ModelOptions
	advisor        ModelOptions
	logger         *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	Generation     ModelOptions
	Advisor        ModelOptions
	Logger         *zap.Logger
}

// New creates an OpenAI-compatible client.
func New(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Client{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: cfg.EmbeddingModel,
		generation:     cfg.Generation,
		advisor:        cfg.Advisor,
		logger:         cfg.Logger,
	}
}

// Generate produces a free-form answer for the raw query. Failures wrap
// domain.ErrGeneration: on the general path a generation failure is the
// request failing.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.complete(ctx, kindGenerate, c.generation, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return text, nil
}

// Advise runs the one-word routing classification. Errors are returned
// raw; the routing engine absorbs them into its deterministic fallback.
func (c *Client) Advise(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, kindAdvise, c.advisor, prompt)
}

func (c *Client) complete(ctx context.Context, kind string, opts ModelOptions, prompt string) (string, error) {
	opCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(opCtx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(kind, opts.Model, "error").Inc()
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(kind, opts.Model, "error").Inc()
		return "", errors.New("empty completion response")
	}

	metrics.LLMRequestsTotal.WithLabelValues(kind, opts.Model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(kind, opts.Model).Observe(duration.Seconds())

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Embed vectorizes one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	}

	start := time.Now()
	resp, err := c.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(kindEmbed, c.embeddingModel, "error").Inc()
		return nil, parseAPIError(err)
	}
	if len(resp.Data) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(kindEmbed, c.embeddingModel, "error").Inc()
		return nil, errors.New("empty embedding response")
	}

	metrics.LLMRequestsTotal.WithLabelValues(kindEmbed, c.embeddingModel, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(kindEmbed, c.embeddingModel).Observe(duration.Seconds())

	return resp.Data[0].Embedding, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("llm API error %d: %s", reqErr.HTTPStatusCode, detail)
		}
		return fmt.Errorf("llm API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("llm API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("llm request failed: %w", err)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
