package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/logging"
)

// ErrUpstream is returned when the model call fails or yields no usable choice.
var ErrUpstream = errors.New("language model request failed")

const (
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = openai.GPT4oMini

	// DefaultTimeout bounds a single chat completion.
	DefaultTimeout = 30 * time.Second
)

// ChatClient is the subset of *openai.Client used here.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config holds the LLM provider configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client performs chat completions against an OpenAI-compatible API.
type Client struct {
	api     ChatClient
	model   string
	timeout time.Duration
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records every completion as an upstream call.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = logging.WithProvider(l, instrumentation.ProviderOpenAI)
		}
	}
}

// NewClient creates a client talking to the configured OpenAI endpoint.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return NewClientWithAPI(openai.NewClientWithConfig(clientConfig), cfg, opts...), nil
}

// NewClientWithAPI creates a client over an existing ChatClient.
func NewClientWithAPI(api ChatClient, cfg Config, opts ...Option) *Client {
	c := &Client{
		api:     api,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logging.WithProvider(slog.Default(), instrumentation.ProviderOpenAI),
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the chat model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends messages and returns the first choice's message.
// When tools are given the model decides on its own whether to call one.
func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ProviderOpenAI, instrumentation.OperationChat)
	start := time.Now()

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
	if len(tools) > 0 {
		req.Tools = tools
		req.ToolChoice = "auto"
	}

	msg, err := c.complete(ctx, req)

	c.metrics.RecordUpstreamCall(ctx, instrumentation.ProviderOpenAI, instrumentation.OperationChat,
		instrumentation.StatusFromError(err), time.Since(start))
	instrumentation.EndSpan(span, err)

	if err != nil {
		c.logger.Warn("chat completion failed", slog.String("model", c.model), logging.Err(err))
		return openai.ChatCompletionMessage{}, err
	}
	return msg, nil
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionMessage, error) {
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%w: empty chat response", ErrUpstream)
	}
	return resp.Choices[0].Message, nil
}
