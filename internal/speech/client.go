package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/resilience"
)

var (
	// ErrUnavailable is returned on any transport or provider failure.
	ErrUnavailable = errors.New("speech synthesis unavailable")
	// ErrInvalidInput is returned before any provider call for unusable input.
	ErrInvalidInput = errors.New("invalid synthesis input")
)

// StatusError is a non-2xx ElevenLabs answer.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("elevenlabs returned %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus lets the circuit breaker tell caller mistakes from outages.
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// DefaultTimeout bounds a synthesis call. For streams it bounds the wait for
// the response headers only.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is quoted.
const maxErrorBody = 512

// Config holds the ElevenLabs account settings.
type Config struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string
	Timeout time.Duration
}

// Client talks to the ElevenLabs REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	voiceID    string
	modelID    string
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker
	metrics    *instrumentation.Metrics
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMetrics records every call as an upstream call.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBreakerSettings replaces the circuit breaker settings.
func WithBreakerSettings(s resilience.BreakerSettings) Option {
	return func(c *Client) {
		c.breaker = resilience.NewBreaker("elevenlabs", s, nil)
	}
}

// NewClient creates an ElevenLabs client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ElevenLabs API key is required")
	}

	c := &Client{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		voiceID:    cfg.VoiceID,
		modelID:    cfg.ModelID,
		timeout:    cfg.Timeout,
		logger:     logging.DefaultLogger().With(logging.KeyProvider, instrumentation.ProviderElevenLabs),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.voiceID == "" {
		c.voiceID = DefaultVoiceID
	}
	if c.modelID == "" {
		c.modelID = DefaultModelID
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = resilience.NewBreaker("elevenlabs", resilience.DefaultBreakerSettings(), nil)
	}
	return c, nil
}

// DefaultVoice returns the configured default voice id.
func (c *Client) DefaultVoice() string {
	return c.voiceID
}

// ResolveVoice returns voiceID, or the default voice when it is empty.
func (c *Client) ResolveVoice(voiceID string) string {
	if voiceID = strings.TrimSpace(voiceID); voiceID != "" {
		return voiceID
	}
	return c.voiceID
}

// Synthesize converts text to a complete audio/mpeg payload.
// A nil settings value selects DefaultVoiceSettings.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, settings *VoiceSettings) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return observe(ctx, c, instrumentation.OperationSynthesize, func(ctx context.Context) ([]byte, error) {
		resp, err := c.post(ctx, "/v1/text-to-speech/"+url.PathEscape(c.ResolveVoice(voiceID)), text, settings)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		audio, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read audio: %w", err)
		}
		return audio, nil
	})
}

// SynthesizeStream starts a streaming synthesis and returns the audio body.
// The caller must close the returned reader. The timeout applies until the
// provider answers; after that the stream lives as long as ctx.
func (c *Client) SynthesizeStream(ctx context.Context, text, voiceID string) (io.ReadCloser, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	// The timer cancels with DeadlineExceeded as the cause so a slow provider
	// still counts against the breaker.
	ctx, cancelCause := context.WithCancelCause(ctx)
	cancel := func() { cancelCause(nil) }
	timer := time.AfterFunc(c.timeout, func() { cancelCause(context.DeadlineExceeded) })

	body, err := observe(ctx, c, instrumentation.OperationStream, func(ctx context.Context) (io.ReadCloser, error) {
		resp, err := c.post(ctx, "/v1/text-to-speech/"+url.PathEscape(c.ResolveVoice(voiceID))+"/stream", text, nil)
		if err != nil {
			if cause := context.Cause(ctx); errors.Is(cause, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %w", cause, err)
			}
			return nil, err
		}
		return resp.Body, nil
	})
	if err != nil || !timer.Stop() {
		cancel()
		if body != nil {
			_ = body.Close()
		}
		if err == nil {
			err = fmt.Errorf("%w: %w", ErrUnavailable, context.DeadlineExceeded)
		}
		return nil, err
	}

	return &streamBody{ReadCloser: body, cancel: cancel}, nil
}

// ListVoices returns the voices available to the account.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return observe(ctx, c, instrumentation.OperationVoices, func(ctx context.Context) ([]Voice, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("xi-api-key", c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var out voicesResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to decode voices: %w", err)
		}
		if out.Voices == nil {
			out.Voices = []Voice{}
		}
		return out.Voices, nil
	})
}

func (c *Client) post(ctx context.Context, path, text string, settings *VoiceSettings) (*http.Response, error) {
	vs := DefaultVoiceSettings()
	if settings != nil {
		vs = *settings
	}

	payload, err := json.Marshal(synthesisRequest{
		Text:          text,
		ModelID:       c.modelID,
		VoiceSettings: vs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", AudioContentType)

	return c.do(req)
}

// do sends req and turns non-2xx answers into errors.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return resp, nil
}

// observe runs one provider call under the breaker, span and metrics.
// Every failure is wrapped with ErrUnavailable.
func observe[T any](ctx context.Context, c *Client, operation string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ProviderElevenLabs, operation)
	start := time.Now()

	result, err := resilience.Execute(c.breaker, func() (T, error) {
		return fn(ctx)
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		c.logger.Warn("elevenlabs call failed", logging.Operation(operation), logging.Err(err))
	}

	c.metrics.RecordUpstreamCall(ctx, instrumentation.ProviderElevenLabs, operation,
		instrumentation.StatusFromError(err), time.Since(start))
	instrumentation.EndSpan(span, err)

	return result, err
}

// streamBody releases the stream context when the body is closed.
type streamBody struct {
	io.ReadCloser
	cancel context.CancelFunc
	once   sync.Once
}

func (s *streamBody) Close() error {
	err := s.ReadCloser.Close()
	s.once.Do(s.cancel)
	return err
}
