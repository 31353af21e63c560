package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/voicecal/internal/google"
	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/resilience"
)

// ErrUnavailable is returned on any transport or provider failure.
var ErrUnavailable = errors.New("calendar unavailable")

// DefaultTimeout bounds a single Calendar API call.
const DefaultTimeout = 10 * time.Second

// Config holds what is needed to reach one Google calendar.
type Config struct {
	Credentials  google.Credentials
	RefreshToken string
	CalendarID   string
	Timeout      time.Duration
}

// Client wraps the Google Calendar service
type Client struct {
	svc        *calendar.Service
	calendarID string
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records every call as an upstream call.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger. The default is slog.Default(). Either way it
// is tagged with the calendar provider.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = logging.WithProvider(l, instrumentation.ProviderCalendar)
		}
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBreakerSettings replaces the circuit breaker settings.
func WithBreakerSettings(s resilience.BreakerSettings) Option {
	return func(c *Client) {
		c.breaker = resilience.NewBreaker("calendar", s, c.logger)
	}
}

// NewClient creates a Calendar client authenticated with the configured refresh token.
func NewClient(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.RefreshToken == "" {
		return nil, fmt.Errorf("calendar refresh token is not configured")
	}

	provider := google.NewRefreshTokenProvider(cfg.RefreshToken)
	httpClient, err := google.GetHTTPClient(ctx, cfg.Credentials, provider, google.DefaultAccount)
	if err != nil {
		return nil, err
	}
	httpClient.Transport = otelhttp.NewTransport(httpClient.Transport)

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	if cfg.Timeout > 0 {
		opts = append([]Option{WithTimeout(cfg.Timeout)}, opts...)
	}
	return NewClientWithService(svc, cfg.CalendarID, opts...), nil
}

// NewClientWithService creates a client over an existing Calendar service.
func NewClientWithService(svc *calendar.Service, calendarID string, opts ...Option) *Client {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	c := &Client{
		svc:        svc,
		calendarID: calendarID,
		timeout:    DefaultTimeout,
		logger:     logging.WithProvider(slog.Default(), instrumentation.ProviderCalendar),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = resilience.NewBreaker("calendar", resilience.DefaultBreakerSettings(), c.logger)
	}
	return c
}

// CalendarID returns the calendar this client reads and writes.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// ListEvents lists single event occurrences in [timeMin, timeMax) ordered by start time.
// A non-empty query filters events by free text.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time, query string) ([]Event, error) {
	return observe(ctx, c, instrumentation.OperationList, func(ctx context.Context) ([]Event, error) {
		call := c.svc.Events.List(c.calendarID).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)

		if query != "" {
			call = call.Q(query)
		}

		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}

		result := make([]Event, 0, len(events.Items))
		for _, event := range events.Items {
			result = append(result, toEvent(event))
		}
		return result, nil
	})
}

// CreateEvent creates a new timed event. Each attendee is invited by email.
// Every call creates a distinct event.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*Event, error) {
	return observe(ctx, c, instrumentation.OperationCreate, func(ctx context.Context) (*Event, error) {
		event := &calendar.Event{
			Summary:     input.Summary,
			Description: input.Description,
			Location:    input.Location,
			Start:       toEventDateTime(input.Start, input.TimeZone),
			End:         toEventDateTime(input.End, input.TimeZone),
		}

		for _, email := range input.Attendees {
			event.Attendees = append(event.Attendees, &calendar.EventAttendee{
				Email: email,
			})
		}

		created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to create event: %w", err)
		}

		result := toEvent(created)
		return &result, nil
	})
}

// observe runs one Calendar API call under the timeout, breaker, span and metrics.
// Every failure is wrapped with ErrUnavailable.
func observe[T any](ctx context.Context, c *Client, operation string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.ProviderCalendar, operation)
	start := time.Now()

	result, err := resilience.Execute(c.breaker, func() (T, error) {
		return fn(ctx)
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		logging.WithOperation(c.logger, operation).Warn("calendar call failed", logging.Err(err))
	}

	c.metrics.RecordUpstreamCall(ctx, instrumentation.ProviderCalendar, operation,
		instrumentation.StatusFromError(err), time.Since(start))
	instrumentation.EndSpan(span, err)

	return result, err
}
