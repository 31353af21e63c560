package server

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/voicecal/internal/assistant"
	"github.com/teemow/voicecal/internal/google"
	"github.com/teemow/voicecal/internal/instrumentation"
	"github.com/teemow/voicecal/internal/speech"
)

// CommandHandler runs one assistant command. *assistant.Dispatcher implements it.
type CommandHandler interface {
	Handle(ctx context.Context, req assistant.Request) (*assistant.Response, error)
}

// SpeechService is the part of *speech.Client used by the speech routes.
type SpeechService interface {
	ListVoices(ctx context.Context) ([]speech.Voice, error)
	SynthesizeStream(ctx context.Context, text, voiceID string) (io.ReadCloser, error)
	DefaultVoice() string
}

// TokenExchanger trades an authorization code for tokens.
type TokenExchanger func(ctx context.Context, creds google.Credentials, code string) (*oauth2.Token, error)

// ServerContext holds the process-wide, read-only collaborators of the HTTP API.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	commands    CommandHandler
	calendar    assistant.CalendarGateway
	speech      SpeechService
	credentials google.Credentials
	exchange    TokenExchanger

	location *time.Location
	now      func() time.Time

	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	logger  *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithCalendar exposes the calendar gateway to the MCP tools.
func WithCalendar(c assistant.CalendarGateway) Option {
	return func(sc *ServerContext) { sc.calendar = c }
}

// WithClock sets the zone and time source used to resolve relative dates.
func WithClock(loc *time.Location, now func() time.Time) Option {
	return func(sc *ServerContext) {
		if loc != nil {
			sc.location = loc
		}
		if now != nil {
			sc.now = now
		}
	}
}

// WithSpeech enables the speech routes.
func WithSpeech(s SpeechService) Option {
	return func(sc *ServerContext) { sc.speech = s }
}

// WithGoogleCredentials enables the consent routes.
func WithGoogleCredentials(creds google.Credentials) Option {
	return func(sc *ServerContext) { sc.credentials = creds }
}

// WithTokenExchanger replaces the code exchange. The default calls Google.
func WithTokenExchanger(fn TokenExchanger) Option {
	return func(sc *ServerContext) {
		if fn != nil {
			sc.exchange = fn
		}
	}
}

// WithMetrics sets the HTTP metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger sets the command audit logger.
func WithAuditLogger(a *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.audit = a }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) {
		if l != nil {
			sc.logger = l
		}
	}
}

// NewServerContext creates a server context around a command handler.
func NewServerContext(ctx context.Context, commands CommandHandler, opts ...Option) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		commands: commands,
		exchange: google.ExchangeCode,
		location: time.Local,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Commands returns the command handler.
func (sc *ServerContext) Commands() CommandHandler {
	return sc.commands
}

// Calendar returns the calendar gateway, or nil when no refresh token is configured.
func (sc *ServerContext) Calendar() assistant.CalendarGateway {
	return sc.calendar
}

// Now returns the current time in the configured zone.
func (sc *ServerContext) Now() time.Time {
	return sc.now().In(sc.location)
}

// Location returns the zone relative dates are resolved in.
func (sc *ServerContext) Location() *time.Location {
	return sc.location
}

// Speech returns the speech service, or nil when synthesis is not configured.
func (sc *ServerContext) Speech() SpeechService {
	return sc.speech
}

// Credentials returns the Google OAuth client registration.
func (sc *ServerContext) Credentials() google.Credentials {
	return sc.credentials
}

// ExchangeCode trades an authorization code for tokens with the configured credentials.
func (sc *ServerContext) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return sc.exchange(ctx, sc.credentials, code)
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.audit
}

// Logger returns the logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
