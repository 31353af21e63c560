package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/voicecal/internal/logging"
)

// Invocation captures one handled command or MCP tool call for audit logging.
//
// # Privacy Considerations
//
// UserID is caller-supplied and may identify a person. General logs use
// UserHash(); only LogAuditAttrs includes the raw id.
type Invocation struct {
	// Name is the MCP tool name or the HTTP route that handled the command
	Name string

	// Caller identity as supplied in the request (defaults to "anonymous")
	UserID string

	// Dispatch details
	RequestID string
	Intent    string // function chosen by the model, empty for direct replies
	Voice     string // synthesis voice actually used

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// UserHash returns the anonymized caller id.
func (inv *Invocation) UserHash() string {
	return logging.AnonymizeUser(inv.UserID)
}

// Status returns "success" or "error" based on the Success field.
func (inv *Invocation) Status() string {
	if inv.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for operational logging.
// The caller id is hashed.
func (inv *Invocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("name", inv.Name),
		slog.String(logging.KeyUserHash, inv.UserHash()),
		slog.Duration("duration", inv.Duration),
		slog.Bool("success", inv.Success),
	}
	return inv.appendOptional(attrs, false)
}

// LogAuditAttrs returns slog attributes for full audit logging, including
// the raw caller id and span id.
func (inv *Invocation) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("name", inv.Name),
		slog.String("user", inv.UserID),
		slog.Duration("duration", inv.Duration),
		slog.Bool("success", inv.Success),
	}
	return inv.appendOptional(attrs, true)
}

func (inv *Invocation) appendOptional(attrs []slog.Attr, withSpan bool) []slog.Attr {
	if inv.RequestID != "" {
		attrs = append(attrs, slog.String(logging.KeyRequestID, inv.RequestID))
	}
	if inv.Intent != "" {
		attrs = append(attrs, slog.String("intent", inv.Intent))
	}
	if inv.Voice != "" {
		attrs = append(attrs, slog.String(logging.KeyVoice, inv.Voice))
	}
	if inv.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", inv.TraceID))
	}
	if withSpan && inv.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", inv.SpanID))
	}
	if inv.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, inv.Error))
	}
	return attrs
}

// NewInvocation creates a new Invocation with timing started.
// Call Complete() when the operation finishes.
func NewInvocation(name string) *Invocation {
	return &Invocation{
		Name:      name,
		StartTime: time.Now(),
	}
}

// WithUser sets the caller id.
func (inv *Invocation) WithUser(userID string) *Invocation {
	inv.UserID = userID
	return inv
}

// WithRequestID sets the inbound request id.
func (inv *Invocation) WithRequestID(requestID string) *Invocation {
	inv.RequestID = requestID
	return inv
}

// WithIntent sets the dispatched function and the voice used.
func (inv *Invocation) WithIntent(intent, voice string) *Invocation {
	inv.Intent = intent
	inv.Voice = voice
	return inv
}

// WithSpanContext extracts trace context from the current span.
func (inv *Invocation) WithSpanContext(ctx context.Context) *Invocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		inv.TraceID = span.SpanContext().TraceID().String()
		inv.SpanID = span.SpanContext().SpanID().String()
	}
	return inv
}

// Complete marks the invocation as completed and calculates duration.
func (inv *Invocation) Complete(success bool, err error) *Invocation {
	inv.Duration = time.Since(inv.StartTime)
	inv.Success = success
	if err != nil {
		inv.Error = err.Error()
	}
	return inv
}

// CompleteWithError marks the invocation as failed with the given error.
func (inv *Invocation) CompleteWithError(err error) *Invocation {
	return inv.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (inv *Invocation) CompleteSuccess() *Invocation {
	return inv.Complete(true, nil)
}

// AuditLogger provides structured audit logging for handled commands.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// By default, raw user ids are not included.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// SetIncludePII sets whether to include raw user ids.
func (al *AuditLogger) SetIncludePII(include bool) {
	al.includePII = include
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogInvocation logs a completed invocation. Safe on a nil receiver.
func (al *AuditLogger) LogInvocation(inv *Invocation) {
	if al == nil || !al.enabled || inv == nil {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = inv.LogAuditAttrs()
	} else {
		attrs = inv.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if inv.Success {
		al.logger.Info("command_handled", args...)
	} else {
		al.logger.Warn("command_failed", args...)
	}
}
