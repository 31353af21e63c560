package logging

import (
	"io"
	"log/slog"
)

// Logger is the narrow logging interface accepted by the upstream gateways.
// It is satisfied by SlogAdapter and by NopLogger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// SlogAdapter adapts an slog.Logger to the Logger interface.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug logs a debug message with key-value pairs.
func (a *SlogAdapter) Debug(msg string, args ...any) {
	a.logger.Debug(msg, args...)
}

// Info logs an info message with key-value pairs.
func (a *SlogAdapter) Info(msg string, args ...any) {
	a.logger.Info(msg, args...)
}

// Warn logs a warning message with key-value pairs.
func (a *SlogAdapter) Warn(msg string, args ...any) {
	a.logger.Warn(msg, args...)
}

// Error logs an error message with key-value pairs.
func (a *SlogAdapter) Error(msg string, args ...any) {
	a.logger.Error(msg, args...)
}

// With returns a Logger that includes args on every record.
func (a *SlogAdapter) With(args ...any) Logger {
	return &SlogAdapter{logger: a.logger.With(args...)}
}

// Logger returns the underlying slog.Logger for direct access when needed.
func (a *SlogAdapter) Logger() *slog.Logger {
	return a.logger
}

// DefaultLogger returns a Logger using the default slog.Logger.
func DefaultLogger() *SlogAdapter {
	return NewSlogAdapter(slog.Default())
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *SlogAdapter {
	return NewSlogAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
