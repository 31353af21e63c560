package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyProvider  = "provider"
	KeyFunction  = "function"
	KeyState     = "state"
	KeyRequestID = "request_id"
	KeyUserHash  = "user_hash"
	KeyVoice     = "voice"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewHandler builds the process-wide slog handler.
// Unknown formats fall back to text.
func NewHandler(w io.Writer, format string, debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(format, FormatJSON) {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithProvider returns a logger with the upstream provider attribute set.
func WithProvider(logger *slog.Logger, provider string) *slog.Logger {
	return logger.With(slog.String(KeyProvider, provider))
}

// WithRequestID returns a logger tagged with the request id.
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	if requestID == "" {
		return logger
	}
	return logger.With(slog.String(KeyRequestID, requestID))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Provider returns a slog attribute for the upstream provider name.
func Provider(provider string) slog.Attr {
	return slog.String(KeyProvider, provider)
}

// Function returns a slog attribute for the function chosen by the model.
func Function(name string) slog.Attr {
	return slog.String(KeyFunction, name)
}

// State returns a slog attribute for a dispatcher state.
func State(state string) slog.Attr {
	return slog.String(KeyState, state)
}

// Voice returns a slog attribute for a synthesis voice id.
func Voice(voiceID string) slog.Attr {
	return slog.String(KeyVoice, voiceID)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		// Return an empty Group that slog will omit from output
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeUser returns a hashed representation of a caller-supplied user id.
// This allows correlation of log entries without exposing the raw id.
func AnonymizeUser(userID string) string {
	if userID == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(userID))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user id.
//
// Usage:
//
//	logger.Info("command handled", logging.UserHash(req.UserID))
func UserHash(userID string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeUser(userID))
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content,
// as even partial token prefixes (like JWT headers) can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// Truncate shortens free text (user utterances, model replies) for debug logs.
func Truncate(text string, max int) string {
	r := []rune(text)
	if max <= 0 || len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}
