// Package logging provides structured logging utilities for the voicecal service.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog (text or JSON handler)
//   - User id anonymization
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithRequestID(slog.Default(), requestID)
//	logger.Debug("command state",
//	    logging.State("FUNCTION_DISPATCHED"),
//	    logging.Function("listEvents"))
//
// Hash caller ids and shorten free text before logging:
//
//	logger.Debug("command state",
//	    logging.UserHash(userID),
//	    slog.String("message", logging.Truncate(message, 120)))
//
// # Security Considerations
//
//   - Caller-supplied user ids are hashed to allow correlation without leaking them
//   - Tokens are never logged directly
package logging
