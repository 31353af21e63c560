package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teemow/voicecal/internal/assistant"
	"github.com/teemow/voicecal/internal/calendar"
	"github.com/teemow/voicecal/internal/google"
	"github.com/teemow/voicecal/internal/speech"
)

// Error categories reported in the error field.
const (
	errInvalidRequest        = "invalid_request"
	errUnknownFunction       = "unknown_function"
	errUpstreamModel         = "upstream_model_error"
	errCalendarUnavailable   = "calendar_unavailable"
	errSynthesisUnavailable  = "synthesis_unavailable"
	errSynthesisUnconfigured = "synthesis_not_configured"
	errOAuthUnconfigured     = "oauth_not_configured"
	errOAuthExchange         = "oauth_exchange_failed"
	errNotFound              = "not_found"
	errInternal              = "internal_error"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps an error to its HTTP status and category.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, assistant.ErrInvalidRequest), errors.Is(err, speech.ErrInvalidInput):
		return http.StatusBadRequest, errInvalidRequest
	case errors.Is(err, assistant.ErrUnknownFunction):
		return http.StatusInternalServerError, errUnknownFunction
	case errors.Is(err, calendar.ErrUnavailable):
		return http.StatusInternalServerError, errCalendarUnavailable
	case errors.Is(err, speech.ErrUnavailable):
		return http.StatusInternalServerError, errSynthesisUnavailable
	case errors.Is(err, assistant.ErrUpstreamModel):
		return http.StatusInternalServerError, errUpstreamModel
	case errors.Is(err, google.ErrNotConfigured):
		return http.StatusBadRequest, errOAuthUnconfigured
	default:
		return http.StatusInternalServerError, errInternal
	}
}

// writeError aborts the request with the mapped status and body.
func writeError(c *gin.Context, err error) {
	status, category := classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: category, Message: err.Error()})
}

// badRequest aborts with 400.
func badRequest(c *gin.Context, category, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: category, Message: message})
}
