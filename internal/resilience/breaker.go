// Package resilience provides the circuit breaker shared by the upstream gateways.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/api/googleapi"
)

// BreakerSettings tunes a gateway circuit breaker.
type BreakerSettings struct {
	// MinRequests is the number of requests in an interval before the
	// failure ratio is considered.
	MinRequests uint32
	// FailureRatio trips the breaker once reached.
	FailureRatio float64
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings trips after 3 requests with at least 60% failures
// and probes again after 30 seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:  3,
		FailureRatio: 0.6,
		OpenTimeout:  30 * time.Second,
	}
}

// NewBreaker creates a circuit breaker that logs its state changes. Errors
// caused by the caller (see IsCallerError) pass through without counting
// as failures, so one request cannot trip the breaker for everyone.
func NewBreaker(name string, s BreakerSettings, logger *slog.Logger) *gobreaker.CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		IsSuccessful: func(err error) bool {
			return err == nil || IsCallerError(err)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= s.MinRequests && failureRatio >= s.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// Execute runs fn through cb and returns its typed result.
func Execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// IsOpen reports whether err was produced by a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// StatusError is implemented by errors that carry a provider HTTP status.
type StatusError interface {
	error
	HTTPStatus() int
}

// IsCallerError reports whether err stems from the request itself rather than
// the provider's health: a cancelled caller context, or a 4xx answer other
// than auth, timeout and rate-limit statuses. Deadline errors always count
// against the provider.
func IsCallerError(err error) bool {
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}

	var status int
	var se StatusError
	var gerr *googleapi.Error
	switch {
	case errors.As(err, &se):
		status = se.HTTPStatus()
	case errors.As(err, &gerr):
		status = gerr.Code
	default:
		return false
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return status >= 400 && status < 500
}
