package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatus() int { return int(e) }

func TestBreaker_TripsAfterFailures(t *testing.T) {
	cb := NewBreaker("test", BreakerSettings{MinRequests: 2, FailureRatio: 0.5, OpenTimeout: time.Minute}, nil)
	boom := errors.New("boom")

	calls := 0
	fail := func() (string, error) {
		calls++
		return "", boom
	}

	for i := 0; i < 2; i++ {
		_, err := Execute(cb, fail)
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := Execute(cb, fail)
	require.Error(t, err)
	assert.True(t, IsOpen(err))
	assert.Equal(t, 2, calls, "open breaker must not call through")
}

func TestExecute_ReturnsTypedResult(t *testing.T) {
	cb := NewBreaker("typed", DefaultBreakerSettings(), nil)

	got, err := Execute(cb, func() ([]int, error) { return []int{1, 2}, nil })
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
}

func TestIsOpen(t *testing.T) {
	assert.True(t, IsOpen(gobreaker.ErrOpenState))
	assert.True(t, IsOpen(gobreaker.ErrTooManyRequests))
	assert.False(t, IsOpen(errors.New("other")))
	assert.False(t, IsOpen(nil))
}

func TestIsCallerError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("connection reset"), false},
		{"caller canceled", fmt.Errorf("post: %w", context.Canceled), true},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), false},
		{"deadline cause over cancel", fmt.Errorf("%w: %w", context.DeadlineExceeded, context.Canceled), false},
		{"bad request", fmt.Errorf("wrapped: %w", statusErr(http.StatusBadRequest)), true},
		{"not found", statusErr(http.StatusNotFound), true},
		{"unprocessable", statusErr(http.StatusUnprocessableEntity), true},
		{"unauthorized", statusErr(http.StatusUnauthorized), false},
		{"forbidden", statusErr(http.StatusForbidden), false},
		{"rate limited", statusErr(http.StatusTooManyRequests), false},
		{"server error", statusErr(http.StatusBadGateway), false},
		{"google bad request", &googleapi.Error{Code: http.StatusBadRequest}, true},
		{"google forbidden", &googleapi.Error{Code: http.StatusForbidden}, false},
		{"google unavailable", &googleapi.Error{Code: http.StatusServiceUnavailable}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCallerError(tt.err))
		})
	}
}

func TestBreaker_IgnoresCallerErrors(t *testing.T) {
	cb := NewBreaker("caller", BreakerSettings{MinRequests: 2, FailureRatio: 0.5, OpenTimeout: time.Minute}, nil)

	for i := 0; i < 5; i++ {
		_, err := Execute(cb, func() (string, error) { return "", statusErr(http.StatusBadRequest) })
		assert.Equal(t, statusErr(http.StatusBadRequest), err, "caller error is returned unchanged")
		_, err = Execute(cb, func() (string, error) { return "", context.Canceled })
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	got, err := Execute(cb, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}
