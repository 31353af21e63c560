package instrumentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRoute = "/api/process-command-enhanced"

func TestNewInvocation(t *testing.T) {
	inv := NewInvocation(testRoute)

	if inv.Name != testRoute {
		t.Errorf("Name = %q, want %q", inv.Name, testRoute)
	}
	if inv.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}
}

func TestInvocation_Builders(t *testing.T) {
	inv := NewInvocation(testRoute).
		WithUser("caller-7").
		WithRequestID("req-9").
		WithIntent(IntentListEvents, "21m00Tcm4TlvDQ8ikWAM")

	assert.Equal(t, "caller-7", inv.UserID)
	assert.Equal(t, "req-9", inv.RequestID)
	assert.Equal(t, IntentListEvents, inv.Intent)
	assert.Equal(t, "21m00Tcm4TlvDQ8ikWAM", inv.Voice)
	assert.True(t, strings.HasPrefix(inv.UserHash(), "user:"))
}

func TestInvocation_Complete(t *testing.T) {
	inv := NewInvocation(testRoute)
	inv.StartTime = time.Now().Add(-50 * time.Millisecond)

	inv.CompleteWithError(errors.New("calendar unavailable"))

	assert.False(t, inv.Success)
	assert.Equal(t, StatusError, inv.Status())
	assert.Equal(t, "calendar unavailable", inv.Error)
	assert.GreaterOrEqual(t, inv.Duration, 50*time.Millisecond)

	ok := NewInvocation(testRoute).CompleteSuccess()
	assert.True(t, ok.Success)
	assert.Equal(t, StatusSuccess, ok.Status())
	assert.Empty(t, ok.Error)
}

func TestInvocation_LogAttrs_HashesUser(t *testing.T) {
	inv := NewInvocation(testRoute).WithUser("caller-7").CompleteSuccess()

	for _, attr := range inv.LogAttrs() {
		assert.NotEqual(t, "caller-7", attr.Value.String(), "raw user id leaked in %s", attr.Key)
	}

	found := false
	for _, attr := range inv.LogAuditAttrs() {
		if attr.Key == "user" {
			found = true
			assert.Equal(t, "caller-7", attr.Value.String())
		}
	}
	assert.True(t, found, "audit attrs must carry the raw user id")
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestAuditLogger_LogInvocation(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogInvocation(NewInvocation(testRoute).WithUser("caller-7").WithIntent(IntentCurrentTime, "").CompleteSuccess())

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "command_handled", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, IntentCurrentTime, entry["intent"])
	assert.NotContains(t, buf.String(), "caller-7")
}

func TestAuditLogger_Failure(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogInvocation(NewInvocation(testRoute).CompleteWithError(errors.New("boom")))

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "command_failed", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "boom", entry["error"])
}

func TestAuditLogger_IncludePII(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	al.SetIncludePII(true)

	al.LogInvocation(NewInvocation(testRoute).WithUser("caller-7").CompleteSuccess())

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "caller-7", entry["user"])
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})

	al.LogInvocation(NewInvocation(testRoute).CompleteSuccess())
	assert.Empty(t, buf.String())

	al.SetEnabled(true)
	al.LogInvocation(NewInvocation(testRoute).CompleteSuccess())
	assert.NotEmpty(t, buf.String())
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var al *AuditLogger
	// Should not panic
	al.LogInvocation(NewInvocation(testRoute).CompleteSuccess())

	NewAuditLogger(nil).LogInvocation(nil)
}
