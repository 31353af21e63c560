package server

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/voicecal/internal/assistant"
	"github.com/teemow/voicecal/internal/calendar"
	"github.com/teemow/voicecal/internal/speech"
)

// scriptedLLM replays canned completions and counts calls.
type scriptedLLM struct {
	replies []openai.ChatCompletionMessage
	calls   int
}

func (s *scriptedLLM) Complete(_ context.Context, _ []openai.ChatCompletionMessage, _ []openai.Tool) (openai.ChatCompletionMessage, error) {
	if s.calls >= len(s.replies) {
		return openai.ChatCompletionMessage{}, errors.New("no scripted reply")
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

type stubCalendar struct {
	min, max time.Time
}

func (c *stubCalendar) ListEvents(_ context.Context, timeMin, timeMax time.Time, _ string) ([]calendar.Event, error) {
	c.min, c.max = timeMin, timeMax
	return []calendar.Event{{ID: "1", Summary: "Standup", Start: "2025-03-13T09:00:00Z", End: "2025-03-13T09:15:00Z"}}, nil
}

func (c *stubCalendar) CreateEvent(context.Context, calendar.EventInput) (*calendar.Event, error) {
	return nil, errors.New("not used")
}

type failingSpeech struct{}

func (failingSpeech) Synthesize(context.Context, string, string, *speech.VoiceSettings) ([]byte, error) {
	return nil, speech.ErrUnavailable
}

func (failingSpeech) DefaultVoice() string { return speech.DefaultVoiceID }

func newDispatcherRouter(t *testing.T, llm *scriptedLLM, deps assistant.Deps) http.Handler {
	t.Helper()
	deps.LLM = llm
	deps.Now = func() time.Time { return time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC) }
	deps.Location = time.UTC
	d, err := assistant.New(deps)
	require.NoError(t, err)

	r, _ := newTestRouter(d)
	return r
}

func TestIntegration_MissingMessageSkipsModel(t *testing.T) {
	llm := &scriptedLLM{}
	r := newDispatcherRouter(t, llm, assistant.Deps{})

	w := doJSON(t, r, http.MethodPost, "/api/process-command", map[string]string{"user_id": "u-1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errInvalidRequest, decode[ErrorResponse](t, w).Error)
	assert.Zero(t, llm.calls)
}

func TestIntegration_TomorrowUsesCalendar(t *testing.T) {
	llm := &scriptedLLM{replies: []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{{
				ID:   "call_1",
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      assistant.FunctionListEvents,
					Arguments: `{"timeMin":"2025-01-01T00:00:00Z","timeMax":"2025-01-02T00:00:00Z"}`,
				},
			}},
		},
		{Role: openai.ChatMessageRoleAssistant, Content: "Tomorrow you have standup at 9."},
	}}
	cal := &stubCalendar{}
	r := newDispatcherRouter(t, llm, assistant.Deps{Calendar: cal})

	w := doJSON(t, r, http.MethodPost, "/api/process-command", map[string]string{"message": "What's on tomorrow?"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"response": "Tomorrow you have standup at 9.", "user_id": "anonymous"}, decode[map[string]any](t, w))
	assert.Equal(t, 2, llm.calls)
	assert.True(t, cal.min.Equal(time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cal.max.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)))
}

func TestIntegration_EnhancedDegradesOnSynthesisFailure(t *testing.T) {
	llm := &scriptedLLM{replies: []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleAssistant, Content: "Hello there."},
	}}
	r := newDispatcherRouter(t, llm, assistant.Deps{Speech: failingSpeech{}})

	w := doJSON(t, r, http.MethodPost, "/api/process-command-enhanced", map[string]string{"message": "Hi"})

	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "Hello there.", got["response"])
	assert.Contains(t, got, "audio")
	assert.Nil(t, got["audio"])
	assert.Equal(t, speech.DefaultVoiceID, got["voice_used"])
}
