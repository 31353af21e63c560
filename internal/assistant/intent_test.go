package assistant

import (
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/voicecal/internal/timewindow"
)

func TestParseIntent_Variants(t *testing.T) {
	tests := []struct {
		name string
		call openai.FunctionCall
		want Intent
	}{
		{
			name: "current time",
			call: openai.FunctionCall{Name: FunctionGetCurrentTime, Arguments: "{}"},
			want: CurrentTimeIntent{},
		},
		{
			name: "unsupported",
			call: openai.FunctionCall{Name: "deleteEvent", Arguments: `{"id":"x"}`},
			want: UnsupportedIntent{Name: "deleteEvent"},
		},
		{
			name: "create with offset-less times",
			call: openai.FunctionCall{Name: FunctionCreateEvent, Arguments: `{"summary":" Gym ","start":"2025-03-14T07:00:00","end":"2025-03-14T08:00"}`},
			want: CreateEventIntent{
				Summary: "Gym",
				Start:   time.Date(2025, time.March, 14, 7, 0, 0, 0, time.UTC),
				End:     time.Date(2025, time.March, 14, 8, 0, 0, 0, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntent(tt.call, "irrelevant", testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.call.Name, got.FunctionName())
		})
	}
}

func TestParseIntent_ListEventsCues(t *testing.T) {
	modelArgs := `{"timeMin":"2030-06-01T00:00:00Z","timeMax":"2030-06-02T00:00:00Z","query":"gym"}`

	tests := []struct {
		message string
		cue     timewindow.Cue
		start   time.Time
		end     time.Time
	}{
		{
			message: "What do I have TODAY?",
			cue:     timewindow.CueToday,
			start:   time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
			end:     time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			message: "anything tomorrow",
			cue:     timewindow.CueTomorrow,
			start:   time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC),
			end:     time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			message: "What's on this week?",
			cue:     timewindow.CueThisWeek,
			start:   time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC),
			end:     time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			message: "today or tomorrow?",
			cue:     timewindow.CueToday,
			start:   time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
			end:     time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got, err := ParseIntent(openai.FunctionCall{Name: FunctionListEvents, Arguments: modelArgs}, tt.message, testNow)
			require.NoError(t, err)

			list, ok := got.(ListEventsIntent)
			require.True(t, ok)
			assert.Equal(t, tt.cue, list.Cue)
			assert.Equal(t, tt.start, list.TimeMin)
			assert.Equal(t, tt.end, list.TimeMax)
			assert.Equal(t, "gym", list.Query)
		})
	}
}

func TestParseIntent_ListEventsWithoutCue(t *testing.T) {
	got, err := ParseIntent(openai.FunctionCall{
		Name:      FunctionListEvents,
		Arguments: `{"timeMin":"2025-03-17T09:00:00-04:00","timeMax":"2025-03-17T17:00:00-04:00"}`,
	}, "Am I free Monday?", testNow)
	require.NoError(t, err)

	list := got.(ListEventsIntent)
	assert.Empty(t, list.Cue)
	assert.True(t, list.TimeMin.Equal(time.Date(2025, time.March, 17, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, 8*time.Hour, list.TimeMax.Sub(list.TimeMin))
}

func TestParseIntent_Invalid(t *testing.T) {
	tests := []struct {
		name string
		call openai.FunctionCall
	}{
		{"malformed json", openai.FunctionCall{Name: FunctionListEvents, Arguments: `{"timeMin":`}},
		{"list missing max", openai.FunctionCall{Name: FunctionListEvents, Arguments: `{"timeMin":"2025-03-17T00:00:00Z"}`}},
		{"list bad time", openai.FunctionCall{Name: FunctionListEvents, Arguments: `{"timeMin":"monday","timeMax":"tuesday"}`}},
		{"list inverted", openai.FunctionCall{Name: FunctionListEvents, Arguments: `{"timeMin":"2025-03-18T00:00:00Z","timeMax":"2025-03-17T00:00:00Z"}`}},
		{"create missing summary", openai.FunctionCall{Name: FunctionCreateEvent, Arguments: `{"start":"2025-03-14T12:00:00Z","end":"2025-03-14T13:00:00Z"}`}},
		{"create missing end", openai.FunctionCall{Name: FunctionCreateEvent, Arguments: `{"summary":"x","start":"2025-03-14T12:00:00Z"}`}},
		{"create end before start", openai.FunctionCall{Name: FunctionCreateEvent, Arguments: `{"summary":"x","start":"2025-03-14T12:00:00Z","end":"2025-03-14T11:00:00Z"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIntent(tt.call, "no cue here", testNow)
			assert.ErrorIs(t, err, ErrUpstreamModel)
		})
	}
}

func TestParseInstant(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)

	tests := []struct {
		value string
		want  time.Time
	}{
		{"2025-03-14T12:00:00Z", time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)},
		{"2025-03-14T12:00:00.500+01:00", time.Date(2025, time.March, 14, 11, 0, 0, 500_000_000, time.UTC)},
		{"2025-03-14T12:00:00", time.Date(2025, time.March, 14, 20, 0, 0, 0, time.UTC)},
		{"2025-03-14 12:00", time.Date(2025, time.March, 14, 20, 0, 0, 0, time.UTC)},
		{"2025-03-14", time.Date(2025, time.March, 14, 8, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseInstant(tt.value, loc)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}

	_, err := parseInstant("next tuesday", loc)
	assert.Error(t, err)
}
