package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/teemow/voicecal/internal/timewindow"
)

// Intent is the function the model chose. The set of variants is closed:
// ListEventsIntent, CreateEventIntent, CurrentTimeIntent and UnsupportedIntent.
type Intent interface {
	// FunctionName returns the function name as the model sent it.
	FunctionName() string
	isIntent()
}

// ListEventsIntent lists events in [TimeMin, TimeMax).
type ListEventsIntent struct {
	TimeMin time.Time
	TimeMax time.Time
	Query   string
	// Cue is set when the window came from a literal cue in the user text.
	Cue timewindow.Cue
}

// CreateEventIntent creates one event.
type CreateEventIntent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// CurrentTimeIntent asks for the clock.
type CurrentTimeIntent struct{}

// UnsupportedIntent carries a function name the dispatcher does not implement.
type UnsupportedIntent struct {
	Name string
}

func (ListEventsIntent) FunctionName() string  { return FunctionListEvents }
func (CreateEventIntent) FunctionName() string { return FunctionCreateEvent }
func (CurrentTimeIntent) FunctionName() string { return FunctionGetCurrentTime }
func (u UnsupportedIntent) FunctionName() string {
	return u.Name
}

func (ListEventsIntent) isIntent()  {}
func (CreateEventIntent) isIntent() {}
func (CurrentTimeIntent) isIntent() {}
func (UnsupportedIntent) isIntent() {}

type listEventsArgs struct {
	TimeMin string `json:"timeMin"`
	TimeMax string `json:"timeMax"`
	Query   string `json:"query"`
}

type createEventArgs struct {
	Summary     string   `json:"summary"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Description string   `json:"description"`
	Attendees   []string `json:"attendees"`
}

// ParseIntent turns a model function call into an Intent.
//
// For listEvents a today/tomorrow/this week cue in message replaces whatever
// window the model supplied. Relative times without an offset are read in
// now's location. Malformed arguments yield ErrUpstreamModel.
func ParseIntent(call openai.FunctionCall, message string, now time.Time) (Intent, error) {
	switch call.Name {
	case FunctionListEvents:
		var args listEventsArgs
		if err := decodeArgs(call, &args); err != nil {
			return nil, err
		}
		return parseListEvents(args, message, now)

	case FunctionCreateEvent:
		var args createEventArgs
		if err := decodeArgs(call, &args); err != nil {
			return nil, err
		}
		return parseCreateEvent(args, now.Location())

	case FunctionGetCurrentTime:
		return CurrentTimeIntent{}, nil

	default:
		return UnsupportedIntent{Name: call.Name}, nil
	}
}

func parseListEvents(args listEventsArgs, message string, now time.Time) (Intent, error) {
	intent := ListEventsIntent{Query: strings.TrimSpace(args.Query)}

	if window, cue, ok := timewindow.ResolveText(message, now); ok {
		intent.TimeMin, intent.TimeMax, intent.Cue = window.Start, window.End, cue
		return intent, nil
	}

	if args.TimeMin == "" || args.TimeMax == "" {
		return nil, fmt.Errorf("%w: %s requires timeMin and timeMax", ErrUpstreamModel, FunctionListEvents)
	}

	var err error
	if intent.TimeMin, err = parseInstant(args.TimeMin, now.Location()); err != nil {
		return nil, fmt.Errorf("%w: invalid timeMin: %w", ErrUpstreamModel, err)
	}
	if intent.TimeMax, err = parseInstant(args.TimeMax, now.Location()); err != nil {
		return nil, fmt.Errorf("%w: invalid timeMax: %w", ErrUpstreamModel, err)
	}
	if !intent.TimeMax.After(intent.TimeMin) {
		return nil, fmt.Errorf("%w: timeMax must be after timeMin", ErrUpstreamModel)
	}
	return intent, nil
}

func parseCreateEvent(args createEventArgs, loc *time.Location) (Intent, error) {
	summary := strings.TrimSpace(args.Summary)
	if summary == "" || args.Start == "" || args.End == "" {
		return nil, fmt.Errorf("%w: %s requires summary, start and end", ErrUpstreamModel, FunctionCreateEvent)
	}

	start, err := parseInstant(args.Start, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start: %w", ErrUpstreamModel, err)
	}
	end, err := parseInstant(args.End, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end: %w", ErrUpstreamModel, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end is before start", ErrUpstreamModel)
	}

	var attendees []string
	for _, email := range args.Attendees {
		if email = strings.TrimSpace(email); email != "" {
			attendees = append(attendees, email)
		}
	}

	return CreateEventIntent{
		Summary:     summary,
		Description: args.Description,
		Start:       start,
		End:         end,
		Attendees:   attendees,
	}, nil
}

func decodeArgs(call openai.FunctionCall, v any) error {
	raw := strings.TrimSpace(call.Arguments)
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: malformed %s arguments: %w", ErrUpstreamModel, call.Name, err)
	}
	return nil
}

// localLayouts are accepted when the model omits the UTC offset.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseInstant parses an ISO 8601 instant. Values without an offset are
// interpreted in loc.
func parseInstant(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}
