package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// NoTitle is the summary reported for events without one.
const NoTitle = "No title"

// DefaultCalendarID is the calendar used when none is configured.
const DefaultCalendarID = "primary"

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// TimeZone is an optional IANA zone name attached to start and end.
	TimeZone  string
	Attendees []string
}

// Event is the normalized calendar event returned to callers.
// Start and End hold an RFC3339 date-time for timed events and the
// provider's YYYY-MM-DD date string for all-day events.
type Event struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
	Location    string `json:"location"`
	HTMLLink    string `json:"htmlLink,omitempty"`
}

// AllDay reports whether the event carries date-only bounds.
func (e Event) AllDay() bool {
	return len(e.Start) == len("2006-01-02")
}

// toEvent normalizes a Google Calendar event.
func toEvent(event *calendar.Event) Event {
	if event == nil {
		return Event{}
	}

	summary := event.Summary
	if summary == "" {
		summary = NoTitle
	}

	return Event{
		ID:          event.Id,
		Summary:     summary,
		Start:       eventTime(event.Start),
		End:         eventTime(event.End),
		Description: event.Description,
		Location:    event.Location,
		HTMLLink:    event.HtmlLink,
	}
}

// eventTime prefers the timed value and falls back to the all-day date.
func eventTime(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// toEventDateTime builds the provider's timed representation.
func toEventDateTime(t time.Time, timeZone string) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: timeZone,
	}
}
