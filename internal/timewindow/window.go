package timewindow

import (
	"strings"
	"time"
)

// Cue is a lexical date expression recognized in user text.
type Cue string

// Recognized cues, listed in match priority order.
const (
	CueToday    Cue = "today"
	CueTomorrow Cue = "tomorrow"
	CueThisWeek Cue = "this week"
)

// cueOrder is the fixed evaluation order. The first match wins.
var cueOrder = []Cue{CueToday, CueTomorrow, CueThisWeek}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the window. Duration and Contains are
// small helpers for callers and tests that check a resolved window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// StartOfDay truncates t to the start of its calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

const day = 24 * time.Hour

// Resolve maps a lowercase cue text to a window anchored on now's local midnight.
// Checks run today, tomorrow, this week; anything else falls back to today.
// Windows are fixed spans of 24h, 24h and 7x24h, so on a DST change day the
// end lands an hour off local midnight.
func Resolve(cue string, now time.Time) Window {
	today := StartOfDay(now)

	switch {
	case strings.Contains(cue, string(CueToday)):
		return Window{Start: today, End: today.Add(day)}
	case strings.Contains(cue, string(CueTomorrow)):
		return Window{Start: today.Add(day), End: today.Add(2 * day)}
	case strings.Contains(cue, string(CueThisWeek)):
		// Weeks begin on Sunday (time.Sunday == 0).
		start := today.Add(-time.Duration(today.Weekday()) * day)
		return Window{Start: start, End: start.Add(7 * day)}
	default:
		return Window{Start: today, End: today.Add(day)}
	}
}

// DetectCue returns the first recognized cue contained in text, compared
// case-insensitively.
func DetectCue(text string) (Cue, bool) {
	lower := strings.ToLower(text)
	for _, c := range cueOrder {
		if strings.Contains(lower, string(c)) {
			return c, true
		}
	}
	return "", false
}

// ResolveText detects a cue in free text and resolves it. The boolean is false
// when the text carries no cue, in which case the zero Window is returned.
func ResolveText(text string, now time.Time) (Window, Cue, bool) {
	cue, ok := DetectCue(text)
	if !ok {
		return Window{}, "", false
	}
	return Resolve(string(cue), now), cue, true
}
