// Package timewindow resolves lexical date cues such as "today", "tomorrow"
// and "this week" into concrete half-open time windows.
//
// Windows are anchored to local midnight of the reference instant, in the
// reference instant's own location:
//
//	w := timewindow.Resolve("tomorrow", time.Now())
//	// w.Start is tomorrow 00:00 local, w.End is the day after 00:00 local
//
// Resolution never fails: an unrecognized cue yields the "today" window.
package timewindow
