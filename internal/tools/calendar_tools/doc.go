// Package calendar_tools provides MCP (Model Context Protocol) tools for the
// configured Google Calendar.
//
// The tools expose the same two operations the assistant dispatches to:
// listing events in a window and creating an event. A window may be given
// as explicit RFC3339 bounds or as a relative cue ("today", "tomorrow",
// "this week") resolved in the server's zone.
package calendar_tools
