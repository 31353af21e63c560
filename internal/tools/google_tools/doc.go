// Package google_tools provides MCP tools for authorizing Google Calendar access.
//
// The tools mirror the /auth/google routes of the HTTP API: one returns the
// consent URL, the other exchanges the returned code for the refresh token
// that must be placed in GOOGLE_REFRESH_TOKEN.
package google_tools
