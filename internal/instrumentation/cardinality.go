package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// Function names are chosen by the language model and request paths come from
// clients, so neither can be used as a label verbatim.

// knownIntents is the closed set of function names the assistant dispatches.
var knownIntents = map[string]bool{
	IntentDirectReply: true,
	IntentListEvents:  true,
	IntentCreateEvent: true,
	IntentCurrentTime: true,
}

// knownRoutes is the set of routes served by the HTTP API.
var knownRoutes = map[string]bool{
	"/api/process-command":          true,
	"/api/process-command-enhanced": true,
	"/api/voices":                   true,
	"/api/stream-tts":               true,
	"/api/elevenlabs-webhook":       true,
	"/auth/google":                  true,
	"/auth/google/callback":         true,
	"/health":                       true,
	"/healthz":                      true,
	"/readyz":                       true,
	"/healthz/detailed":             true,
}

// NormalizeIntent maps a function name to a bounded label value.
//
// Example:
//
//	NormalizeIntent("listEvents")   // "listEvents"
//	NormalizeIntent("deleteEvent")  // "unsupported"
//	NormalizeIntent("")             // "unknown"
func NormalizeIntent(name string) string {
	if name == "" {
		return StatusUnknown
	}
	if knownIntents[name] {
		return name
	}
	return IntentUnsupported
}

// NormalizeRoute maps a request path to a bounded label value.
// Query strings and trailing slashes are ignored; unknown paths collapse to "other".
func NormalizeRoute(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// Common operation types for upstream metrics.
// Status, provider, and intent constants are defined in config.go.
const (
	OperationChat       = "chat"
	OperationList       = "list"
	OperationCreate     = "create"
	OperationSynthesize = "synthesize"
	OperationStream     = "stream"
	OperationVoices     = "voices"
	OperationExchange   = "exchange"
)
