// Package server provides the HTTP API of the voice assistant.
//
// # Key Components
//
// ServerContext holds the read-only collaborators shared by all requests
// and by the MCP tools: the command handler, the optional calendar and speech
// gateways, the clock, and the Google OAuth client registration used by the
// consent routes.
//
// NewRouter builds the gin engine with request ids, access logging, HTTP
// metrics and CORS. Routes:
//   - POST /api/process-command and /api/process-command-enhanced
//   - GET /api/voices and POST /api/stream-tts
//   - POST /api/elevenlabs-webhook
//   - GET /auth/google and /auth/google/callback
//   - GET /health, /healthz, /readyz and /healthz/detailed
//
// Every failed request answers with an ErrorResponse. Client mistakes map to
// 400, upstream and internal failures to 500.
//
// APIServer and MetricsServer run the API and the Prometheus scrape endpoint
// on separate listeners.
package server
