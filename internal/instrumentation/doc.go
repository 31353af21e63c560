// Package instrumentation provides OpenTelemetry instrumentation for the
// voicecal service.
//
// This package enables observability through:
//   - OpenTelemetry metrics for HTTP requests, command dispatches and upstream calls
//   - Distributed tracing for the dispatch pipeline and every external call
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//   - Audit logging of handled commands with anonymized caller ids
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, route, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - http_inflight_requests: Gauge of requests being served
//
// Upstream Metrics:
//   - upstream_calls_total: Counter of calls by provider (openai, calendar, elevenlabs), operation, status
//   - upstream_call_duration_seconds: Histogram of upstream call durations
//
// Dispatch Metrics:
//   - command_dispatches_total: Counter of dispatched commands by intent and outcome
//   - command_dispatch_duration_seconds: Histogram of end-to-end dispatch durations
//   - speech_synthesis_degraded_total: Counter of responses downgraded to text only
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for:
//   - Command dispatch (assistant.dispatch)
//   - Upstream calls (<provider>.<operation>, e.g. openai.chat, calendar.list)
//   - MCP tool invocations (tool.<name>)
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: voicecal)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordUpstreamCall(ctx, instrumentation.ProviderOpenAI, instrumentation.OperationChat,
//		instrumentation.StatusSuccess, time.Since(start))
package instrumentation
