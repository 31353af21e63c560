package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	// Common attributes (reused across metrics)
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrProvider  = "provider"
	attrIntent    = "intent"
	attrOutcome   = "outcome"
	attrReason    = "reason"
	attrTool      = "tool"
	attrUser      = "user"
)

// Metrics provides methods for recording observability metrics.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	inflightRequests    metric.Int64UpDownCounter

	// Upstream provider metrics (openai, calendar, elevenlabs)
	upstreamCallsTotal   metric.Int64Counter
	upstreamCallDuration metric.Float64Histogram

	// Command dispatch metrics
	dispatchesTotal       metric.Int64Counter
	dispatchDuration      metric.Float64Histogram
	synthesisDegradations metric.Int64Counter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.inflightRequests, err = meter.Int64UpDownCounter(
		"http_inflight_requests",
		metric.WithDescription("Number of HTTP requests currently being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_inflight_requests gauge: %w", err)
	}

	// Upstream Metrics
	m.upstreamCallsTotal, err = meter.Int64Counter(
		"upstream_calls_total",
		metric.WithDescription("Total number of calls to external providers"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream_calls_total counter: %w", err)
	}

	m.upstreamCallDuration, err = meter.Float64Histogram(
		"upstream_call_duration_seconds",
		metric.WithDescription("External provider call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream_call_duration_seconds histogram: %w", err)
	}

	// Dispatch Metrics
	m.dispatchesTotal, err = meter.Int64Counter(
		"command_dispatches_total",
		metric.WithDescription("Total number of dispatched voice commands"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create command_dispatches_total counter: %w", err)
	}

	m.dispatchDuration, err = meter.Float64Histogram(
		"command_dispatch_duration_seconds",
		metric.WithDescription("End-to-end command dispatch duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create command_dispatch_duration_seconds histogram: %w", err)
	}

	m.synthesisDegradations, err = meter.Int64Counter(
		"speech_synthesis_degraded_total",
		metric.WithDescription("Responses downgraded to text because speech synthesis failed"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech_synthesis_degraded_total counter: %w", err)
	}

	// MCP Tool Metrics
	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, route, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, NormalizeRoute(path)),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// IncrementInflight increments the in-flight request gauge.
func (m *Metrics) IncrementInflight(ctx context.Context) {
	if m == nil || m.inflightRequests == nil {
		return
	}
	m.inflightRequests.Add(ctx, 1)
}

// DecrementInflight decrements the in-flight request gauge.
func (m *Metrics) DecrementInflight(ctx context.Context) {
	if m == nil || m.inflightRequests == nil {
		return
	}
	m.inflightRequests.Add(ctx, -1)
}

// RecordUpstreamCall records a call to an external provider.
//
// Parameters:
//   - provider: external provider (openai, calendar, elevenlabs)
//   - operation: operation type (chat, list, create, synthesize, stream, voices)
//   - status: result status ("success" or "error")
//   - duration: time taken for the call
func (m *Metrics) RecordUpstreamCall(ctx context.Context, provider, operation, status string, duration time.Duration) {
	if m == nil || m.upstreamCallsTotal == nil || m.upstreamCallDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrProvider, provider),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.upstreamCallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.upstreamCallDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordDispatch records one completed command dispatch.
// The intent label is normalized so arbitrary model-chosen names cannot
// inflate cardinality.
func (m *Metrics) RecordDispatch(ctx context.Context, intent, outcome string, duration time.Duration) {
	if m == nil || m.dispatchesTotal == nil || m.dispatchDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrIntent, NormalizeIntent(intent)),
		attribute.String(attrOutcome, outcome),
	}

	m.dispatchesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordSynthesisDegraded records a response that fell back to text only.
func (m *Metrics) RecordSynthesisDegraded(ctx context.Context, reason string) {
	if m == nil || m.synthesisDegradations == nil {
		return
	}

	m.synthesisDegradations.Add(ctx, 1, metric.WithAttributes(attribute.String(attrReason, reason)))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	m.RecordToolInvocationWithUser(ctx, toolName, status, "", duration)
}

// RecordToolInvocationWithUser records an MCP tool invocation with user info.
// The user label is only attached when detailedLabels is enabled.
func (m *Metrics) RecordToolInvocationWithUser(ctx context.Context, toolName, status, user string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && user != "" {
		attrs = append(attrs, attribute.String(attrUser, user))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// StatusFromError maps an error to a metric status label.
func StatusFromError(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}
