package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer every span in this module comes from.
const TracerName = "github.com/teemow/voicecal"

// Span attribute keys.
const (
	SpanAttrTool       = "mcp.tool"
	SpanAttrProvider   = "upstream.provider"
	SpanAttrOperation  = "upstream.operation"
	SpanAttrResourceID = "upstream.resource_id"
	SpanAttrIntent     = "assistant.intent"
	SpanAttrUserHash   = "assistant.user_hash"
	SpanAttrRequestID  = "http.request_id"
	SpanAttrVoice      = "speech.voice"
	SpanAttrReason     = "speech.degrade_reason"
)

// SpanAttributeBuilder collects string attributes and skips empty values,
// so optional request fields can be chained without checks.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{}
}

func (b *SpanAttributeBuilder) with(key, value string) *SpanAttributeBuilder {
	if value != "" {
		b.attrs = append(b.attrs, attribute.String(key, value))
	}
	return b
}

// WithIntent sets the function the model chose.
func (b *SpanAttributeBuilder) WithIntent(intent string) *SpanAttributeBuilder {
	return b.with(SpanAttrIntent, intent)
}

// WithUserHash expects an already anonymized id.
func (b *SpanAttributeBuilder) WithUserHash(userHash string) *SpanAttributeBuilder {
	return b.with(SpanAttrUserHash, userHash)
}

func (b *SpanAttributeBuilder) WithRequestID(requestID string) *SpanAttributeBuilder {
	return b.with(SpanAttrRequestID, requestID)
}

func (b *SpanAttributeBuilder) WithVoice(voiceID string) *SpanAttributeBuilder {
	return b.with(SpanAttrVoice, voiceID)
}

func (b *SpanAttributeBuilder) WithReason(reason string) *SpanAttributeBuilder {
	return b.with(SpanAttrReason, reason)
}

// WithResource sets an event or voice id.
func (b *SpanAttributeBuilder) WithResource(resourceID string) *SpanAttributeBuilder {
	return b.with(SpanAttrResourceID, resourceID)
}

func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

func startSpan(ctx context.Context, name string, kind trace.SpanKind, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(kind),
	)
}

// StartToolSpan starts the server span for one MCP tool call, named
// tool.<name>.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return startSpan(ctx, "tool."+toolName, trace.SpanKindServer,
		append([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, attrs...))
}

// StartUpstreamSpan starts a client span named <provider>.<operation>.
func StartUpstreamSpan(ctx context.Context, provider, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return startSpan(ctx, provider+"."+operation, trace.SpanKindClient,
		append([]attribute.KeyValue{
			attribute.String(SpanAttrProvider, provider),
			attribute.String(SpanAttrOperation, operation),
		}, attrs...))
}

// StartDispatchSpan starts the span that parents every upstream call made
// for one command.
func StartDispatchSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return startSpan(ctx, "assistant.dispatch", trace.SpanKindInternal, attrs)
}

// EndSpan sets the status from err and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the span carried by ctx. It is a no-op
// without a recording span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}
