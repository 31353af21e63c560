package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// withSpanRecorder installs a recording tracer provider for the duration of the test.
func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})

	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.Emit()
	}
	return m
}

func TestSpanAttributeBuilder(t *testing.T) {
	tests := []struct {
		name  string
		build func(*SpanAttributeBuilder) *SpanAttributeBuilder
		want  map[string]string
	}{
		{
			name: "all set",
			build: func(b *SpanAttributeBuilder) *SpanAttributeBuilder {
				return b.WithIntent(IntentListEvents).
					WithUserHash("user:abcdef").
					WithRequestID("req-1").
					WithVoice("21m00Tcm4TlvDq8ikWAM").
					WithReason("circuit_open").
					WithResource("evt-1")
			},
			want: map[string]string{
				SpanAttrIntent:     IntentListEvents,
				SpanAttrUserHash:   "user:abcdef",
				SpanAttrRequestID:  "req-1",
				SpanAttrVoice:      "21m00Tcm4TlvDq8ikWAM",
				SpanAttrReason:     "circuit_open",
				SpanAttrResourceID: "evt-1",
			},
		},
		{
			name: "empty values skipped",
			build: func(b *SpanAttributeBuilder) *SpanAttributeBuilder {
				return b.WithIntent("").WithUserHash("").WithRequestID("req-2").WithResource("")
			},
			want: map[string]string{SpanAttrRequestID: "req-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attrMap(tt.build(NewSpanAttributeBuilder()).Build()))
		})
	}
}

func TestStartUpstreamSpan(t *testing.T) {
	recorder := withSpanRecorder(t)

	_, span := StartUpstreamSpan(context.Background(), ProviderElevenLabs, OperationSynthesize)
	EndSpan(span, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "elevenlabs.synthesize", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, ProviderElevenLabs, attrMap(spans[0].Attributes())[SpanAttrProvider])
}

func TestStartDispatchSpan_Nesting(t *testing.T) {
	recorder := withSpanRecorder(t)

	ctx, parent := StartDispatchSpan(context.Background())
	_, child := StartUpstreamSpan(ctx, ProviderOpenAI, OperationChat)
	EndSpan(child, errors.New("boom"))
	EndSpan(parent, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "openai.chat", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1, "error recorded as event")
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, "assistant.dispatch", spans[1].Name())
}

func TestStartToolSpan(t *testing.T) {
	recorder := withSpanRecorder(t)

	_, span := StartToolSpan(context.Background(), "assistant_process_command",
		NewSpanAttributeBuilder().WithUserHash("user:abcdef").Build()...)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.assistant_process_command", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "assistant_process_command", attrs[SpanAttrTool])
	assert.Equal(t, "user:abcdef", attrs[SpanAttrUserHash])
}

func TestAddSpanEvent(t *testing.T) {
	recorder := withSpanRecorder(t)

	ctx, span := StartDispatchSpan(context.Background())
	AddSpanEvent(ctx, "synthesis_degraded", NewSpanAttributeBuilder().WithReason("timeout").Build()...)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "synthesis_degraded", spans[0].Events()[0].Name)
	assert.Equal(t, "timeout", attrMap(spans[0].Events()[0].Attributes)[SpanAttrReason])
}

func TestAddSpanEvent_NoSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		AddSpanEvent(context.Background(), "synthesis_degraded")
	})
}
