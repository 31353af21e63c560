package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	for _, key := range []string{
		"OTEL_SERVICE_NAME", "INSTRUMENTATION_ENABLED", "METRICS_EXPORTER",
		"TRACING_EXPORTER", "OTEL_TRACES_SAMPLER_ARG", "AUDIT_LOGGING_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg := DefaultConfig()

	assert.Equal(t, "voicecal", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, ExporterPrometheus, cfg.MetricsExporter)
	assert.Equal(t, ExporterNone, cfg.TracingExporter)
	assert.InDelta(t, 0.1, cfg.TraceSamplingRate, 1e-9)
	assert.True(t, cfg.AuditLogging.Enabled)
	assert.False(t, cfg.AuditLogging.IncludePII)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "voicecal-staging")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("METRICS_EXPORTER", "stdout")
	t.Setenv("TRACING_EXPORTER", "stdout")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("AUDIT_LOGGING_INCLUDE_PII", "true")
	t.Setenv("METRICS_DETAILED_LABELS", "not-a-bool")

	cfg := DefaultConfig()

	assert.Equal(t, "voicecal-staging", cfg.ServiceName)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, ExporterStdout, cfg.MetricsExporter)
	assert.Equal(t, ExporterStdout, cfg.TracingExporter)
	assert.InDelta(t, 0.5, cfg.TraceSamplingRate, 1e-9)
	assert.True(t, cfg.AuditLogging.IncludePII)
	assert.False(t, cfg.DetailedLabels, "unparsable bool falls back")
}

func TestDefaultConfig_BadSamplingRateFallsBack(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "often")

	assert.InDelta(t, 0.1, DefaultConfig().TraceSamplingRate, 1e-9)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "empty exporters use defaults",
			config: Config{},
		},
		{
			name:   "prometheus without tracing",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone, TraceSamplingRate: 1},
		},
		{
			name:   "otlp tracing with endpoint",
			config: Config{TracingExporter: ExporterOTLP, OTLPEndpoint: "collector:4318"},
		},
		{
			name:    "negative sampling rate",
			config:  Config{TraceSamplingRate: -0.5},
			wantErr: "sampling rate",
		},
		{
			name:    "sampling rate above one",
			config:  Config{TraceSamplingRate: 1.5},
			wantErr: "sampling rate",
		},
		{
			name:    "unknown metrics exporter",
			config:  Config{MetricsExporter: "statsd"},
			wantErr: "unknown metrics exporter",
		},
		{
			name:    "unknown tracing exporter",
			config:  Config{TracingExporter: "jaeger"},
			wantErr: "unknown tracing exporter",
		},
		{
			name:    "otlp tracing without endpoint",
			config:  Config{TracingExporter: ExporterOTLP},
			wantErr: "OTEL_EXPORTER_OTLP_ENDPOINT",
		},
		{
			name:    "otlp metrics without endpoint",
			config:  Config{MetricsExporter: ExporterOTLP},
			wantErr: "OTEL_EXPORTER_OTLP_ENDPOINT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
