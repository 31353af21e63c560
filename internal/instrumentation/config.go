package instrumentation

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid instrumentation config")

// Config selects exporters and labels for metrics, traces and the command
// audit log.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID falls back to the hostname when empty.
	ServiceInstanceID string
	K8sNamespace      string
	K8sPodName        string

	// Enabled=false keeps a no-op recorder; the audit log still follows
	// AuditLogging.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string
	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme.
	OTLPEndpoint string
	// OTLPInsecure disables TLS towards the collector. Local use only.
	OTLPInsecure bool

	// TraceSamplingRate is the parent-based ratio in [0, 1].
	TraceSamplingRate float64

	// DetailedLabels adds hashed user ids to tool metrics. Leave off in
	// production.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the command audit log.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs raw user ids next to their hashes.
	IncludePII bool
}

// DefaultConfig reads the instrumentation settings from the environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:       envString("OTEL_SERVICE_NAME", "voicecal"),
		ServiceVersion:    "unknown",
		ServiceInstanceID: envString("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:      envString("K8S_NAMESPACE", envString("POD_NAMESPACE", "")),
		K8sPodName:        envString("K8S_POD_NAME", envString("HOSTNAME", "")),
		Enabled:           envBool("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:   envString("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:   envString("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:      envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:      envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate: envFloat("OTEL_TRACES_SAMPLER_ARG", 0.1),
		DetailedLabels:    envBool("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    envBool("AUDIT_LOGGING_ENABLED", true),
			IncludePII: envBool("AUDIT_LOGGING_INCLUDE_PII", false),
		},
	}
}

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Validate reports the first unusable setting. Empty exporters mean the
// defaults.
func (c Config) Validate() error {
	switch {
	case c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1:
		return fmt.Errorf("%w: trace sampling rate %g is outside [0, 1]", ErrInvalidConfig, c.TraceSamplingRate)
	case c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter):
		return fmt.Errorf("%w: unknown metrics exporter %q", ErrInvalidConfig, c.MetricsExporter)
	case c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter):
		return fmt.Errorf("%w: unknown tracing exporter %q", ErrInvalidConfig, c.TracingExporter)
	case c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP):
		return fmt.Errorf("%w: otlp exporter needs OTEL_EXPORTER_OTLP_ENDPOINT", ErrInvalidConfig)
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	ProviderOpenAI     = "openai"
	ProviderCalendar   = "calendar"
	ProviderElevenLabs = "elevenlabs"
	ProviderGoogleAuth = "google_oauth"

	IntentDirectReply = "direct_reply"
	IntentListEvents  = "listEvents"
	IntentCreateEvent = "createEvent"
	IntentCurrentTime = "getCurrentTime"
	IntentUnsupported = "unsupported"

	OutcomeText           = "text"
	OutcomeSpeech         = "speech"
	OutcomeDegraded       = "degraded"
	OutcomeInvalidRequest = "invalid_request"
	OutcomeError          = "error"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
