package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Provider owns the meter and tracer providers plus the audit logger.
type Provider struct {
	config         Config
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	metrics        *Metrics
	audit          *AuditLogger
	scrape         bool
	enabled        bool
}

// NewNoopProvider returns a disabled provider. Its metrics recorder and
// audit logger accept calls and drop them.
func NewNoopProvider() *Provider {
	return &Provider{
		metrics: &Metrics{},
		audit:   NewAuditLoggerWithConfig(nil, AuditLoggingConfig{Enabled: false}),
	}
}

// NewProvider validates config, builds the exporters and installs them as
// the global otel providers. A disabled config yields a no-op provider that
// still honours the audit settings.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if !config.Enabled {
		p := NewNoopProvider()
		p.config = config
		p.audit = NewAuditLoggerWithConfig(slog.Default(), config.AuditLogging)
		return p, nil
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(resourceAttributes(config)...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	reader, err := newMetricReader(ctx, config)
	if err != nil {
		return nil, err
	}
	_, scrape := reader.(*prometheus.Exporter)

	p := &Provider{
		config:        config,
		enabled:       true,
		scrape:        scrape,
		audit:         NewAuditLoggerWithConfig(slog.Default().With("component", "audit"), config.AuditLogging),
		meterProvider: metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(reader)),
	}

	p.tracerProvider, err = newTracerProvider(ctx, config, res)
	if err != nil {
		return nil, errors.Join(err, p.meterProvider.Shutdown(ctx))
	}

	otel.SetMeterProvider(p.meterProvider)
	otel.SetTracerProvider(p.tracerProvider)

	p.metrics, err = NewMetrics(p.meterProvider.Meter(config.ServiceName), config.DetailedLabels)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create metrics recorder: %w", err), p.Shutdown(ctx))
	}
	return p, nil
}

func resourceAttributes(config Config) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
	}

	instance := config.ServiceInstanceID
	if instance == "" {
		instance, _ = os.Hostname()
	}
	if instance != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(instance))
	}
	if config.K8sNamespace != "" {
		attrs = append(attrs, semconv.K8SNamespaceName(config.K8sNamespace))
	}
	if config.K8sPodName != "" {
		attrs = append(attrs, semconv.K8SPodName(config.K8sPodName))
	}
	return attrs
}

// newMetricReader maps MetricsExporter to a reader. The prometheus exporter
// is itself a reader registered with the default Prometheus registry.
func newMetricReader(ctx context.Context, config Config) (metric.Reader, error) {
	switch config.MetricsExporter {
	case ExporterPrometheus, "":
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		return exporter, nil

	case ExporterOTLP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(config.OTLPEndpoint)}
		if config.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp metrics exporter: %w", err)
		}
		return metric.NewPeriodicReader(exporter), nil

	case ExporterStdout:
		slog.Warn("stdout metrics exporter is meant for local debugging", "component", "instrumentation")
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return metric.NewPeriodicReader(exporter), nil
	}
	return nil, fmt.Errorf("%w: unknown metrics exporter %q", ErrInvalidConfig, config.MetricsExporter)
}

func newTracerProvider(ctx context.Context, config Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)

	switch config.TracingExporter {
	case ExporterNone, "":
		return sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.NeverSample()),
		), nil

	case ExporterOTLP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.OTLPEndpoint)}
		if config.OTLPInsecure {
			// Span attributes carry intents and hashed caller ids.
			slog.Warn("otlp traces sent without TLS", "component", "instrumentation", "endpoint", config.OTLPEndpoint)
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, opts...)

	case ExporterStdout:
		slog.Warn("stdout trace exporter is meant for local debugging", "component", "instrumentation")
		exporter, err = stdouttrace.New()

	default:
		return nil, fmt.Errorf("%w: unknown tracing exporter %q", ErrInvalidConfig, config.TracingExporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s trace exporter: %w", config.TracingExporter, err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.TraceSamplingRate))),
	), nil
}

// Metrics returns the recorder shared by the dispatcher, gateways and
// HTTP middleware.
func (p *Provider) Metrics() *Metrics {
	return p.metrics
}

// Tracer returns a named tracer, or a no-op one when disabled.
func (p *Provider) Tracer(name string) trace.Tracer {
	if !p.enabled || p.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return p.tracerProvider.Tracer(name)
}

// AuditLogger returns the command audit logger.
func (p *Provider) AuditLogger() *AuditLogger {
	return p.audit
}

// MetricsHandler serves the default Prometheus registry, or nil unless the
// prometheus exporter is active.
func (p *Provider) MetricsHandler() http.Handler {
	if !p.scrape {
		return nil
	}
	return promhttp.Handler()
}

// Shutdown flushes pending telemetry.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled {
		return nil
	}

	var errs []error
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Enabled reports whether metrics and traces are exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.enabled
}
