package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Provider owns the meter and tracer providers for one gateway process.
//
// Prometheus metrics go to a registry owned by the provider, not the
// process-global one, so tests can build several providers side by side.
type Provider struct {
	config   Config
	meters   *metric.MeterProvider
	tracers  *sdktrace.TracerProvider
	registry *promclient.Registry
	metrics  *Metrics
}

// NewProvider builds the exporters named in config and installs the
// resulting providers as the otel globals. A disabled config yields a
// provider whose Metrics records nothing.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if !config.Enabled {
		return &Provider{config: config, metrics: &Metrics{}}, nil
	}

	res, err := newResource(ctx, config)
	if err != nil {
		return nil, err
	}

	reader, registry, err := newMetricReader(ctx, config)
	if err != nil {
		return nil, err
	}
	p := &Provider{
		config:   config,
		registry: registry,
		meters:   metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(reader)),
	}

	spans, err := newSpanExporter(ctx, config)
	if err != nil {
		return nil, errors.Join(err, p.meters.Shutdown(ctx))
	}
	p.tracers = newTracerProvider(res, spans, config.TraceSamplingRate)

	p.metrics, err = NewMetrics(p.meters.Meter(config.ServiceName), config.DetailedLabels)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("registering gateway metrics: %w", err), p.Shutdown(ctx))
	}

	otel.SetMeterProvider(p.meters)
	otel.SetTracerProvider(p.tracers)
	return p, nil
}

// Metrics returns the recorder handed to the gateway components.
func (p *Provider) Metrics() *Metrics {
	return p.metrics
}

// Tracer returns a no-op tracer when instrumentation is disabled.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.tracers == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return p.tracers.Tracer(name)
}

// PrometheusHandler serves the provider's registry, or returns nil when
// metrics are pushed instead of scraped.
func (p *Provider) PrometheusHandler() http.Handler {
	if p.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(p.config.logger().Handler(), slog.LevelError),
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// MetricsPath is where PrometheusHandler should be mounted.
func (p *Provider) MetricsPath() string {
	if p.config.PrometheusEndpoint == "" {
		return DefaultPrometheusEndpoint
	}
	return p.config.PrometheusEndpoint
}

// Shutdown flushes pending telemetry. It is safe on a disabled provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.meters != nil {
		if err := p.meters.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	if p.tracers != nil {
		if err := p.tracers.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Enabled reports whether exporters were built.
func (p *Provider) Enabled() bool {
	return p.config.Enabled
}

// MetricsExporter returns the configured metrics exporter type.
func (p *Provider) MetricsExporter() string {
	return p.config.MetricsExporter
}
