package instrumentation

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"time"
)

// DefaultServiceName is reported as service.name unless OTEL_SERVICE_NAME is set.
const DefaultServiceName = "calgate"

// DefaultPrometheusEndpoint is the scrape path on the metrics listener.
const DefaultPrometheusEndpoint = "/metrics"

// Label values shared by the gateway metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	AuthResultSuccess = "success"
	AuthResultMissing = "missing"
	AuthResultInvalid = "invalid"

	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Exporter names accepted in Config.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// DefaultMetricInterval is the push interval for periodic metric readers.
const DefaultMetricInterval = 10 * time.Second

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config controls which exporters the Provider builds. It is read from the
// standard OTEL_* variables plus a few gateway-specific ones rather than
// from the gateway config file, so collectors can be wired by the platform.
type Config struct {
	ServiceName       string
	ServiceVersion    string
	ServiceInstanceID string // defaults to the hostname
	K8sNamespace      string
	K8sPodName        string

	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string
	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme, e.g. "localhost:4318".
	OTLPEndpoint string
	OTLPInsecure bool

	TraceSamplingRate float64

	// PrometheusEndpoint is the scrape path served by the metrics listener.
	PrometheusEndpoint string

	// DetailedLabels adds the anonymized caller to tool metrics. Every
	// distinct client becomes a series, so leave it off in production.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig

	// Logger receives exporter warnings and scrape errors.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// ConsoleWriter is where the stdout exporters write. Defaults to
	// os.Stdout; the stdio transport points it at stderr.
	ConsoleWriter io.Writer
}

// AuditLoggingConfig controls the audit trail of tool calls.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludeClientAddress logs raw remote addresses instead of hashed
	// client identifiers.
	IncludeClientAddress bool
}

// DefaultConfig reads the instrumentation settings from the environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:        envString("OTEL_SERVICE_NAME", DefaultServiceName),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  envString("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:       envString("K8S_NAMESPACE", envString("POD_NAMESPACE", "")),
		K8sPodName:         envString("K8S_POD_NAME", envString("HOSTNAME", "")),
		Enabled:            envBool("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:    envString("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:    envString("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate:  envFloat("OTEL_TRACES_SAMPLER_ARG", 0.1),
		PrometheusEndpoint: envString("PROMETHEUS_ENDPOINT", DefaultPrometheusEndpoint),
		DetailedLabels:     envBool("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:              envBool("AUDIT_LOGGING_ENABLED", true),
			IncludeClientAddress: envBool("AUDIT_LOGGING_INCLUDE_CLIENT_ADDRESS", false),
		},
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be within [0, 1], got %g", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("metrics exporter %q is not one of %v", c.MetricsExporter, metricsExporters)
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("tracing exporter %q is not one of %v", c.TracingExporter, tracingExporters)
	}
	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		return fmt.Errorf("the otlp exporter needs OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if c.PrometheusEndpoint != "" && c.PrometheusEndpoint[0] != '/' {
		return fmt.Errorf("prometheus endpoint must start with '/', got %q", c.PrometheusEndpoint)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) consoleWriter() io.Writer {
	if c.ConsoleWriter != nil {
		return c.ConsoleWriter
	}
	return os.Stdout
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// envBool and envFloat ignore unparsable values rather than failing startup.
func envBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(envString(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return b
}

func envFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(envString(key, ""), 64)
	if err != nil {
		return fallback
	}
	return f
}
