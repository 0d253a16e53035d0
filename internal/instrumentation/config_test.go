package instrumentation

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var instrumentationEnv = []string{
	"OTEL_SERVICE_NAME", "INSTRUMENTATION_ENABLED", "METRICS_EXPORTER",
	"TRACING_EXPORTER", "OTEL_TRACES_SAMPLER_ARG", "AUDIT_LOGGING_ENABLED",
	"AUDIT_LOGGING_INCLUDE_CLIENT_ADDRESS", "METRICS_DETAILED_LABELS",
	"PROMETHEUS_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT",
}

func unsetInstrumentationEnv(t *testing.T) {
	t.Helper()
	for _, key := range instrumentationEnv {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	unsetInstrumentationEnv(t)

	c := DefaultConfig()

	assert.Equal(t, DefaultServiceName, c.ServiceName)
	assert.True(t, c.Enabled)
	assert.Equal(t, ExporterPrometheus, c.MetricsExporter)
	assert.Equal(t, ExporterNone, c.TracingExporter)
	assert.InDelta(t, 0.1, c.TraceSamplingRate, 1e-9)
	assert.Equal(t, DefaultPrometheusEndpoint, c.PrometheusEndpoint)
	assert.True(t, c.AuditLogging.Enabled)
	assert.False(t, c.AuditLogging.IncludeClientAddress, "client addresses are hashed by default")
	assert.NoError(t, c.Validate())
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	unsetInstrumentationEnv(t)
	t.Setenv("OTEL_SERVICE_NAME", "calgate-staging")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("METRICS_EXPORTER", ExporterStdout)
	t.Setenv("TRACING_EXPORTER", ExporterStdout)
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("METRICS_DETAILED_LABELS", "true")
	t.Setenv("PROMETHEUS_ENDPOINT", "/internal/metrics")

	c := DefaultConfig()

	assert.Equal(t, "calgate-staging", c.ServiceName)
	assert.False(t, c.Enabled)
	assert.Equal(t, ExporterStdout, c.MetricsExporter)
	assert.Equal(t, ExporterStdout, c.TracingExporter)
	assert.InDelta(t, 0.5, c.TraceSamplingRate, 1e-9)
	assert.True(t, c.DetailedLabels)
	assert.Equal(t, "/internal/metrics", c.PrometheusEndpoint)
}

func TestDefaultConfig_UnparsableValuesFallBack(t *testing.T) {
	unsetInstrumentationEnv(t)
	t.Setenv("INSTRUMENTATION_ENABLED", "maybe")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "lots")

	c := DefaultConfig()

	assert.True(t, c.Enabled)
	assert.InDelta(t, 0.1, c.TraceSamplingRate, 1e-9)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{name: "zero value", config: Config{}},
		{
			name:   "otlp tracing with endpoint",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"},
		},
		{name: "negative sampling rate", config: Config{TraceSamplingRate: -0.5}, wantErr: "sampling rate"},
		{name: "sampling rate above one", config: Config{TraceSamplingRate: 1.5}, wantErr: "sampling rate"},
		{name: "unknown metrics exporter", config: Config{MetricsExporter: "statsd"}, wantErr: `metrics exporter "statsd"`},
		{name: "unknown tracing exporter", config: Config{TracingExporter: "jaeger"}, wantErr: `tracing exporter "jaeger"`},
		{name: "otlp tracing without endpoint", config: Config{TracingExporter: ExporterOTLP}, wantErr: "OTEL_EXPORTER_OTLP_ENDPOINT"},
		{name: "otlp metrics without endpoint", config: Config{MetricsExporter: ExporterOTLP}, wantErr: "OTEL_EXPORTER_OTLP_ENDPOINT"},
		{name: "relative scrape path", config: Config{PrometheusEndpoint: "metrics"}, wantErr: "must start with '/'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_LoggerAndConsoleDefaults(t *testing.T) {
	var c Config
	assert.Same(t, slog.Default(), c.logger())
	assert.Equal(t, os.Stdout, c.consoleWriter())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c = Config{Logger: logger, ConsoleWriter: &buf}
	assert.Same(t, logger, c.logger())
	assert.Same(t, &buf, c.consoleWriter())
}
