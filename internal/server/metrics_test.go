package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calgate/internal/instrumentation"
)

func createTestProvider(t *testing.T, exporter string) *instrumentation.Provider {
	t.Helper()
	return newProvider(t, instrumentation.Config{
		ServiceName:     "calgate-test",
		Enabled:         true,
		MetricsExporter: exporter,
		TracingExporter: instrumentation.ExporterNone,
		Logger:          slog.New(slog.DiscardHandler),
		ConsoleWriter:   io.Discard,
	})
}

func newProvider(t *testing.T, cfg instrumentation.Config) *instrumentation.Provider {
	t.Helper()
	p, err := instrumentation.NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p
}

// serveMetrics starts s and waits for its listener.
func serveMetrics(t *testing.T, s *MetricsServer) <-chan error {
	t.Helper()
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- s.StartWithReadySignal(ready) }()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("metrics server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not become ready")
	}
	return done
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestNewMetricsServer_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		provider *instrumentation.Provider
		wantErr  string
	}{
		{name: "no provider", wantErr: "instrumentation provider is required"},
		{
			name:     "disabled provider",
			provider: newProvider(t, instrumentation.Config{}),
			wantErr:  "instrumentation provider is not enabled",
		},
		{
			name:     "push exporter",
			provider: createTestProvider(t, instrumentation.ExporterStdout),
			wantErr:  `"stdout"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMetricsServer(MetricsServerConfig{Addr: ":9090", Enabled: true, InstrumentationProvider: tt.provider})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewMetricsServer_Addr(t *testing.T) {
	provider := createTestProvider(t, instrumentation.ExporterPrometheus)

	s, err := NewMetricsServer(MetricsServerConfig{Enabled: true, InstrumentationProvider: provider})
	require.NoError(t, err)
	assert.Equal(t, DefaultMetricsAddr, s.Addr())

	s, err = NewMetricsServer(MetricsServerConfig{Addr: ":9091", Enabled: true, InstrumentationProvider: provider})
	require.NoError(t, err)
	assert.Equal(t, ":9091", s.Addr())
}

func TestMetricsServer_StartAndShutdown(t *testing.T) {
	provider := createTestProvider(t, instrumentation.ExporterPrometheus)
	provider.Metrics().RecordAuth(context.Background(), instrumentation.AuthResultInvalid)

	s, err := NewMetricsServer(MetricsServerConfig{Addr: "127.0.0.1:0", Enabled: true, InstrumentationProvider: provider})
	require.NoError(t, err)
	done := serveMetrics(t, s)

	require.NotContains(t, s.Addr(), ":0", "Addr reports the bound port once started")
	base := "http://" + s.Addr()

	code, body := get(t, base+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, body = get(t, base+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `gateway_auth_total{`)
	assert.Contains(t, body, `result="invalid"`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-done:
		if !errors.Is(err, http.ErrServerClosed) {
			assert.NoError(t, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop after Shutdown")
	}
}

func TestMetricsServer_CustomScrapePath(t *testing.T) {
	provider := newProvider(t, instrumentation.Config{
		Enabled:            true,
		MetricsExporter:    instrumentation.ExporterPrometheus,
		PrometheusEndpoint: "/internal/metrics",
		Logger:             slog.New(slog.DiscardHandler),
	})

	s, err := NewMetricsServer(MetricsServerConfig{Addr: "127.0.0.1:0", Enabled: true, InstrumentationProvider: provider})
	require.NoError(t, err)
	serveMetrics(t, s)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	code, _ := get(t, "http://"+s.Addr()+"/internal/metrics")
	assert.Equal(t, http.StatusOK, code)

	code, _ = get(t, "http://"+s.Addr()+"/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetricsServer_BindFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	s, err := NewMetricsServer(MetricsServerConfig{
		Addr:                    taken.Addr().String(),
		Enabled:                 true,
		InstrumentationProvider: createTestProvider(t, instrumentation.ExporterPrometheus),
	})
	require.NoError(t, err)

	ready := make(chan struct{})
	require.Error(t, s.StartWithReadySignal(ready))
	select {
	case <-ready:
		t.Error("ready closed although the listener failed")
	default:
	}
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	s, err := NewMetricsServer(MetricsServerConfig{
		Enabled:                 true,
		InstrumentationProvider: createTestProvider(t, instrumentation.ExporterPrometheus),
	})
	require.NoError(t, err)
	assert.NoError(t, s.Shutdown(context.Background()))
}
