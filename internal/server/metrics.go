package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/teemow/calgate/internal/instrumentation"
)

const (
	DefaultMetricsAddr = ":9090"

	// Timeouts of the metrics listener. Scrapes are small and quick.
	DefaultMetricsReadTimeout  = 10 * time.Second
	DefaultMetricsWriteTimeout = 10 * time.Second
	DefaultMetricsIdleTimeout  = 60 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown of any listener.
	DefaultShutdownTimeout = 30 * time.Second
)

// MetricsServerConfig configures the metrics listener.
type MetricsServerConfig struct {
	// Addr defaults to DefaultMetricsAddr.
	Addr    string
	Enabled bool

	// InstrumentationProvider must be enabled and use the Prometheus exporter.
	InstrumentationProvider *instrumentation.Provider

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// MetricsServer serves the Prometheus scrape endpoint on its own port so
// that it stays off the listener API clients reach.
type MetricsServer struct {
	mux    *http.ServeMux
	logger *slog.Logger

	mu   sync.Mutex
	addr string
	srv  *http.Server
}

// NewMetricsServer mounts the provider's scrape handler at its configured
// path next to a plain /healthz.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	p := config.InstrumentationProvider
	switch {
	case p == nil:
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	case !p.Enabled():
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}

	scrape := p.PrometheusHandler()
	if scrape == nil {
		return nil, fmt.Errorf("metrics exporter %q does not serve a scrape endpoint", p.MetricsExporter())
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+p.MetricsPath(), scrape)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	s := &MetricsServer{mux: mux, addr: config.Addr, logger: config.Logger}
	if s.addr == "" {
		s.addr = DefaultMetricsAddr
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With(slog.String("component", "metrics"))
	return s, nil
}

// Start serves until Shutdown.
func (s *MetricsServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal binds the listener, closes ready once it accepts
// connections and serves until Shutdown. A bind failure is returned
// without closing ready.
func (s *MetricsServer) StartWithReadySignal(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}

	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.srv = srv
	s.mu.Unlock()

	s.logger.Info("metrics listener started", slog.String("addr", ln.Addr().String()))
	if ready != nil {
		close(ready)
	}
	return srv.Serve(ln)
}

// Shutdown stops the listener. It is a no-op before Start.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logger.Info("stopping metrics listener")
	return srv.Shutdown(ctx)
}

// Addr is the configured address until the server starts, then the bound one.
func (s *MetricsServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
