package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/teemow/calgate/internal/gateway"
	"github.com/teemow/calgate/internal/instrumentation"
	"github.com/teemow/calgate/internal/logging"
)

// Gateway routes.
const (
	PathDiscovery = "/mcp-events"
	PathExecute   = "/mcp/message"
)

const (
	// DefaultHTTPAddr is the default gateway listen address.
	DefaultHTTPAddr = ":3000"

	// DefaultDiscoveryInterval is how often the tool list is re-announced.
	DefaultDiscoveryInterval = 30 * time.Second

	// DefaultMaxBodyBytes caps the size of an execution request body.
	DefaultMaxBodyBytes int64 = 1 << 20
)

var knownPaths = []string{PathDiscovery, PathExecute, "/healthz", "/readyz", "/healthz/detailed"}

// GatewayServerConfig holds configuration for the gateway HTTP server.
type GatewayServerConfig struct {
	// Addr is the listen address (default ":3000").
	Addr string

	// DiscoveryInterval is the re-announce period on discovery streams.
	// Zero sends the tool list once and keeps the stream open.
	DiscoveryInterval time.Duration

	// MaxBodyBytes caps execution request bodies (default 1 MiB).
	MaxBodyBytes int64

	// Authenticator guards the execution endpoint. Required.
	Authenticator *gateway.Authenticator

	// Dispatcher runs tool calls. Required.
	Dispatcher *gateway.Dispatcher

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// GatewayServer serves tool discovery and execution over HTTP.
type GatewayServer struct {
	sc         *ServerContext
	config     GatewayServerConfig
	health     *HealthChecker
	toolsEvent []byte
	logger     *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
}

// NewGatewayServer creates a gateway server bound to the lifetime of sc.
func NewGatewayServer(sc *ServerContext, config GatewayServerConfig) (*GatewayServer, error) {
	if sc == nil {
		return nil, fmt.Errorf("server context is required")
	}
	if config.Authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if config.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if config.DiscoveryInterval < 0 {
		return nil, fmt.Errorf("discovery interval must not be negative, got %s", config.DiscoveryInterval)
	}
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	event, err := toolsEvent(ToolDescriptors())
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool descriptors: %w", err)
	}

	return &GatewayServer{
		sc:         sc,
		config:     config,
		health:     NewHealthChecker(sc),
		toolsEvent: event,
		logger:     logging.WithTransport(config.Logger, instrumentation.TransportHTTP),
		addr:       config.Addr,
	}, nil
}

// Handler returns the gateway's routes wrapped in recovery and request
// instrumentation.
func (s *GatewayServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathDiscovery, s.handleDiscovery)
	mux.Handle("POST "+PathExecute, s.config.Authenticator.Middleware(http.HandlerFunc(s.handleExecute)))
	s.health.Register(mux)

	metrics := s.sc.Metrics()
	return instrumentationMiddleware(metrics, s.logger, knownPaths,
		recoveryMiddleware(metrics, s.logger, mux))
}

// Start serves until Shutdown.
func (s *GatewayServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal binds the listener, closes ready once it accepts
// connections, then serves until Shutdown.
func (s *GatewayServer) StartWithReadySignal(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Discovery streams clear their own write deadline.
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return s.sc.Context()
		},
		ErrorLog: slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("gateway listening",
		slog.String("addr", ln.Addr().String()),
		slog.String("discovery", PathDiscovery),
		slog.String("execute", PathExecute),
	)
	if ready != nil {
		close(ready)
	}

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server unready, cancels the server context to end
// discovery streams, then waits for in-flight requests.
func (s *GatewayServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	_ = s.sc.Shutdown()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logger.Info("shutting down gateway")
	return srv.Shutdown(ctx)
}

// Addr returns the listen address, or the bound address once started.
func (s *GatewayServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// writeError records and writes a failure envelope. Internal causes are
// logged here and never reach the client.
func (s *GatewayServer) writeError(w http.ResponseWriter, r *http.Request, err *gateway.Error) {
	s.sc.Metrics().RecordGatewayError(r.Context(), string(err.Kind))

	if err.Kind == gateway.KindInternal {
		s.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			logging.ErrorKind(string(err.Kind)),
			logging.Err(errors.Unwrap(err)),
		)
	} else {
		s.logger.Debug("request rejected",
			slog.String("path", r.URL.Path),
			logging.ErrorKind(string(err.Kind)),
			logging.Err(err),
		)
	}

	gateway.WriteError(w, err)
}
