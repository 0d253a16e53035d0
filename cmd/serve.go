package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calgate/internal/calendar"
	"github.com/teemow/calgate/internal/config"
	"github.com/teemow/calgate/internal/gateway"
	"github.com/teemow/calgate/internal/instrumentation"
	"github.com/teemow/calgate/internal/logging"
	"github.com/teemow/calgate/internal/resources"
	"github.com/teemow/calgate/internal/server"
)

// metricsStartupTimeout bounds the wait for the metrics listener.
const metricsStartupTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the calendar tool gateway",
		Long: `Start the calendar tool gateway.

Supports two transport types:
  - http: SSE discovery on GET /mcp-events and tool execution on
    POST /mcp/message (default)
  - stdio: MCP over standard input/output for local AI assistants

The http transport requires an API key in CALGATE_API_KEY (or API_KEY).
Clients send it in the X-API-Key header.

Settings can also come from CALGATE_* environment variables
(for example CALGATE_HTTP_ADDR) or a config file passed with --config.

Instrumentation is configured through environment variables:
  INSTRUMENTATION_ENABLED, METRICS_EXPORTER, TRACING_EXPORTER,
  OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_TRACES_SAMPLER_ARG,
  AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_CLIENT_ADDRESS`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, os.Stdin, os.Stdout, os.Stderr)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// In stdio mode stdout carries the protocol, so everything else goes
	// to stderr.
	diagOut := stdout
	if cfg.Transport == config.TransportStdio {
		diagOut = stderr
	}
	logger, err := logging.New(diagOut, cfg.Level(), cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Info("starting calgate", slog.String("version", version), slog.Any("config", cfg))

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instrConfig.Logger = logger
	instrConfig.ConsoleWriter = diagOut
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation settings: %w", err)
	}
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer stopWithin(server.DefaultShutdownTimeout, "instrumentation", provider.Shutdown, logger)

	sc, err := server.NewServerContext(ctx, calendar.NewClient())
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer stopWithin(server.DefaultShutdownTimeout, "server context", func(context.Context) error {
		return sc.Shutdown()
	}, logger)

	if provider.Enabled() {
		sc.SetMetrics(provider.Metrics())
		sc.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging))
	}
	dispatcher := gateway.NewDispatcher(sc.CalendarClient(), sc, logger)

	switch cfg.Transport {
	case config.TransportStdio:
		// No subscriptions or list_changed: the catalog is fixed at build time.
		mcpSrv := gateway.NewMCPServer(dispatcher, version, mcpserver.WithResourceCapabilities(false, false))
		resources.RegisterCatalogResources(mcpSrv, version)
		return runStdioServer(ctx, mcpSrv, stdin, stdout, logger)

	case config.TransportHTTP:
		if cfg.MetricsEnabled && provider.Enabled() {
			metricsServer, err := startMetricsServer(cfg.MetricsAddr, provider, logger)
			if err != nil {
				return err
			}
			defer stopWithin(10*time.Second, "metrics server", metricsServer.Shutdown, logger)
		}

		auth, err := gateway.NewAuthenticator(cfg.APIKey,
			gateway.WithAuthLogger(logger),
			gateway.WithAuthMetrics(sc.Metrics()),
		)
		if err != nil {
			return err
		}
		gw, err := server.NewGatewayServer(sc, server.GatewayServerConfig{
			Addr:              cfg.HTTPAddr,
			DiscoveryInterval: cfg.DiscoveryInterval,
			MaxBodyBytes:      cfg.MaxBodyBytes,
			Authenticator:     auth,
			Dispatcher:        dispatcher,
			Logger:            logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create gateway server: %w", err)
		}
		return runHTTPServer(ctx, gw, logger)
	}
	return fmt.Errorf("unsupported transport type: %s (supported: http, stdio)", cfg.Transport)
}

// stopWithin runs stop with a fresh timeout and logs its error. The serve
// context is already cancelled by the time deferred cleanups run.
func stopWithin(timeout time.Duration, what string, stop func(context.Context) error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Warn("error during shutdown", slog.String("component", what), logging.Err(err))
	}
}

// startMetricsServer returns once the metrics listener accepts connections.
func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	ms, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ready := make(chan struct{})
	failed := make(chan error, 1)
	go func() {
		if err := ms.StartWithReadySignal(ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case <-ready:
		return ms, nil
	case err := <-failed:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(metricsStartupTimeout):
		return nil, fmt.Errorf("metrics server did not start within %s", metricsStartupTimeout)
	}
}

// runHTTPServer serves the gateway until ctx is cancelled, then shuts it
// down gracefully.
func runHTTPServer(ctx context.Context, gw *server.GatewayServer, logger *slog.Logger) error {
	ready := make(chan struct{})
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := gw.StartWithReadySignal(ready); err != nil {
			serverDone <- err
		}
	}()

	// Shutdown before the listener exists would leave Serve running.
	select {
	case <-ready:
	case err := <-serverDone:
		return fmt.Errorf("gateway failed to start: %w", err)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := gw.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down gateway: %w", err)
		}
		if err := <-serverDone; err != nil {
			return fmt.Errorf("gateway stopped with error: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("gateway stopped with error: %w", err)
		}
	}

	logger.Info("gateway gracefully stopped")
	return nil
}

// runStdioServer speaks MCP over stdin/stdout until EOF or ctx is cancelled.
func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	stdio := mcpserver.NewStdioServer(mcpSrv)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))

	logger.Info("serving MCP over stdio")
	err := stdio.Listen(ctx, stdin, stdout)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
