package server

import (
	"context"
	"log/slog"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teemow/calgate/internal/calendar"
	"github.com/teemow/calgate/internal/gateway"
)

const testAPIKey = "test-key"

// newTestGateway builds a gateway server over a deterministic calendar client.
func newTestGateway(t *testing.T, interval time.Duration) (*GatewayServer, *ServerContext) {
	t.Helper()

	client := calendar.NewClient(calendar.WithIDGenerator(func() string { return "evt_test" }))
	sc, err := NewServerContext(context.Background(), client)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })

	logger := slog.New(slog.DiscardHandler)
	auth, err := gateway.NewAuthenticator(testAPIKey, gateway.WithAuthLogger(logger))
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}

	s, err := NewGatewayServer(sc, GatewayServerConfig{
		DiscoveryInterval: interval,
		Authenticator:     auth,
		Dispatcher:        gateway.NewDispatcher(sc.CalendarClient(), sc, logger),
		Logger:            logger,
	})
	if err != nil {
		t.Fatalf("NewGatewayServer() error = %v", err)
	}
	return s, sc
}

// startTestServer serves s over a real listener whose request contexts
// derive from the server context, as in production.
func startTestServer(t *testing.T, s *GatewayServer) *httptest.Server {
	t.Helper()

	ts := httptest.NewUnstartedServer(s.Handler())
	ts.Config.BaseContext = func(net.Listener) context.Context { return s.sc.Context() }
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}
