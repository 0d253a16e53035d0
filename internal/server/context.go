package server

import (
	"context"
	"sync"

	"github.com/teemow/calgate/internal/calendar"
	"github.com/teemow/calgate/internal/instrumentation"
)

// ServerContext holds the long-lived dependencies shared by every transport.
// Cancelling it ends all discovery streams.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	calendar    *calendar.Client
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context. A nil client gets the
// default mock calendar.
func NewServerContext(ctx context.Context, client *calendar.Client) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	if client == nil {
		client = calendar.NewClient()
	}

	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		calendar: client,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// CalendarClient returns the calendar backend.
func (sc *ServerContext) CalendarClient() *calendar.Client {
	return sc.calendar
}

// Metrics returns the metrics recorder, or nil if instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc == nil {
		return nil
	}
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, or nil if audit logging is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	if sc == nil {
		return nil
	}
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
