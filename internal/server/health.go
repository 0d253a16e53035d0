package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/teemow/calgate/internal/gateway"
	"github.com/teemow/calgate/internal/tools/calendar_tools"
)

// Probe states.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthChecker answers the Kubernetes probes on the gateway listener and
// counts open discovery streams. Readiness drops as soon as shutdown
// begins so load balancers stop routing new streams to the instance.
type HealthChecker struct {
	sc      *ServerContext
	started time.Time
	ready   atomic.Bool
	streams atomic.Int64
}

// NewHealthChecker returns a checker that starts out ready. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, started: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state.
func (h *HealthChecker) SetReady(ready bool) { h.ready.Store(ready) }

// IsReady reports the readiness state set with SetReady.
func (h *HealthChecker) IsReady() bool { return h.ready.Load() }

// ActiveStreams returns the number of open discovery streams.
func (h *HealthChecker) ActiveStreams() int64 { return h.streams.Load() }

func (h *HealthChecker) streamOpened() { h.streams.Add(1) }
func (h *HealthChecker) streamClosed() { h.streams.Add(-1) }

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status           string            `json:"status"`
	Uptime           string            `json:"uptime"`
	Tools            int               `json:"tools"`
	DiscoveryStreams int64             `json:"discovery_streams"`
	Checks           map[string]string `json:"checks"`
}

// evaluate runs the readiness checks. status is the overall state and
// ok reports whether traffic should be routed here.
func (h *HealthChecker) evaluate() (checks map[string]string, status string, ok bool) {
	checks = map[string]string{"ready": healthStatusOK, "shutdown": healthStatusOK}
	status, ok = healthStatusOK, true

	if h.sc != nil && h.sc.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
		status, ok = healthStatusShuttingDown, false
	}
	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		status, ok = healthStatusNotReady, false
	}
	return checks, status, ok
}

func probeStatus(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// liveness only proves the process serves HTTP.
func (h *HealthChecker) liveness(w http.ResponseWriter, _ *http.Request) {
	gateway.WriteJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
}

func (h *HealthChecker) readiness(w http.ResponseWriter, _ *http.Request) {
	checks, _, ok := h.evaluate()
	status := healthStatusOK
	if !ok {
		status = healthStatusNotReady
	}
	gateway.WriteJSON(w, probeStatus(ok), HealthResponse{Status: status, Checks: checks})
}

func (h *HealthChecker) detailed(w http.ResponseWriter, _ *http.Request) {
	checks, status, ok := h.evaluate()
	gateway.WriteJSON(w, probeStatus(ok), DetailedHealthResponse{
		Status:           status,
		Uptime:           time.Since(h.started).Truncate(time.Second).String(),
		Tools:            len(calendar_tools.All()),
		DiscoveryStreams: h.ActiveStreams(),
		Checks:           checks,
	})
}

// Register adds /healthz, /readyz and /healthz/detailed to mux.
func (h *HealthChecker) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.liveness)
	mux.HandleFunc("GET /readyz", h.readiness)
	mux.HandleFunc("GET /healthz/detailed", h.detailed)
}
