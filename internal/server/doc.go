// Package server hosts the gateway's HTTP surface and the shared server
// context.
//
// # Key Components
//
// ServerContext owns the calendar client and the optional metrics and
// audit recorders. Cancelling it ends every discovery stream.
//
// GatewayServer serves:
//   - GET /mcp-events: an SSE stream announcing the tool descriptors
//   - POST /mcp/message: authenticated tool execution
//   - /healthz, /readyz, /healthz/detailed: probes
//
// MetricsServer exposes Prometheus metrics on a separate listener so the
// scrape endpoint is not reachable through the gateway port.
package server
