// Package instrumentation wires OpenTelemetry into the gateway.
//
// A Provider is built once per process from DefaultConfig, which reads the
// usual OTEL_* variables plus METRICS_EXPORTER, TRACING_EXPORTER,
// PROMETHEUS_ENDPOINT and the AUDIT_LOGGING_* switches. Metrics are scraped
// from a Prometheus registry owned by the provider unless an otlp or stdout
// exporter is selected. Tracing is off unless TRACING_EXPORTER names one.
//
// Instruments recorded by Metrics:
//
//	http_requests_total, http_request_duration_seconds  by method, path, status
//	gateway_auth_total                                  by API key check result
//	gateway_errors_total                                by error kind
//	discovery_streams_active, discovery_events_total
//	mcp_tool_invocations_total, mcp_tool_duration_seconds  by tool, transport, status
//
// Request paths pass through NormalizePath so that unknown routes share
// one label value. Every tool call gets a server span named after the tool
// and, when audit logging is on, one line from AuditLogger.
package instrumentation
