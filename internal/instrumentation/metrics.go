package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrResult    = "result"
	attrKind      = "kind"
	attrTool      = "tool"
	attrTransport = "transport"
	attrCaller    = "caller"
)

var (
	httpBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10}
	// Mocked tools answer in microseconds; keep resolution at the low end.
	toolBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}
)

// Metrics records the gateway's instruments. A nil or zero Metrics is a
// valid recorder that drops everything.
type Metrics struct {
	httpRequests *instrumentPair

	authTotal   metric.Int64Counter
	errorsTotal metric.Int64Counter

	discoveryStreams metric.Int64UpDownCounter
	discoveryEvents  metric.Int64Counter

	toolInvocations *instrumentPair

	// detailedLabels adds the caller label to tool metrics.
	detailedLabels bool
}

// instrumentPair is a request counter with its latency histogram.
type instrumentPair struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
}

func (p *instrumentPair) record(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	opt := metric.WithAttributes(attrs...)
	p.count.Add(ctx, 1, opt)
	p.duration.Record(ctx, d.Seconds(), opt)
}

// NewMetrics creates every gateway instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	var errs []error
	check := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		check(name, err)
		return c
	}
	pair := func(countName, durationName, desc, unit string, buckets []float64) *instrumentPair {
		h, err := meter.Float64Histogram(durationName,
			metric.WithDescription(desc+" duration in seconds"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(buckets...))
		check(durationName, err)
		return &instrumentPair{count: counter(countName, desc+"s", unit), duration: h}
	}

	m := &Metrics{detailedLabels: detailedLabels}
	m.httpRequests = pair("http_requests_total", "http_request_duration_seconds", "HTTP request", "{request}", httpBuckets)
	m.toolInvocations = pair("mcp_tool_invocations_total", "mcp_tool_duration_seconds", "MCP tool invocation", "{invocation}", toolBuckets)
	m.authTotal = counter("gateway_auth_total", "API key checks by result", "{attempt}")
	m.errorsTotal = counter("gateway_errors_total", "Error responses by kind", "{error}")
	m.discoveryEvents = counter("discovery_events_total", "Tool announcements written to discovery streams", "{event}")

	var err error
	m.discoveryStreams, err = meter.Int64UpDownCounter("discovery_streams_active",
		metric.WithDescription("Open discovery event streams"),
		metric.WithUnit("{stream}"))
	check("discovery_streams_active", err)

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("creating gateway instruments: %w", err)
	}
	return m, nil
}

func (m *Metrics) on() bool {
	return m != nil && m.authTotal != nil
}

// RecordHTTPRequest expects a path already passed through NormalizePath.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if !m.on() {
		return
	}
	m.httpRequests.record(ctx, duration,
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
}

// RecordAuth counts one API key check. result is one of the AuthResult
// constants.
func (m *Metrics) RecordAuth(ctx context.Context, result string) {
	if !m.on() {
		return
	}
	m.authTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordGatewayError counts an error response by kind, e.g. "validation_error".
func (m *Metrics) RecordGatewayError(ctx context.Context, kind string) {
	if !m.on() {
		return
	}
	m.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrKind, kind)))
}

// RecordToolInvocation records one tool call without a caller label.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, transport, status string, duration time.Duration) {
	m.RecordToolInvocationWithCaller(ctx, toolName, transport, status, "", duration)
}

// RecordToolInvocationWithCaller records one tool call. caller, which
// should already be anonymized, is only attached with detailed labels.
func (m *Metrics) RecordToolInvocationWithCaller(ctx context.Context, toolName, transport, status, caller string, duration time.Duration) {
	if !m.on() {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if transport != "" {
		attrs = append(attrs, attribute.String(attrTransport, transport))
	}
	if m.detailedLabels && caller != "" {
		attrs = append(attrs, attribute.String(attrCaller, caller))
	}
	m.toolInvocations.record(ctx, duration, attrs...)
}

func (m *Metrics) IncrementDiscoveryStreams(ctx context.Context) {
	if m.on() {
		m.discoveryStreams.Add(ctx, 1)
	}
}

func (m *Metrics) DecrementDiscoveryStreams(ctx context.Context) {
	if m.on() {
		m.discoveryStreams.Add(ctx, -1)
	}
}

// RecordDiscoveryEvent counts one announcement written to a stream.
func (m *Metrics) RecordDiscoveryEvent(ctx context.Context) {
	if m.on() {
		m.discoveryEvents.Add(ctx, 1)
	}
}
