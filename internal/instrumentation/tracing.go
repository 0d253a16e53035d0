package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies spans emitted by the gateway.
const TracerName = "github.com/teemow/calgate"

// Span attribute keys.
const (
	AttrTool      = "calgate.tool"
	AttrTransport = "calgate.transport"
	AttrEventID   = "calgate.event_id"
	AttrErrorKind = "calgate.error_kind"
	AttrToolCount = "calgate.tool_count"
)

// Spans go through the global provider so that NewProvider, or a test
// recorder, decides where they end up.
func tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartSpan starts an internal span. The caller ends it.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts the server span of one tool call, named after the tool.
func StartToolSpan(ctx context.Context, tool, transport string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String(AttrTool, tool)}
	if transport != "" {
		attrs = append(attrs, attribute.String(AttrTransport, transport))
	}
	return tracer().Start(ctx, tool,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
}

// EndToolSpan records the outcome of a tool call and ends span.
// kind is only used when err is non-nil.
func EndToolSpan(span trace.Span, eventID, kind string, err error) {
	defer span.End()

	if eventID != "" {
		span.SetAttributes(attribute.String(AttrEventID, eventID))
	}
	if err != nil {
		span.SetAttributes(attribute.String(AttrErrorKind, kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// SpanIDs returns the hex trace and span ids of the span in ctx, or empty
// strings when there is none.
func SpanIDs(ctx context.Context) (traceID, spanID string) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}
