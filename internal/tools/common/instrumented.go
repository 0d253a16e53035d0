package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calgate/internal/instrumentation"
	"github.com/teemow/calgate/internal/logging"
)

// ErrorKindInternal is reported for errors that do not carry a kind.
// It matches the gateway's internal error category.
const ErrorKindInternal = "internal_error"

// Observer supplies the metrics recorder and audit logger used to
// instrument tool calls. Either may be nil.
type Observer interface {
	Metrics() *instrumentation.Metrics
	AuditLogger() *instrumentation.AuditLogger
}

// ErrorKind returns the category reported by an error's ErrorKind method
// anywhere in its chain, or ErrorKindInternal.
func ErrorKind(err error) string {
	var kinded interface{ ErrorKind() string }
	if errors.As(err, &kinded) {
		return kinded.ErrorKind()
	}
	return ErrorKindInternal
}

// InstrumentedCall runs fn inside a tool span and records the invocation.
// The caller and transport are read from ctx.
func InstrumentedCall(ctx context.Context, toolName string, obs Observer, fn func(ctx context.Context) (any, error)) (any, error) {
	var (
		metrics     *instrumentation.Metrics
		auditLogger *instrumentation.AuditLogger
	)
	if obs != nil {
		metrics = obs.Metrics()
		auditLogger = obs.AuditLogger()
	}

	record := instrumentation.ToolInvocation{
		Tool:      toolName,
		Transport: TransportFromContext(ctx),
		Caller:    CallerFromContext(ctx),
	}

	ctx, span := instrumentation.StartToolSpan(ctx, toolName, record.Transport)
	record.TraceID, record.SpanID = instrumentation.SpanIDs(ctx)

	start := time.Now()
	result, err := fn(ctx)
	record.Duration = time.Since(start)

	if r, ok := result.(interface{ ResourceID() string }); ok && err == nil {
		record.EventID = r.ResourceID()
	}
	if err != nil {
		record.Err = err
		record.ErrorKind = ErrorKind(err)
	}
	instrumentation.EndToolSpan(span, record.EventID, record.ErrorKind, err)

	metrics.RecordToolInvocationWithCaller(ctx, toolName, record.Transport, record.Status(),
		logging.AnonymizeClient(record.Caller), record.Duration)
	auditLogger.LogToolInvocation(ctx, record)

	return result, err
}

// InstrumentedToolHandler adapts fn into an MCP tool handler for the stdio
// transport. Successful results are returned as indented JSON text; errors
// become tool results flagged IsError so the client sees the message.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandler("calendar.add_event", sc, fn))
func InstrumentedToolHandler(
	toolName string,
	obs Observer,
	fn func(ctx context.Context, args map[string]any) (any, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if TransportFromContext(ctx) == "" {
			ctx = WithTransport(ctx, instrumentation.TransportStdio)
		}

		data, err := InstrumentedCall(ctx, toolName, obs, func(ctx context.Context) (any, error) {
			return fn(ctx, request.GetArguments())
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
