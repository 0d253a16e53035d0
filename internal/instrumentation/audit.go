package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/calgate/internal/logging"
)

// ToolInvocation is the audit record of one tool call.
//
// Caller is the raw remote address. It is hashed in the log line unless
// the audit logger was configured with IncludeClientAddress.
type ToolInvocation struct {
	Tool      string
	Transport string
	Caller    string // empty for stdio
	EventID   string

	Duration  time.Duration
	ErrorKind string
	Err       error

	TraceID string
	SpanID  string
}

// Status is StatusSuccess or StatusError.
func (ti ToolInvocation) Status() string {
	if ti.Err != nil {
		return StatusError
	}
	return StatusSuccess
}

func (ti ToolInvocation) attrs(rawCaller bool) []slog.Attr {
	attrs := make([]slog.Attr, 0, 9)
	attrs = append(attrs,
		slog.String(logging.KeyTool, ti.Tool),
		slog.String("status", ti.Status()),
		slog.Duration(logging.KeyDuration, ti.Duration),
	)

	optional := func(key, value string) {
		if value != "" {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	optional(logging.KeyTransport, ti.Transport)
	if ti.Caller != "" {
		if rawCaller {
			attrs = append(attrs, slog.String(logging.KeyClient, ti.Caller))
		} else {
			attrs = append(attrs, logging.Client(ti.Caller))
		}
	}
	optional("event_id", ti.EventID)
	optional("trace_id", ti.TraceID)
	optional("span_id", ti.SpanID)
	if ti.Err != nil {
		attrs = append(attrs, logging.ErrorKind(ti.ErrorKind), logging.Err(ti.Err))
	}
	return attrs
}

// AuditLogger writes one line per tool call. A nil *AuditLogger discards.
type AuditLogger struct {
	logger *slog.Logger
	config AuditLoggingConfig
}

// NewAuditLogger returns an audit logger writing to logger, or to
// slog.Default() when logger is nil.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger.With(logging.KeyComponent, "audit"), config: config}
}

// LogToolInvocation logs successful calls at info and failed ones at warn.
func (al *AuditLogger) LogToolInvocation(ctx context.Context, ti ToolInvocation) {
	if al == nil || !al.config.Enabled {
		return
	}
	level, msg := slog.LevelInfo, "tool call completed"
	if ti.Err != nil {
		level, msg = slog.LevelWarn, "tool call failed"
	}
	al.logger.LogAttrs(ctx, level, msg, ti.attrs(al.config.IncludeClientAddress)...)
}
