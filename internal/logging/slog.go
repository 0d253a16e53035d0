package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
)

// Attribute keys shared by every gateway log line.
const (
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyTransport = "transport"
	KeyClient    = "client"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyErrorKind = "error_kind"
	KeyTool      = "tool"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to w. format is "text" or "json" and
// defaults to text when empty.
func New(w io.Writer, level slog.Leveler, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", FormatText:
		h = slog.NewTextHandler(w, opts)
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
	return slog.New(h), nil
}

// ParseLevel accepts the names understood by slog.Level, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

func WithTransport(logger *slog.Logger, transport string) *slog.Logger {
	return logger.With(slog.String(KeyTransport, transport))
}

func Tool(name string) slog.Attr {
	return slog.String(KeyTool, name)
}

// ErrorKind is the category of a gateway error, e.g. "validation_error".
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// Err renders err under the error key. A nil error yields an empty group,
// which handlers drop, so Err can be passed unconditionally.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeClient hashes the host part of a remote address. Ports are
// dropped so that requests from one host share an identifier.
func AnonymizeClient(addr string) string {
	if addr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	sum := sha256.Sum256([]byte(host))
	return "client:" + hex.EncodeToString(sum[:8])
}

// Client is the anonymized form of a remote address.
func Client(addr string) slog.Attr {
	return slog.String(KeyClient, AnonymizeClient(addr))
}

// SanitizeToken describes a secret by its length only.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
