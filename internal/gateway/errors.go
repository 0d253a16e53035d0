package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes a gateway error.
type Kind string

// Error kinds.
const (
	KindUnauthorized Kind = "unauthorized"
	KindUnknownTool  Kind = "unknown_tool"
	KindValidation   Kind = "validation_error"
	KindInternal     Kind = "internal_error"
)

// Error is a failure reported to a client.
//
// Message is safe to return over the wire. The cause of an internal error
// is kept for logs and never sent to the client.
type Error struct {
	Kind    Kind
	Message string
	// Fields names the offending parameters of a validation error.
	Fields []string

	cause error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// ErrorKind reports the kind as a plain string for instrumentation.
func (e *Error) ErrorKind() string { return string(e.Kind) }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUnknownTool:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Unauthorized reports a missing or wrong API key.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// UnknownTool reports a tool name outside the registry.
func UnknownTool(name string) *Error {
	if name == "" {
		return &Error{Kind: KindUnknownTool, Message: "tool name is required"}
	}
	return &Error{Kind: KindUnknownTool, Message: fmt.Sprintf("unknown tool %q", name)}
}

// Validation reports invalid input. The message should name the fields.
func Validation(message string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Internal wraps an unexpected failure. The client only sees "internal error".
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", cause: cause}
}

// AsError returns err as a *Error, wrapping anything else as internal.
// It returns nil for a nil error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return Internal(err)
}
