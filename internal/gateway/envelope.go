package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// FieldBody names the request body in validation errors about its shape.
const FieldBody = "body"

// Request is the body of a tool invocation. Unknown keys are ignored.
type Request struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// Result is the response envelope. Exactly one of Data and Error is set.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DecodeRequest reads a Request from r. A missing or null parameters
// object decodes as an empty map.
func DecodeRequest(r io.Reader) (*Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, Validation(fmt.Sprintf("%s: must be %s", typeErr.Field, jsonKind(typeErr.Field)), typeErr.Field)
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, Validation(fmt.Sprintf("%s: exceeds %d bytes", FieldBody, maxErr.Limit), FieldBody)
		}
		if errors.Is(err, io.EOF) {
			return nil, Validation(FieldBody+": is required", FieldBody)
		}
		return nil, Validation(FieldBody+": must be a JSON object", FieldBody)
	}
	if req.Parameters == nil {
		req.Parameters = map[string]any{}
	}
	return &req, nil
}

func jsonKind(field string) string {
	if field == "parameters" {
		return "an object"
	}
	return "a string"
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a 200 envelope carrying data.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Result{Success: true, Data: data})
}

// WriteError writes the failure envelope with the status of err's kind.
func WriteError(w http.ResponseWriter, err *Error) {
	WriteJSON(w, err.Status(), Result{Success: false, Error: err.Message})
}
