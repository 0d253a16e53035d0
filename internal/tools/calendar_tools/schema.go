package calendar_tools

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// timestampLayouts are tried in order by ParseTimestamp.
// Layouts without an offset are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not an ISO-8601 timestamp", value)
}

// FieldError describes one invalid parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid parameter of a tool call.
type ValidationError struct {
	Tool   string
	Fields []FieldError
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid parameters: " + strings.Join(parts, "; ")
}

// FieldNames returns the names of the invalid fields.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return names
}

// Arguments holds the parameters of a call that passed Validate.
type Arguments struct {
	strings map[string]string
	times   map[string]time.Time
}

// String returns the value of a string parameter, or "" if it was not supplied.
func (a *Arguments) String(name string) string {
	return a.strings[name]
}

// Time returns the parsed value of a timestamp parameter, or the zero time.
func (a *Arguments) Time(name string) time.Time {
	return a.times[name]
}

// Has reports whether a parameter was supplied with a non-empty value.
func (a *Arguments) Has(name string) bool {
	_, ok := a.strings[name]
	return ok
}

// Validate checks params against the tool's input schema.
//
// Required fields must be present, non-null and non-empty. Properties must have
// the declared type, and date-time properties must parse with ParseTimestamp.
// When both start_time and end_time are given, end_time must come after start_time.
// Fields not in the schema are ignored. All problems are reported together.
func Validate(id ToolID, params map[string]any) (*Arguments, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("unknown tool %v", id)
	}

	schema := id.Definition().InputSchema
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	args := &Arguments{
		strings: make(map[string]string),
		times:   make(map[string]time.Time),
	}
	var fields []FieldError

	for name, raw := range schema.Properties {
		property, _ := raw.(map[string]any)

		value, present := params[name]
		if !present || value == nil {
			if required[name] {
				fields = append(fields, FieldError{Field: name, Message: "is required"})
			}
			continue
		}

		if property["type"] != "string" {
			return nil, fmt.Errorf("property %s of %v has unsupported type %v", name, id, property["type"])
		}

		s, ok := value.(string)
		if !ok {
			fields = append(fields, FieldError{Field: name, Message: "must be a string"})
			continue
		}
		if s == "" {
			if required[name] {
				fields = append(fields, FieldError{Field: name, Message: "must not be empty"})
			}
			continue
		}

		if property["format"] == "date-time" {
			t, err := ParseTimestamp(s)
			if err != nil {
				fields = append(fields, FieldError{Field: name, Message: "must be an ISO-8601 timestamp"})
				continue
			}
			args.times[name] = t
		}
		args.strings[name] = s
	}

	start, hasStart := args.times[ParamStartTime]
	end, hasEnd := args.times[ParamEndTime]
	if hasStart && hasEnd && !end.After(start) {
		fields = append(fields, FieldError{Field: ParamEndTime, Message: "must be after " + ParamStartTime})
	}

	if len(fields) > 0 {
		sort.Slice(fields, func(i, j int) bool {
			return fields[i].Field < fields[j].Field
		})
		return nil, &ValidationError{Tool: id.Name(), Fields: fields}
	}

	return args, nil
}
