package calendar_tools

import (
	"github.com/invopop/jsonschema"

	"github.com/teemow/calgate/internal/calendar"
)

// resultTypes maps each tool to the value its handler returns on success.
var resultTypes = []any{
	CheckAvailability: &calendar.Availability{},
	AddEvent:          &calendar.Event{},
	UpdateEvent:       &calendar.Event{},
	DeleteEvent:       &calendar.Deletion{},
}

// ResultSchema returns the JSON schema of the data a tool returns on success,
// or nil for an invalid ID.
func ResultSchema(id ToolID) *jsonschema.Schema {
	if !id.Valid() {
		return nil
	}

	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  true,
		ExpandedStruct:             true,
		Anonymous:                  true,
	}
	return r.Reflect(resultTypes[id])
}
