package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calgate/internal/calendar"
)

// ToolID identifies one of the calendar tools.
type ToolID int

const (
	CheckAvailability ToolID = iota
	AddEvent
	UpdateEvent
	DeleteEvent
)

// NamePrefix is the namespace shared by all tool names.
const NamePrefix = "calendar."

// Parameter names used by the tool schemas.
const (
	ParamEventID     = "event_id"
	ParamTitle       = "title"
	ParamStartTime   = "start_time"
	ParamEndTime     = "end_time"
	ParamDescription = "description"
)

// All returns every tool in discovery order.
func All() []ToolID {
	return []ToolID{CheckAvailability, AddEvent, UpdateEvent, DeleteEvent}
}

// Name returns the wire name of the tool, or "" for an invalid ID.
func (id ToolID) Name() string {
	switch id {
	case CheckAvailability:
		return NamePrefix + "check_availability"
	case AddEvent:
		return NamePrefix + "add_event"
	case UpdateEvent:
		return NamePrefix + "update_event"
	case DeleteEvent:
		return NamePrefix + "delete_event"
	}
	return ""
}

func (id ToolID) String() string {
	if name := id.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("ToolID(%d)", int(id))
}

// Valid reports whether id is one of the known tools.
func (id ToolID) Valid() bool {
	return id.Name() != ""
}

// Lookup resolves a wire name to a tool.
func Lookup(name string) (ToolID, bool) {
	for _, id := range All() {
		if id.Name() == name {
			return id, true
		}
	}
	return 0, false
}

// definitions is indexed by ToolID.
var definitions = []mcp.Tool{
	CheckAvailability: newCheckAvailabilityTool(),
	AddEvent:          newAddEventTool(),
	UpdateEvent:       newUpdateEventTool(),
	DeleteEvent:       newDeleteEventTool(),
}

// Definition returns the MCP tool definition, including its input schema.
// The returned value shares its schema maps with the registry and must not be modified.
func (id ToolID) Definition() mcp.Tool {
	if !id.Valid() {
		return mcp.Tool{}
	}
	return definitions[id]
}

// Execute runs the tool with arguments that have already passed Validate.
func Execute(ctx context.Context, client *calendar.Client, id ToolID, args *Arguments) (any, error) {
	switch id {
	case CheckAvailability:
		return handleCheckAvailability(ctx, client, args)
	case AddEvent:
		return handleAddEvent(ctx, client, args)
	case UpdateEvent:
		return handleUpdateEvent(ctx, client, args)
	case DeleteEvent:
		return handleDeleteEvent(ctx, client, args)
	}
	return nil, fmt.Errorf("no handler for %v", id)
}

// dateTime marks a string property as an ISO-8601 timestamp.
func dateTime() mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["format"] = "date-time"
	}
}

// example attaches a sample value to a property.
func example(value string) mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["examples"] = []any{value}
	}
}
