package calendar

import "time"

// Operation status values reported back to the caller.
const (
	StatusCreated = "created"
	StatusUpdated = "updated"
	StatusDeleted = "deleted"
)

// EventInput represents the input for creating or updating a calendar event.
// Zero values mean "not supplied".
type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// Event is the record returned by the create and update operations.
type Event struct {
	ID          string    `json:"event_id" jsonschema:"required" jsonschema_description:"Identifier of the event"`
	Title       string    `json:"title,omitempty" jsonschema_description:"Title of the event"`
	Start       time.Time `json:"start_time,omitzero" jsonschema_description:"Start time of the event (UTC)"`
	End         time.Time `json:"end_time,omitzero" jsonschema_description:"End time of the event (UTC)"`
	Description string    `json:"description,omitempty" jsonschema_description:"Description of the event"`
	Status      string    `json:"status" jsonschema:"required,enum=created,enum=updated" jsonschema_description:"Outcome of the operation"`
}

// Deletion acknowledges the removal of an event.
type Deletion struct {
	ID     string `json:"event_id" jsonschema:"required" jsonschema_description:"Identifier of the deleted event"`
	Status string `json:"status" jsonschema:"required,enum=deleted" jsonschema_description:"Outcome of the operation"`
}

// TimeRange represents a time range
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Availability is the answer to an availability check.
type Availability struct {
	Available bool        `json:"available" jsonschema:"required" jsonschema_description:"Whether the time range has free slots"`
	Slots     []time.Time `json:"slots" jsonschema:"required" jsonschema_description:"Start times of the free hourly slots (UTC)"`
}

// ResourceID returns the event identifier for tracing and audit logs.
func (e *Event) ResourceID() string { return e.ID }

// ResourceID returns the identifier of the deleted event.
func (d *Deletion) ResourceID() string { return d.ID }
