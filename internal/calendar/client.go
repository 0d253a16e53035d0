package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// SlotInterval is the spacing between the slots reported by CheckAvailability.
	SlotInterval = time.Hour

	// MaxSlots caps the number of slots reported by CheckAvailability.
	MaxSlots = 8

	eventIDPrefix = "evt_"
)

// ErrMissingEventID is returned when an operation needs an event ID and none was given.
var ErrMissingEventID = errors.New("event ID is required")

// Client answers calendar operations without a backing store.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	newID func() string
}

// Option configures a Client.
type Option func(*Client)

// WithIDGenerator replaces the generator used for new event IDs.
func WithIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// NewClient creates a new calendar client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		newID: func() string {
			return eventIDPrefix + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAvailability reports hourly slots starting at r.Start that begin
// strictly before r.End, at most MaxSlots of them.
func (c *Client) CheckAvailability(ctx context.Context, r TimeRange) (*Availability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slots := make([]time.Time, 0, MaxSlots)
	for t := r.Start.UTC(); t.Before(r.End) && len(slots) < MaxSlots; t = t.Add(SlotInterval) {
		slots = append(slots, t)
	}

	return &Availability{
		Available: len(slots) > 0,
		Slots:     slots,
	}, nil
}

// CreateEvent returns a new event with a generated ID. Nothing is stored.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	event := toEvent(c.newID(), input)
	event.Status = StatusCreated
	return event, nil
}

// UpdateEvent echoes the supplied fields under eventID.
// The ID is not checked against anything.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, input EventInput) (*Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if eventID == "" {
		return nil, fmt.Errorf("failed to update event: %w", ErrMissingEventID)
	}

	event := toEvent(eventID, input)
	event.Status = StatusUpdated
	return event, nil
}

// DeleteEvent acknowledges the deletion of eventID.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) (*Deletion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if eventID == "" {
		return nil, fmt.Errorf("failed to delete event: %w", ErrMissingEventID)
	}

	return &Deletion{
		ID:     eventID,
		Status: StatusDeleted,
	}, nil
}

// toEvent converts an EventInput into an Event, normalizing times to UTC.
func toEvent(id string, input EventInput) *Event {
	event := &Event{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
	}
	if !input.Start.IsZero() {
		event.Start = input.Start.UTC()
	}
	if !input.End.IsZero() {
		event.End = input.End.UTC()
	}
	return event
}
