package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", s, err)
	}
	return parsed
}

func TestCheckAvailability(t *testing.T) {
	client := NewClient()

	tests := []struct {
		name          string
		start         string
		end           string
		wantSlots     int
		wantAvailable bool
	}{
		{
			name:          "one hour range",
			start:         "2024-01-01T10:00:00Z",
			end:           "2024-01-01T11:00:00Z",
			wantSlots:     1,
			wantAvailable: true,
		},
		{
			name:          "partial last hour",
			start:         "2024-01-01T10:00:00Z",
			end:           "2024-01-01T12:30:00Z",
			wantSlots:     3,
			wantAvailable: true,
		},
		{
			name:          "capped at max slots",
			start:         "2024-01-01T00:00:00Z",
			end:           "2024-01-02T00:00:00Z",
			wantSlots:     MaxSlots,
			wantAvailable: true,
		},
		{
			name:          "empty range",
			start:         "2024-01-01T10:00:00Z",
			end:           "2024-01-01T10:00:00Z",
			wantSlots:     0,
			wantAvailable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := mustTime(t, tt.start)
			result, err := client.CheckAvailability(context.Background(), TimeRange{
				Start: start,
				End:   mustTime(t, tt.end),
			})
			if err != nil {
				t.Fatalf("CheckAvailability() unexpected error: %v", err)
			}
			if len(result.Slots) != tt.wantSlots {
				t.Errorf("CheckAvailability() slots = %d, want %d", len(result.Slots), tt.wantSlots)
			}
			if result.Available != tt.wantAvailable {
				t.Errorf("CheckAvailability() available = %v, want %v", result.Available, tt.wantAvailable)
			}
			for i, slot := range result.Slots {
				want := start.Add(time.Duration(i) * SlotInterval)
				if !slot.Equal(want) {
					t.Errorf("slot[%d] = %v, want %v", i, slot, want)
				}
			}
		})
	}
}

func TestCheckAvailability_NormalizesToUTC(t *testing.T) {
	client := NewClient()
	start := mustTime(t, "2024-01-01T12:00:00+02:00")

	result, err := client.CheckAvailability(context.Background(), TimeRange{
		Start: start,
		End:   start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Slots[0].Format(time.RFC3339); got != "2024-01-01T10:00:00Z" {
		t.Errorf("first slot = %s, want 2024-01-01T10:00:00Z", got)
	}
}

func TestCreateEvent(t *testing.T) {
	client := NewClient(WithIDGenerator(func() string { return "evt_fixed" }))
	start := mustTime(t, "2024-01-01T10:00:00Z")

	event, err := client.CreateEvent(context.Background(), EventInput{
		Title:       "Meeting",
		Description: "Team meeting",
		Start:       start,
		End:         start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEvent() unexpected error: %v", err)
	}

	if event.ID != "evt_fixed" {
		t.Errorf("ID = %q, want %q", event.ID, "evt_fixed")
	}
	if event.Status != StatusCreated {
		t.Errorf("Status = %q, want %q", event.Status, StatusCreated)
	}
	if event.Title != "Meeting" || event.Description != "Team meeting" {
		t.Errorf("fields not echoed: %+v", event)
	}
	if !event.Start.Equal(start) || !event.End.Equal(start.Add(time.Hour)) {
		t.Errorf("times not echoed: %+v", event)
	}
}

func TestCreateEvent_DefaultIDs(t *testing.T) {
	client := NewClient()
	start := mustTime(t, "2024-01-01T10:00:00Z")
	input := EventInput{Title: "a", Start: start, End: start.Add(time.Hour)}

	first, err := client.CreateEvent(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := client.CreateEvent(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(first.ID, "evt_") {
		t.Errorf("ID %q should start with evt_", first.ID)
	}
	if first.ID == second.ID {
		t.Error("generated IDs should be unique")
	}
}

func TestWithIDGenerator_NilKeepsDefault(t *testing.T) {
	client := NewClient(WithIDGenerator(nil))
	if client.newID == nil {
		t.Fatal("newID should not be nil")
	}
}

func TestUpdateEvent(t *testing.T) {
	client := NewClient()

	event, err := client.UpdateEvent(context.Background(), "evt_123", EventInput{Title: "Renamed"})
	if err != nil {
		t.Fatalf("UpdateEvent() unexpected error: %v", err)
	}
	if event.ID != "evt_123" {
		t.Errorf("ID = %q, want evt_123", event.ID)
	}
	if event.Status != StatusUpdated {
		t.Errorf("Status = %q, want %q", event.Status, StatusUpdated)
	}
	if event.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", event.Title)
	}
	if !event.Start.IsZero() || !event.End.IsZero() {
		t.Error("unsupplied times should stay zero")
	}
}

func TestUpdateEvent_MissingID(t *testing.T) {
	client := NewClient()
	_, err := client.UpdateEvent(context.Background(), "", EventInput{})
	if !errors.Is(err, ErrMissingEventID) {
		t.Errorf("UpdateEvent() error = %v, want ErrMissingEventID", err)
	}
}

func TestDeleteEvent(t *testing.T) {
	client := NewClient()

	deletion, err := client.DeleteEvent(context.Background(), "evt_123")
	if err != nil {
		t.Fatalf("DeleteEvent() unexpected error: %v", err)
	}
	if deletion.ID != "evt_123" || deletion.Status != StatusDeleted {
		t.Errorf("DeleteEvent() = %+v", deletion)
	}

	if _, err := client.DeleteEvent(context.Background(), ""); !errors.Is(err, ErrMissingEventID) {
		t.Errorf("DeleteEvent(\"\") error = %v, want ErrMissingEventID", err)
	}
}

func TestClient_CanceledContext(t *testing.T) {
	client := NewClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.CheckAvailability(ctx, TimeRange{}); !errors.Is(err, context.Canceled) {
		t.Errorf("CheckAvailability() error = %v, want context.Canceled", err)
	}
	if _, err := client.CreateEvent(ctx, EventInput{}); !errors.Is(err, context.Canceled) {
		t.Errorf("CreateEvent() error = %v, want context.Canceled", err)
	}
	if _, err := client.UpdateEvent(ctx, "evt_1", EventInput{}); !errors.Is(err, context.Canceled) {
		t.Errorf("UpdateEvent() error = %v, want context.Canceled", err)
	}
	if _, err := client.DeleteEvent(ctx, "evt_1"); !errors.Is(err, context.Canceled) {
		t.Errorf("DeleteEvent() error = %v, want context.Canceled", err)
	}
}

func TestEvent_JSONOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(Event{ID: "evt_1", Status: StatusUpdated})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	got := string(data)
	want := `{"event_id":"evt_1","status":"updated"}`
	if got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}
