package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calgate/internal/calendar"
)

func newAddEventTool() mcp.Tool {
	return mcp.NewTool(AddEvent.Name(),
		mcp.WithDescription("Add a new calendar event"),
		mcp.WithString(ParamTitle,
			mcp.Required(),
			mcp.Description("Title of the event"),
			example("Team Sync Meeting"),
		),
		mcp.WithString(ParamStartTime,
			mcp.Required(),
			dateTime(),
			mcp.Description("Start time in ISO-8601 format (e.g., 2025-05-10T14:00:00Z)"),
			example("2025-05-10T14:00:00Z"),
		),
		mcp.WithString(ParamEndTime,
			mcp.Required(),
			dateTime(),
			mcp.Description("End time in ISO-8601 format (e.g., 2025-05-10T15:00:00Z)"),
			example("2025-05-10T15:00:00Z"),
		),
		mcp.WithString(ParamDescription,
			mcp.Description("Optional description of the event"),
			example("Weekly team sync to discuss project progress"),
		),
	)
}

func newUpdateEventTool() mcp.Tool {
	return mcp.NewTool(UpdateEvent.Name(),
		mcp.WithDescription("Update an existing calendar event"),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString(ParamEventID,
			mcp.Required(),
			mcp.Description("ID of the event to update"),
			example("evt_123"),
		),
		mcp.WithString(ParamTitle,
			mcp.Description("New title of the event"),
			example("Updated Team Sync"),
		),
		mcp.WithString(ParamStartTime,
			dateTime(),
			mcp.Description("New start time in ISO-8601 format"),
			example("2025-05-10T15:00:00Z"),
		),
		mcp.WithString(ParamEndTime,
			dateTime(),
			mcp.Description("New end time in ISO-8601 format"),
			example("2025-05-10T16:00:00Z"),
		),
		mcp.WithString(ParamDescription,
			mcp.Description("New description of the event"),
		),
	)
}

func newDeleteEventTool() mcp.Tool {
	return mcp.NewTool(DeleteEvent.Name(),
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString(ParamEventID,
			mcp.Required(),
			mcp.Description("ID of the event to delete"),
			example("evt_123"),
		),
	)
}

// eventInput collects the optional event fields present in args.
func eventInput(args *Arguments) calendar.EventInput {
	return calendar.EventInput{
		Title:       args.String(ParamTitle),
		Description: args.String(ParamDescription),
		Start:       args.Time(ParamStartTime),
		End:         args.Time(ParamEndTime),
	}
}

func handleAddEvent(ctx context.Context, client *calendar.Client, args *Arguments) (any, error) {
	event, err := client.CreateEvent(ctx, eventInput(args))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func handleUpdateEvent(ctx context.Context, client *calendar.Client, args *Arguments) (any, error) {
	event, err := client.UpdateEvent(ctx, args.String(ParamEventID), eventInput(args))
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

func handleDeleteEvent(ctx context.Context, client *calendar.Client, args *Arguments) (any, error) {
	deletion, err := client.DeleteEvent(ctx, args.String(ParamEventID))
	if err != nil {
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}
	return deletion, nil
}
