package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/calgate/internal/calendar"
)

func newCheckAvailabilityTool() mcp.Tool {
	return mcp.NewTool(CheckAvailability.Name(),
		mcp.WithDescription("Check calendar availability for a given time range"),
		mcp.WithReadOnlyHintAnnotation(true),
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
	)
}

func handleCheckAvailability(ctx context.Context, client *calendar.Client, args *Arguments) (any, error) {
	availability, err := client.CheckAvailability(ctx, calendar.TimeRange{
		Start: args.Time(ParamStartTime),
		End:   args.Time(ParamEndTime),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	return availability, nil
}
