package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workmate/internal/calendar"
	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/tools/common"
)

// DefaultEventCount is the number of events listed when n is omitted.
const DefaultEventCount = 10

// Tools returns the Calendar tools.
func Tools(tk *common.Toolkit) []mcpserver.ServerTool {
	upcomingEvents := mcp.NewTool("get_upcoming_events",
		mcp.WithDescription("List calendar events. Without a year, lists events from now on. With a year, lists events in that calendar year."),
		mcp.WithNumber("n",
			mcp.Description("Maximum number of events to return (default: 10)"),
		),
		mcp.WithNumber("year",
			mcp.Description("Restrict the listing to this year, e.g. 2025"),
		),
	)

	createEvent := mcp.NewTool("create_event",
		mcp.WithDescription("Create an event on the primary calendar"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Event date in YYYY-MM-DD format"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Event start time in HH:MM (24-hour) format"),
		),
	)

	deleteEvent := mcp.NewTool("delete_event",
		mcp.WithDescription("Delete an event from the primary calendar by its ID"),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
	)

	return []mcpserver.ServerTool{
		{
			Tool: upcomingEvents,
			Handler: common.InstrumentedToolHandlerWithService("get_upcoming_events",
				instrumentation.ServiceCalendar, instrumentation.OperationList, tk, handleUpcomingEvents),
		},
		{
			Tool: createEvent,
			Handler: common.InstrumentedToolHandlerWithService("create_event",
				instrumentation.ServiceCalendar, instrumentation.OperationCreate, tk,
				func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
					return handleCreateEvent(ctx, request, tk)
				}),
		},
		{
			Tool: deleteEvent,
			Handler: common.InstrumentedToolHandlerWithService("delete_event",
				instrumentation.ServiceCalendar, instrumentation.OperationDelete, tk, handleDeleteEvent),
		},
	}
}

func handleUpcomingEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := common.RequireCalendar(ctx)
	if errResult != nil {
		return errResult, nil
	}

	n := common.IntArg(request, "n", DefaultEventCount)
	if n <= 0 {
		n = DefaultEventCount
	}
	year := common.IntArg(request, "year", 0)

	events, err := client.UpcomingEvents(ctx, calendar.ListOptions{MaxResults: int64(n), Year: year})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	if len(events) == 0 {
		if year != 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No events found for the year %d.", year)), nil
		}
		return mcp.NewToolResultText("No events found for the future."), nil
	}

	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, fmt.Sprintf("Event: %s | Time: %s | ID: %s", e.Summary, e.Start, e.ID))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, tk *common.Toolkit) (*mcp.CallToolResult, error) {
	client, errResult := common.RequireCalendar(ctx)
	if errResult != nil {
		return errResult, nil
	}

	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title is required"), nil
	}
	date, err := request.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date is required"), nil
	}
	clock, err := request.RequireString("time")
	if err != nil {
		return mcp.NewToolResultError("time is required"), nil
	}

	start, err := calendar.LocalDateTime(strings.TrimSpace(date), strings.TrimSpace(clock))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid date or time: %v", err)), nil
	}

	// Events are created with end == start.
	event, err := client.CreateEvent(ctx, calendar.EventInput{
		Summary:  title,
		Start:    start,
		End:      start,
		TimeZone: tk.EventTimeZone(),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event created: %s", event.HTMLLink)), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := common.RequireCalendar(ctx)
	if errResult != nil {
		return errResult, nil
	}

	eventID, err := request.RequireString("event_id")
	if err != nil || strings.TrimSpace(eventID) == "" {
		return mcp.NewToolResultError("event_id is required"), nil
	}
	eventID = strings.TrimSpace(eventID)

	if err := client.DeleteEvent(ctx, eventID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete event: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Event %s deleted successfully.", eventID)), nil
}
