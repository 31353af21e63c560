package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/voicecal/internal/calendar"
	"github.com/teemow/voicecal/internal/server"
	"github.com/teemow/voicecal/internal/timewindow"
	"github.com/teemow/voicecal/internal/tools/common"
)

const errNotConfigured = "Google Calendar is not configured. Visit /auth/google on the HTTP server to obtain a refresh token, then set GOOGLE_REFRESH_TOKEN and restart."

// RegisterCalendarTools registers all Calendar-related tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List calendar events within a time range. Give either timeMin and timeMax or a relative 'when'."),
		mcp.WithString("timeMin",
			mcp.Description("Start time for the range (RFC3339 format, e.g., '2025-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Description("End time for the range (RFC3339 format, e.g., '2025-01-31T23:59:59Z')"),
		),
		mcp.WithString("when",
			mcp.Description("Relative window: 'today', 'tomorrow' or 'this week'. Weeks start on Sunday."),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query to filter events"),
		),
		mcp.WithString("user_id",
			mcp.Description("Caller id recorded in the audit log (default: 'anonymous')"),
		),
	)

	s.AddTool(listEventsTool, common.InstrumentedToolHandler("calendar_list_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	createEventTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create a new calendar event"),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title/summary"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339 format, e.g., '2025-01-15T14:00:00Z')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time (RFC3339 format, e.g., '2025-01-15T15:00:00Z')"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("user_id",
			mcp.Description("Caller id recorded in the audit log (default: 'anonymous')"),
		),
	)

	s.AddTool(createEventTool, common.InstrumentedToolHandler("calendar_create_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	return nil
}

// listWindow picks the query window. A relative cue wins over explicit bounds.
func listWindow(args map[string]interface{}, now time.Time) (timewindow.Window, error) {
	if when := common.StringArg(args, "when"); when != "" {
		cue, ok := timewindow.DetectCue(when)
		if !ok {
			return timewindow.Window{}, fmt.Errorf("unsupported when %q: use 'today', 'tomorrow' or 'this week'", when)
		}
		return timewindow.Resolve(string(cue), now), nil
	}

	timeMinStr := common.StringArg(args, "timeMin")
	timeMaxStr := common.StringArg(args, "timeMax")
	if timeMinStr == "" || timeMaxStr == "" {
		return timewindow.Window{}, fmt.Errorf("timeMin and timeMax are required when 'when' is not given")
	}

	timeMin, err := time.Parse(time.RFC3339, timeMinStr)
	if err != nil {
		return timewindow.Window{}, fmt.Errorf("invalid timeMin format: %w", err)
	}
	timeMax, err := time.Parse(time.RFC3339, timeMaxStr)
	if err != nil {
		return timewindow.Window{}, fmt.Errorf("invalid timeMax format: %w", err)
	}
	if !timeMax.After(timeMin) {
		return timewindow.Window{}, fmt.Errorf("timeMax must be after timeMin")
	}
	return timewindow.Window{Start: timeMin, End: timeMax}, nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	gateway := sc.Calendar()
	if gateway == nil {
		return mcp.NewToolResultError(errNotConfigured), nil
	}

	args := request.GetArguments()
	window, err := listWindow(args, sc.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := gateway.ListEvents(ctx, window.Start, window.End, common.StringArg(args, "query"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	return mcp.NewToolResultText(formatEvents(window, events)), nil
}

func formatEvents(window timewindow.Window, events []calendar.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d events between %s and %s:\n\n",
		len(events), window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))
	for i, event := range events {
		fmt.Fprintf(&b, "%d. %s\n", i+1, event.Summary)
		fmt.Fprintf(&b, "   ID: %s\n", event.ID)
		if event.AllDay() {
			fmt.Fprintf(&b, "   All day: %s\n", event.Start)
		} else {
			fmt.Fprintf(&b, "   Start: %s\n", event.Start)
			fmt.Fprintf(&b, "   End: %s\n", event.End)
		}
		if event.Location != "" {
			fmt.Fprintf(&b, "   Location: %s\n", event.Location)
		}
		if event.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", event.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	gateway := sc.Calendar()
	if gateway == nil {
		return mcp.NewToolResultError(errNotConfigured), nil
	}

	args := request.GetArguments()
	summary := common.StringArg(args, "summary")
	if summary == "" {
		return mcp.NewToolResultError("summary is required"), nil
	}

	start, err := time.Parse(time.RFC3339, common.StringArg(args, "start"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid start format: %v", err)), nil
	}
	end, err := time.Parse(time.RFC3339, common.StringArg(args, "end"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid end format: %v", err)), nil
	}
	if end.Before(start) {
		return mcp.NewToolResultError("end must not be before start"), nil
	}

	event, err := gateway.CreateEvent(ctx, calendar.EventInput{
		Summary:     summary,
		Description: common.StringArg(args, "description"),
		Start:       start,
		End:         end,
		Attendees:   common.StringListArg(args, "attendees"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create event: %v", err)), nil
	}

	result := fmt.Sprintf("Event created successfully!\n\nID: %s\nSummary: %s\nStart: %s\nEnd: %s\n",
		event.ID, event.Summary, event.Start, event.End)
	if event.HTMLLink != "" {
		result += fmt.Sprintf("Link: %s\n", event.HTMLLink)
	}
	return mcp.NewToolResultText(result), nil
}
