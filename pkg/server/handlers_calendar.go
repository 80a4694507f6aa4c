// ABOUTME: Tool handlers for calendar selection and events
// ABOUTME: Thin adapters from MCP arguments to dashboard operations

package server

import (
	"context"
	"fmt"
	"time"

	"github.com/harper/deadline-mcp/pkg/apperr"
	"github.com/harper/deadline-mcp/pkg/event"
	"github.com/harper/deadline-mcp/pkg/schedule"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) handleCalendarsList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cals, err := s.dash.Calendars()
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultJSON(s.calendarViews(cals))
}

// ToggleResponse is the response for calendar_toggle
type ToggleResponse struct {
	CalendarID string       `json:"calendar_id"`
	Selected   bool         `json:"selected"`
	Snapshot   SnapshotView `json:"snapshot"`
}

func (s *Server) handleCalendarToggle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendarID, err := request.RequireString("calendar_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.dash.HasCalendar(calendarID) {
		return toolError(apperr.Validation("calendar_toggle", "unknown calendar %q", calendarID)), nil
	}

	selected, snap, err := s.dash.Toggle(ctx, calendarID)
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultJSON(ToggleResponse{
		CalendarID: calendarID,
		Selected:   selected,
		Snapshot:   s.snapshotView(snap),
	})
}

func (s *Server) handleCalendarRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendarID, err := request.RequireString("calendar_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap, err := s.dash.RemoveFromView(ctx, calendarID)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultJSON(s.snapshotView(snap))
}

func (s *Server) handleEventsList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.dash.Connected() {
		return toolError(apperr.New(apperr.AuthMissing, "events_list", "not signed in")), nil
	}
	return mcp.NewToolResultJSON(s.snapshotView(s.dash.Aggregator.Snapshot()))
}

func (s *Server) handleEventsRefresh(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.dash.Refresh(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultJSON(s.snapshotView(snap))
}

func (s *Server) handleEventAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dateStr, err := request.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	date, err := event.ParseDate(dateStr)
	if err != nil {
		return toolError(apperr.Validation("event_add", "invalid date %q, want YYYY-MM-DD", dateStr)), nil
	}

	m := schedule.ManualEvent{
		Title:      title,
		CalendarID: request.GetString("calendar_id", ""),
		Date:       date,
	}
	if timeStr := request.GetString("time", ""); timeStr != "" {
		clock, err := event.ParseClock(timeStr)
		if err != nil {
			return toolError(apperr.Validation("event_add", "invalid time %q, want HH:MM", timeStr)), nil
		}
		m.Time = &clock
	}

	written, err := s.dash.AddEvent(ctx, m)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultJSON(eventView(written, s.viewLocation()))
}

func (s *Server) handleEventDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendarID, err := request.RequireString("calendar_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	eventID, err := request.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.dash.DeleteEvent(ctx, calendarID, eventID); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Event %s deleted from %s", eventID, calendarID)), nil
}

// viewLocation is the zone of the latest snapshot, or UTC before the first refresh.
func (s *Server) viewLocation() *time.Location {
	if loc := s.dash.Aggregator.Snapshot().Zone.Location; loc != nil {
		return loc
	}
	return time.UTC
}
