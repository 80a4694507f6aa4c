// ABOUTME: MCP tool registrations
// ABOUTME: Schemas for calendar selection, events, assignments and auth management

package server

import "github.com/mark3labs/mcp-go/mcp"

var noArgs = mcp.ToolInputSchema{
	Type: "object",
	Properties: map[string]interface{}{
		"noop": map[string]string{"type": "boolean", "description": "Unused; tool takes no arguments"},
	},
}

func idSchema(name, description string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			name: map[string]string{"type": "string", "description": description},
		},
		Required: []string{name},
	}
}

const candidateIDHelp = "Candidate ID from assignments_list"

// registerTools registers all available tools
func (s *Server) registerTools() {
	// Calendar selection and events
	s.mcp.AddTool(mcp.Tool{
		Name:        "calendars_list",
		Description: "List the account's calendars and whether each is shown on the dashboard",
		InputSchema: noArgs,
	}, s.handleCalendarsList)

	s.mcp.AddTool(mcp.Tool{
		Name:        "calendar_toggle",
		Description: "Show or hide a calendar. Refreshes events for the new selection.",
		InputSchema: idSchema("calendar_id", "Calendar ID from calendars_list"),
	}, s.handleCalendarToggle)

	s.mcp.AddTool(mcp.Tool{
		Name:        "calendar_remove",
		Description: "Remove a calendar from the dashboard and drop its cached events",
		InputSchema: idSchema("calendar_id", "Calendar ID from calendars_list"),
	}, s.handleCalendarRemove)

	s.mcp.AddTool(mcp.Tool{
		Name:        "events_list",
		Description: "Return the cached upcoming events of every shown calendar, from the start of today in the account timezone",
		InputSchema: noArgs,
	}, s.handleEventsList)

	s.mcp.AddTool(mcp.Tool{
		Name:        "events_refresh",
		Description: "Re-fetch upcoming events for every shown calendar",
		InputSchema: noArgs,
	}, s.handleEventsRefresh)

	s.mcp.AddTool(mcp.Tool{
		Name:        "event_add",
		Description: "Add an event. Without time it is all-day; with time it lasts one hour in the account timezone.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title":       map[string]string{"type": "string", "description": "Event title"},
				"date":        map[string]string{"type": "string", "description": "Date as YYYY-MM-DD"},
				"time":        map[string]string{"type": "string", "description": "Optional start time as HH:MM (24h)"},
				"calendar_id": map[string]string{"type": "string", "description": "Target calendar (default: first calendar on the account)"},
			},
			Required: []string{"title", "date"},
		},
	}, s.handleEventAdd)

	s.mcp.AddTool(mcp.Tool{
		Name:        "event_delete",
		Description: "Delete an event from a calendar",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"calendar_id": map[string]string{"type": "string", "description": "Calendar holding the event"},
				"event_id":    map[string]string{"type": "string", "description": "Event ID from events_list"},
			},
			Required: []string{"calendar_id", "event_id"},
		},
	}, s.handleEventDelete)

	// Assignment extraction and scheduling
	s.mcp.AddTool(mcp.Tool{
		Name:        "assignments_extract",
		Description: "Extract assignments and due dates from syllabus or schedule text. Replaces the current candidate list.",
		InputSchema: idSchema("text", "Free-form text to extract assignments from"),
	}, s.handleAssignmentsExtract)

	s.mcp.AddTool(mcp.Tool{
		Name:        "assignments_list",
		Description: "List extracted assignment candidates that have not been added to a calendar",
		InputSchema: noArgs,
	}, s.handleAssignmentsList)

	s.mcp.AddTool(mcp.Tool{
		Name:        "assignment_edit",
		Description: "Change fields of an assignment candidate. Omitted fields are left unchanged.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"candidate_id":   map[string]string{"type": "string", "description": candidateIDHelp},
				"title":          map[string]string{"type": "string", "description": "New title"},
				"due_date":       map[string]string{"type": "string", "description": "New due date as YYYY-MM-DD"},
				"due_time":       map[string]string{"type": "string", "description": "New due time as HH:MM (24h)"},
				"clear_due_time": map[string]string{"type": "boolean", "description": "Make the assignment all-day"},
				"scare_mode":     map[string]string{"type": "boolean", "description": "Schedule one day before the real due date"},
				"calendar_id":    map[string]string{"type": "string", "description": "Calendar to add the assignment to"},
			},
			Required: []string{"candidate_id"},
		},
	}, s.handleAssignmentEdit)

	s.mcp.AddTool(mcp.Tool{
		Name:        "assignment_toggle_editing",
		Description: "Open or close the edit view of an assignment candidate",
		InputSchema: idSchema("candidate_id", candidateIDHelp),
	}, s.handleAssignmentToggleEditing)

	s.mcp.AddTool(mcp.Tool{
		Name:        "assignment_toggle_scare",
		Description: "Toggle scare mode (due one day early) for an assignment candidate",
		InputSchema: idSchema("candidate_id", candidateIDHelp),
	}, s.handleAssignmentToggleScare)

	s.mcp.AddTool(mcp.Tool{
		Name:        "assignment_remove",
		Description: "Discard an assignment candidate without adding it",
		InputSchema: idSchema("candidate_id", candidateIDHelp),
	}, s.handleAssignmentRemove)

	s.mcp.AddTool(mcp.Tool{
		Name:        "assignment_commit",
		Description: "Add an assignment candidate to its chosen calendar. On success the candidate is removed.",
		InputSchema: idSchema("candidate_id", candidateIDHelp),
	}, s.handleAssignmentCommit)

	// Auth management tools
	s.mcp.AddTool(mcp.Tool{
		Name:        "auth_status",
		Description: "Check if authentication is valid by making a test API call",
		InputSchema: noArgs,
	}, s.handleAuthStatus)

	s.mcp.AddTool(mcp.Tool{
		Name:        "auth_info",
		Description: "Get token metadata without making API calls",
		InputSchema: noArgs,
	}, s.handleAuthInfo)

	s.mcp.AddTool(mcp.Tool{
		Name:        "auth_init",
		Description: "Start the OAuth flow and return the URL to visit",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]string{"type": "boolean", "description": "Re-authenticate even if the current token is valid"},
			},
		},
	}, s.handleAuthInit)

	s.mcp.AddTool(mcp.Tool{
		Name:        "auth_complete",
		Description: "Finish the OAuth flow with the authorization code or the full redirect URL, then load calendars",
		InputSchema: idSchema("code", "Authorization code, or the full http://localhost/?code=... redirect URL"),
	}, s.handleAuthComplete)

	s.mcp.AddTool(mcp.Tool{
		Name:        "auth_revoke",
		Description: "Delete the cached token and sign the dashboard out",
		InputSchema: noArgs,
	}, s.handleAuthRevoke)
}
