// ABOUTME: Tool handlers for assignment extraction, editing and commit
// ABOUTME: Candidates live in memory until committed or replaced by a new extraction

package server

import (
	"context"
	"fmt"

	"github.com/harper/deadline-mcp/pkg/apperr"
	"github.com/harper/deadline-mcp/pkg/assignment"
	"github.com/harper/deadline-mcp/pkg/event"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) handleAssignmentsExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entries, err := s.dash.ExtractFrom(ctx, text)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultJSON(candidateViews(entries))
}

func (s *Server) handleAssignmentsList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(candidateViews(s.dash.Candidates.List()))
}

func (s *Server) handleAssignmentEdit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("candidate_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	patch, err := s.parsePatch(request)
	if err != nil {
		return toolError(err), nil
	}

	entry, err := s.dash.Candidates.Edit(id, patch)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultJSON(candidateView(entry))
}

// parsePatch reads only the arguments the caller actually sent.
func (s *Server) parsePatch(request mcp.CallToolRequest) (assignment.Patch, error) {
	const op = "assignment_edit"
	args := request.GetArguments()
	var p assignment.Patch

	if _, ok := args["title"]; ok {
		title := request.GetString("title", "")
		p.Title = &title
	}
	if _, ok := args["due_date"]; ok {
		raw := request.GetString("due_date", "")
		d, err := event.ParseDate(raw)
		if err != nil {
			return p, apperr.Validation(op, "invalid due_date %q, want YYYY-MM-DD", raw)
		}
		p.DueDate = &d
	}
	if _, ok := args["due_time"]; ok {
		raw := request.GetString("due_time", "")
		c, err := event.ParseClock(raw)
		if err != nil {
			return p, apperr.Validation(op, "invalid due_time %q, want HH:MM", raw)
		}
		p.DueTime = &c
	}
	p.ClearDueTime = request.GetBool("clear_due_time", false)
	if p.ClearDueTime && p.DueTime != nil {
		return p, apperr.Validation(op, "due_time and clear_due_time are mutually exclusive")
	}
	if _, ok := args["scare_mode"]; ok {
		scare := request.GetBool("scare_mode", false)
		p.ScareMode = &scare
	}
	if _, ok := args["calendar_id"]; ok {
		calendarID := request.GetString("calendar_id", "")
		if !s.dash.HasCalendar(calendarID) {
			return p, apperr.Validation(op, "unknown calendar %q", calendarID)
		}
		p.CalendarID = &calendarID
	}
	return p, nil
}

// ToggleFlagResponse reports the new value of a toggled candidate flag
type ToggleFlagResponse struct {
	CandidateID string `json:"candidate_id"`
	Value       bool   `json:"value"`
}

func (s *Server) handleAssignmentToggleEditing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("candidate_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	editing, err := s.dash.Candidates.ToggleEditing(id)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultJSON(ToggleFlagResponse{CandidateID: id, Value: editing})
}

func (s *Server) handleAssignmentToggleScare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("candidate_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	scare, err := s.dash.Candidates.ToggleScareMode(id)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultJSON(ToggleFlagResponse{CandidateID: id, Value: scare})
}

func (s *Server) handleAssignmentRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("candidate_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.dash.Candidates.Remove(id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Candidate %s removed", id)), nil
}

func (s *Server) handleAssignmentCommit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("candidate_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	written, err := s.dash.Commit(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultJSON(eventView(written, s.viewLocation()))
}
