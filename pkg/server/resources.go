// ABOUTME: MCP resources exposing dashboard state
// ABOUTME: Read-only JSON views of calendars, the event snapshot and assignment candidates

package server

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	calendarsURI   = "deadline://calendars"
	snapshotURI    = "deadline://events/snapshot"
	assignmentsURI = "deadline://assignments"
)

// registerResources registers all MCP resources
func (s *Server) registerResources() {
	s.mcp.AddResource(
		mcp.NewResource(
			calendarsURI,
			"Calendars",
			mcp.WithResourceDescription("Account calendars with their accent colour and selection state"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleCalendarsResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(
			snapshotURI,
			"Upcoming Events",
			mcp.WithResourceDescription("Cached upcoming events of every shown calendar, without refreshing"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleSnapshotResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(
			assignmentsURI,
			"Assignment Candidates",
			mcp.WithResourceDescription("Extracted assignments not yet added to a calendar"),
			mcp.WithMIMEType("application/json"),
		),
		s.handleAssignmentsResource,
	)
}

func (s *Server) handleCalendarsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	cals, err := s.dash.Calendars()
	if err != nil {
		return nil, err
	}
	return jsonContents(request.Params.URI, s.calendarViews(cals))
}

func (s *Server) handleSnapshotResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, s.snapshotView(s.dash.Aggregator.Snapshot()))
}

func (s *Server) handleAssignmentsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, map[string]interface{}{
		"candidate_count": len(s.dash.Candidates.List()),
		"candidates":      candidateViews(s.dash.Candidates.List()),
	})
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
