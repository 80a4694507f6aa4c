// ABOUTME: Tests for MCP resources and prompts
// ABOUTME: Resources must return valid JSON; prompts must render their arguments

package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readResource(t *testing.T, handler func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error), uri string, v interface{}) {
	t.Helper()
	request := mcp.ReadResourceRequest{
		Request: mcp.Request{Method: "resources/read"},
		Params:  mcp.ReadResourceParams{URI: uri},
	}
	contents, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, uri, text.URI)
	assert.Equal(t, "application/json", text.MIMEType)
	require.NoError(t, json.Unmarshal([]byte(text.Text), v))
}

func TestResources(t *testing.T) {
	f := newFixture(t, syllabusBody)
	ctx := context.Background()
	_, err := f.srv.handleCalendarToggle(ctx, createMockRequest("calendar_toggle", map[string]interface{}{"calendar_id": "primary"}))
	require.NoError(t, err)
	extractCandidates(t, f)

	var cals []CalendarView
	readResource(t, f.srv.handleCalendarsResource, calendarsURI, &cals)
	require.Len(t, cals, 2)
	assert.True(t, cals[0].Selected)

	var snap SnapshotView
	readResource(t, f.srv.handleSnapshotResource, snapshotURI, &snap)
	require.Len(t, snap.Calendars, 1)
	assert.Len(t, snap.Calendars[0].Events, 2)

	var assignments struct {
		Count      int             `json:"candidate_count"`
		Candidates []CandidateView `json:"candidates"`
	}
	readResource(t, f.srv.handleAssignmentsResource, assignmentsURI, &assignments)
	assert.Equal(t, 2, assignments.Count)
	assert.Len(t, assignments.Candidates, 2)
}

func TestCalendarsResource_SignedOut(t *testing.T) {
	f, _ := newOAuthServer(t)

	_, err := f.srv.handleCalendarsResource(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: calendarsURI},
	})
	assert.Error(t, err)

	var snap SnapshotView
	readResource(t, f.srv.handleSnapshotResource, snapshotURI, &snap)
	assert.Empty(t, snap.Calendars)
	assert.Empty(t, snap.Timezone)
}

func TestPrompts(t *testing.T) {
	f := newFixture(t, `{}`)
	ctx := context.Background()

	tests := []struct {
		name          string
		handler       func(context.Context, mcp.GetPromptRequest) (*mcp.GetPromptResult, error)
		args          map[string]string
		contains      []string
		expectError   bool
		errorContains string
	}{
		{
			name:     "syllabus_import with calendar and scare mode",
			handler:  f.srv.handleSyllabusImportPrompt,
			args:     map[string]string{"text": "Essay due March 1", "calendar_id": "school", "scare_mode": "true"},
			contains: []string{"Essay due March 1", `"school"`, "one day early", "assignments_extract"},
		},
		{
			name:     "syllabus_import defaults",
			handler:  f.srv.handleSyllabusImportPrompt,
			args:     map[string]string{"text": "Quiz Friday"},
			contains: []string{"calendars_list", "leave scare mode off"},
		},
		{
			name:          "syllabus_import missing text",
			handler:       f.srv.handleSyllabusImportPrompt,
			args:          map[string]string{},
			expectError:   true,
			errorContains: "required",
		},
		{
			name:     "plan_deadlines default window",
			handler:  f.srv.handlePlanDeadlinesPrompt,
			args:     map[string]string{},
			contains: []string{"next 7 days", "events_refresh"},
		},
		{
			name:     "plan_deadlines custom window",
			handler:  f.srv.handlePlanDeadlinesPrompt,
			args:     map[string]string{"days": "14"},
			contains: []string{"next 14 days"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(ctx, mcp.GetPromptRequest{
				Request: mcp.Request{Method: "prompts/get"},
				Params:  mcp.GetPromptParams{Arguments: tt.args},
			})

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			require.Len(t, result.Messages, 1)
			assert.Equal(t, mcp.RoleUser, result.Messages[0].Role)

			text, ok := result.Messages[0].Content.(mcp.TextContent)
			require.True(t, ok)
			for _, want := range tt.contains {
				assert.Contains(t, text.Text, want)
			}
		})
	}
}
