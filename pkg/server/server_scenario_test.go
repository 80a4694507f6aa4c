// ABOUTME: End-to-end scenarios driven through JSON-RPC message dispatch
// ABOUTME: Exercises a full syllabus import day against the fake backends

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcResult struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// rpc sends one JSON-RPC request to the MCP server and decodes the reply.
func rpc(t *testing.T, f *fixture, id int, method string, params interface{}) rpcResult {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	reply := f.srv.MCP().HandleMessage(context.Background(), raw)
	require.NotNil(t, reply)
	encoded, err := json.Marshal(reply)
	require.NoError(t, err)

	var out rpcResult
	require.NoError(t, json.Unmarshal(encoded, &out))
	require.Nil(t, out.Error, "rpc error: %s", encoded)
	return out
}

// callTool invokes a tool and unmarshals its JSON payload into v when non-nil.
func callTool(t *testing.T, f *fixture, id int, name string, args map[string]interface{}, v interface{}) {
	t.Helper()
	out := rpc(t, f, id, "tools/call", map[string]interface{}{"name": name, "arguments": args})
	require.NotEmpty(t, out.Result.Content)
	text := out.Result.Content[0].Text
	require.False(t, out.Result.IsError, "%s failed: %s", name, text)
	if v != nil {
		require.NoError(t, json.Unmarshal([]byte(text), v), "decode %s", name)
	}
}

func TestScenario_SyllabusImportDay(t *testing.T) {
	f := newFixture(t, syllabusBody)

	rpc(t, f, 1, "initialize", map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]interface{}{"name": "scenario", "version": "0.0.1"},
		"capabilities":    map[string]interface{}{},
	})

	var cals []CalendarView
	callTool(t, f, 2, "calendars_list", nil, &cals)
	require.Len(t, cals, 2)

	var toggled ToggleResponse
	callTool(t, f, 3, "calendar_toggle", map[string]interface{}{"calendar_id": "school"}, &toggled)
	assert.True(t, toggled.Selected)

	var cands []CandidateView
	callTool(t, f, 4, "assignments_extract", map[string]interface{}{"text": "Essay 1 due March 1, lab report March 5 at 2pm"}, &cands)
	require.Len(t, cands, 2)

	for i, c := range cands {
		callTool(t, f, 10+i, "assignment_edit", map[string]interface{}{
			"candidate_id": c.ID,
			"calendar_id":  "school",
		}, nil)
	}
	callTool(t, f, 20, "assignment_toggle_scare", map[string]interface{}{"candidate_id": cands[0].ID}, nil)

	for i, c := range cands {
		var ev EventView
		callTool(t, f, 30+i, "assignment_commit", map[string]interface{}{"candidate_id": c.ID}, &ev)
		assert.Equal(t, "school", ev.CalendarID)
	}

	var remaining []CandidateView
	callTool(t, f, 40, "assignments_list", nil, &remaining)
	assert.Empty(t, remaining)

	inserted := f.backend.Inserted("school")
	require.Len(t, inserted, 2)
	assert.Equal(t, "2024-02-29", inserted[0].Start.Date, "scare mode moves the essay a day early")
	assert.Equal(t, "2024-03-05T14:00:00-05:00", inserted[1].Start.DateTime)

	var snap SnapshotView
	callTool(t, f, 50, "events_list", nil, &snap)
	require.Len(t, snap.Calendars, 1)
	assert.Len(t, snap.Calendars[0].Events, 2)
}

func TestScenario_ToolsListAdvertisesEveryTool(t *testing.T) {
	f := newFixture(t, `{}`)

	raw, err := json.Marshal(map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": "tools/list"})
	require.NoError(t, err)
	encoded, err := json.Marshal(f.srv.MCP().HandleMessage(context.Background(), raw))
	require.NoError(t, err)

	var out struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(encoded, &out))

	names := make(map[string]bool)
	for _, tool := range out.Result.Tools {
		names[tool.Name] = true
	}
	for _, want := range f.srv.ListTools() {
		assert.True(t, names[want.Name], fmt.Sprintf("%s missing from tools/list", want.Name))
	}
	assert.Len(t, names, len(f.srv.ListTools()))
}
