// ABOUTME: MCP prompt templates for deadline workflows
// ABOUTME: Guides a client through importing a syllabus and planning upcoming work

package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerPrompts registers all MCP prompts
func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(
		mcp.NewPrompt(
			"syllabus_import",
			mcp.WithPromptDescription("Turn a syllabus or course schedule into calendar deadlines"),
			mcp.WithArgument("text", mcp.ArgumentDescription("Syllabus text to extract assignments from"), mcp.RequiredArgument()),
			mcp.WithArgument("calendar_id", mcp.ArgumentDescription("Calendar to add the assignments to")),
			mcp.WithArgument("scare_mode", mcp.ArgumentDescription("Set to 'true' to schedule every assignment one day early")),
		),
		s.handleSyllabusImportPrompt,
	)

	s.mcp.AddPrompt(
		mcp.NewPrompt(
			"plan_deadlines",
			mcp.WithPromptDescription("Review upcoming deadlines across the shown calendars and suggest a work plan"),
			mcp.WithArgument("days", mcp.ArgumentDescription("How many days ahead to plan (default: 7)")),
		),
		s.handlePlanDeadlinesPrompt,
	)
}

func (s *Server) handleSyllabusImportPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	text := strings.TrimSpace(request.Params.Arguments["text"])
	if text == "" {
		return nil, fmt.Errorf("text argument is required")
	}

	target := "ask me which calendar to use (see calendars_list)"
	if id := request.Params.Arguments["calendar_id"]; id != "" {
		target = fmt.Sprintf("use calendar %q for every assignment", id)
	}

	scare := "leave scare mode off unless I ask for it"
	if request.Params.Arguments["scare_mode"] == "true" {
		scare = "turn scare mode on for every assignment so each lands one day early"
	}

	promptText := fmt.Sprintf(`I want to add the deadlines from this syllabus to my calendar.

**Steps:**
1. **Extract** assignments with assignments_extract using the text below
2. **Review** the candidates from assignments_list:
   - Fix titles, due dates and due times with assignment_edit
   - Discard anything that is not a real deadline with assignment_remove
3. **Choose a calendar**: %s
4. **Scare mode**: %s
5. **Add** each candidate with assignment_commit and report any that failed
6. **Confirm** with events_list that the new deadlines appear

**Syllabus:**
%s`, target, scare, text)

	messages := []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
	}

	return mcp.NewGetPromptResult("Import syllabus deadlines", messages), nil
}

func (s *Server) handlePlanDeadlinesPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	days := "7"
	if d := request.Params.Arguments["days"]; d != "" {
		days = d
	}

	promptText := fmt.Sprintf(`Help me plan my work for the next %s days.

**Analysis:**
1. **Refresh** events with events_refresh
2. **Collect deadlines** from every shown calendar:
   - All-day events are due by the end of that day
   - Timed events are due at their start time
3. **Order by urgency** and flag anything due within 48 hours
4. **Spot conflicts** where several deadlines fall on the same day

**Plan Format:**
- Day-by-day list of what to work on
- Which deadlines are at risk
- Suggestions for deadlines worth moving earlier with scare mode

Let me look at your calendars...`, days)

	messages := []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
	}

	return mcp.NewGetPromptResult("Deadline planning", messages), nil
}
