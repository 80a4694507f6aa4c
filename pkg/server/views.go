// ABOUTME: JSON views over dashboard state returned by tools and resources
// ABOUTME: Events render in the account zone; all-day spans show the inclusive last day

package server

import (
	"time"

	"github.com/harper/deadline-mcp/pkg/aggregate"
	"github.com/harper/deadline-mcp/pkg/assignment"
	"github.com/harper/deadline-mcp/pkg/event"
	"github.com/harper/deadline-mcp/pkg/normalize"
	"github.com/harper/deadline-mcp/pkg/schedule"
)

// CalendarView is one account calendar and whether it is shown.
type CalendarView struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	AccentColor string `json:"accent_color,omitempty"`
	Selected    bool   `json:"selected"`
}

// EventView is an event as a user sees it.
type EventView struct {
	ID         string `json:"id"`
	CalendarID string `json:"calendar_id"`
	Title      string `json:"title"`
	AllDay     bool   `json:"all_day"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// CalendarEventsView groups one calendar's events in start order.
type CalendarEventsView struct {
	CalendarID  string      `json:"calendar_id"`
	Summary     string      `json:"summary,omitempty"`
	AccentColor string      `json:"accent_color,omitempty"`
	Events      []EventView `json:"events"`
}

// SnapshotView is the rendered aggregation snapshot.
type SnapshotView struct {
	Timezone  string               `json:"timezone,omitempty"`
	Since     string               `json:"since,omitempty"`
	Calendars []CalendarEventsView `json:"calendars"`
}

// CandidateView is one extracted assignment awaiting a calendar.
type CandidateView struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	DueDate       string `json:"due_date"`
	DueTime       string `json:"due_time,omitempty"`
	ScareMode     bool   `json:"scare_mode"`
	EffectiveDate string `json:"effective_date"`
	CalendarID    string `json:"calendar_id,omitempty"`
	Editing       bool   `json:"editing"`
	State         string `json:"state"`
}

func (s *Server) calendarViews(cals []event.Calendar) []CalendarView {
	out := make([]CalendarView, 0, len(cals))
	for _, c := range cals {
		out = append(out, CalendarView{
			ID:          c.ID,
			Summary:     c.Summary,
			AccentColor: c.AccentColor,
			Selected:    s.dash.Selection.Contains(c.ID),
		})
	}
	return out
}

func (s *Server) snapshotView(snap aggregate.Snapshot) SnapshotView {
	loc := snap.Zone.Location
	if loc == nil {
		loc = time.UTC
	}

	// calendar metadata is best effort; a signed-out dashboard has none
	meta := map[string]event.Calendar{}
	if cals, err := s.dash.Calendars(); err == nil {
		for _, c := range cals {
			meta[c.ID] = c
		}
	}

	view := SnapshotView{
		Timezone:  snap.Zone.Name,
		Calendars: make([]CalendarEventsView, 0, len(snap.Calendars)),
	}
	if !snap.Since.IsZero() {
		view.Since = snap.Since.In(loc).Format(time.RFC3339)
	}

	for _, id := range snap.Calendars {
		group := CalendarEventsView{
			CalendarID:  id,
			Summary:     meta[id].Summary,
			AccentColor: meta[id].AccentColor,
			Events:      make([]EventView, 0, len(snap.Events[id])),
		}
		for _, e := range snap.Events[id] {
			group.Events = append(group.Events, eventView(e, loc))
		}
		view.Calendars = append(view.Calendars, group)
	}
	return view
}

func eventView(e event.Event, loc *time.Location) EventView {
	r := normalize.Display(e, loc)
	return EventView{
		ID:         e.ID,
		CalendarID: e.CalendarID,
		Title:      e.Title,
		AllDay:     r.AllDay,
		Start:      r.Start,
		End:        r.End,
	}
}

func candidateView(e assignment.Entry) CandidateView {
	c := e.Candidate
	v := CandidateView{
		ID:            c.ID,
		Title:         c.Title,
		DueDate:       c.DueDate.String(),
		ScareMode:     c.ScareMode,
		EffectiveDate: schedule.EffectiveDueDate(c).String(),
		CalendarID:    c.ChosenCalendarID,
		Editing:       e.View.Editing,
		State:         e.State.String(),
	}
	if c.DueTime != nil {
		v.DueTime = c.DueTime.String()
	}
	return v
}

func candidateViews(entries []assignment.Entry) []CandidateView {
	out := make([]CandidateView, 0, len(entries))
	for _, e := range entries {
		out = append(out, candidateView(e))
	}
	return out
}
