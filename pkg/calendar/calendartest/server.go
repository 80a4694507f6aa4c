// ABOUTME: In-memory fake of the Google Calendar v3 REST surface for tests
// ABOUTME: Serves calendarList, events list/insert/delete and the timezone setting

package calendartest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"google.golang.org/api/calendar/v3"
)

// Server is a fake Calendar backend. Zero or more calendars can be seeded
// with events; failures can be injected per calendar.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	calendars  []*calendar.CalendarListEntry
	events     map[string][]*calendar.Event
	timezone   string
	failList   map[string]int
	failInsert int
	nextID     int
	listQuery  map[string]url.Values
	inserted   map[string][]*calendar.Event
	deleted    []string
	wantAuth   string
	lastAuth   string
}

// NewServer starts a fake backend. Close it with t.Cleanup(srv.Close).
func NewServer() *Server {
	s := &Server{
		events:    map[string][]*calendar.Event{},
		failList:  map[string]int{},
		listQuery: map[string]url.Values{},
		inserted:  map[string][]*calendar.Event{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Endpoint is the base URL to pass to calendar.NewService.
func (s *Server) Endpoint() string {
	return s.URL + "/"
}

// AddCalendar seeds a calendar with events.
func (s *Server) AddCalendar(id, summary, color string, events ...*calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendars = append(s.calendars, &calendar.CalendarListEntry{Id: id, Summary: summary, BackgroundColor: color})
	s.events[id] = append(s.events[id], events...)
}

// SetTimezone sets the account timezone setting. Empty means unset.
func (s *Server) SetTimezone(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timezone = name
}

// FailList makes event listing for calendarID answer with status.
func (s *Server) FailList(calendarID string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failList[calendarID] = status
}

// FailInsert makes every insert answer with status; 0 clears it.
func (s *Server) FailInsert(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failInsert = status
}

// ListQuery returns the query of the most recent events list for calendarID.
func (s *Server) ListQuery(calendarID string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listQuery[calendarID]
}

// Inserted returns the resources inserted into calendarID.
func (s *Server) Inserted(calendarID string) []*calendar.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*calendar.Event(nil), s.inserted[calendarID]...)
}

// RequireAuthorization rejects requests whose Authorization header differs
// from header with 401. Empty accepts everything.
func (s *Server) RequireAuthorization(header string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wantAuth = header
}

// LastAuthorization returns the Authorization header of the latest request.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// Deleted returns "calendarID/eventID" keys of deleted events.
func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.lastAuth = r.Header.Get("Authorization")
	rejected := s.wantAuth != "" && s.lastAuth != s.wantAuth
	s.mu.Unlock()
	if rejected {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	path := r.URL.Path
	switch {
	case path == "/users/me/calendarList" && r.Method == http.MethodGet:
		s.mu.Lock()
		items := append([]*calendar.CalendarListEntry(nil), s.calendars...)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case path == "/users/me/settings/timezone" && r.Method == http.MethodGet:
		s.mu.Lock()
		tz := s.timezone
		s.mu.Unlock()
		if tz == "" {
			writeError(w, http.StatusNotFound, "setting not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "timezone", "value": tz})

	case strings.HasPrefix(path, "/calendars/"):
		s.handleEvents(w, r, strings.TrimPrefix(path, "/calendars/"))

	default:
		writeError(w, http.StatusNotFound, "no route for "+r.Method+" "+path)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, rest string) {
	calendarID, tail, ok := strings.Cut(rest, "/events")
	if !ok {
		writeError(w, http.StatusNotFound, "unknown calendar path")
		return
	}
	eventID := strings.TrimPrefix(tail, "/")

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && eventID == "":
		s.listQuery[calendarID] = r.URL.Query()
		if status := s.failList[calendarID]; status != 0 {
			writeError(w, status, "injected list failure")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": s.events[calendarID]})

	case r.Method == http.MethodPost && eventID == "":
		if s.failInsert != 0 {
			writeError(w, s.failInsert, "injected insert failure")
			return
		}
		var ev calendar.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.nextID++
		ev.Id = fmt.Sprintf("evt-%d", s.nextID)
		s.events[calendarID] = append(s.events[calendarID], &ev)
		s.inserted[calendarID] = append(s.inserted[calendarID], &ev)
		writeJSON(w, http.StatusOK, &ev)

	case r.Method == http.MethodDelete && eventID != "":
		items := s.events[calendarID]
		for i, ev := range items {
			if ev.Id == eventID {
				s.events[calendarID] = append(items[:i:i], items[i+1:]...)
				s.deleted = append(s.deleted, calendarID+"/"+eventID)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeError(w, http.StatusNotFound, "event not found")

	default:
		writeError(w, http.StatusMethodNotAllowed, r.Method)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": status, "message": message},
	})
}
