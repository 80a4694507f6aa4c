// ABOUTME: Holds the signed-in remote calendar client for the dashboard
// ABOUTME: Every call fails with AuthMissing while no session is present

package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/harper/deadline-mcp/pkg/apperr"
	"github.com/harper/deadline-mcp/pkg/event"
	"google.golang.org/api/calendar/v3"
)

// Remote is the calendar client capability set the dashboard consumes.
type Remote interface {
	ListCalendars(ctx context.Context) ([]event.Calendar, error)
	ListEvents(ctx context.Context, calendarID string, since time.Time) ([]*calendar.Event, error)
	InsertEvent(ctx context.Context, calendarID string, ev *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	AccountTimezone(ctx context.Context) (string, error)
}

// session forwards to the current Remote.
type session struct {
	mu     sync.RWMutex
	remote Remote
}

func (s *session) set(r Remote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = r
}

func (s *session) connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remote != nil
}

func (s *session) get(op string) (Remote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.remote == nil {
		return nil, apperr.New(apperr.AuthMissing, op, "not signed in")
	}
	return s.remote, nil
}

func (s *session) ListCalendars(ctx context.Context) ([]event.Calendar, error) {
	r, err := s.get("list calendars")
	if err != nil {
		return nil, err
	}
	return r.ListCalendars(ctx)
}

func (s *session) ListEvents(ctx context.Context, calendarID string, since time.Time) ([]*calendar.Event, error) {
	r, err := s.get("list events")
	if err != nil {
		return nil, err
	}
	return r.ListEvents(ctx, calendarID, since)
}

func (s *session) InsertEvent(ctx context.Context, calendarID string, ev *calendar.Event) (*calendar.Event, error) {
	r, err := s.get("insert event")
	if err != nil {
		return nil, err
	}
	return r.InsertEvent(ctx, calendarID, ev)
}

func (s *session) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	r, err := s.get("delete event")
	if err != nil {
		return err
	}
	return r.DeleteEvent(ctx, calendarID, eventID)
}

func (s *session) AccountTimezone(ctx context.Context) (string, error) {
	r, err := s.get("read timezone")
	if err != nil {
		return "", err
	}
	return r.AccountTimezone(ctx)
}
