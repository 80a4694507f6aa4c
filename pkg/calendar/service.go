// ABOUTME: Google Calendar API adapter consumed by the aggregation core
// ABOUTME: Lists calendars and events, inserts/deletes events, reads the account timezone

package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/harper/deadline-mcp/pkg/apperr"
	"github.com/harper/deadline-mcp/pkg/event"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// MaxEventsPerCalendar caps each per-calendar fetch.
const MaxEventsPerCalendar = 50

// Service wraps Calendar API operations
type Service struct {
	svc *calendar.Service
}

// NewService creates a new Calendar service. A non-empty endpoint points the
// client at an ish backend instead of Google.
func NewService(ctx context.Context, client *http.Client, endpoint string) (*Service, error) {
	opts := []option.ClientOption{}

	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
		opts = append(opts, option.WithoutAuthentication())
	}

	if client != nil {
		opts = append(opts, option.WithHTTPClient(client))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}

	return &Service{svc: svc}, nil
}

// ListCalendars lists every calendar on the account
func (s *Service) ListCalendars(ctx context.Context) ([]event.Calendar, error) {
	var out []event.Calendar
	err := s.svc.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, item := range page.Items {
			out = append(out, event.Calendar{
				ID:          item.Id,
				Summary:     item.Summary,
				AccentColor: item.BackgroundColor,
			})
		}
		return nil
	})
	if err != nil {
		return nil, classify("unable to list calendars", err)
	}
	return out, nil
}

// ListEvents lists single-occurrence, non-deleted events starting from since
func (s *Service) ListEvents(ctx context.Context, calendarID string, since time.Time) ([]*calendar.Event, error) {
	events, err := s.svc.Events.List(calendarID).
		TimeMin(since.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(MaxEventsPerCalendar).
		ShowDeleted(false).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(fmt.Sprintf("unable to list events for %s", calendarID), err)
	}

	return events.Items, nil
}

// InsertEvent creates an event on the given calendar
func (s *Service) InsertEvent(ctx context.Context, calendarID string, ev *calendar.Event) (*calendar.Event, error) {
	created, err := s.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, classify("unable to create event", err)
	}

	return created, nil
}

// DeleteEvent deletes an event
func (s *Service) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := s.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return classify("unable to delete event", err)
	}
	return nil
}

// AccountTimezone reads the account's timezone setting; empty when unset
func (s *Service) AccountTimezone(ctx context.Context) (string, error) {
	setting, err := s.svc.Settings.Get("timezone").Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return "", nil
		}
		return "", classify("unable to read timezone setting", err)
	}
	return setting.Value, nil
}

// classify maps a Google API error onto an error kind. 401 means the session
// token is gone; everything else is a remote failure.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
		return apperr.Wrap(apperr.AuthMissing, op, err)
	}
	return apperr.Wrap(apperr.RemoteCallFailure, op, err)
}
