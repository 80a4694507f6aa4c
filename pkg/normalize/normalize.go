// ABOUTME: Converts between domain events and Google Calendar wire resources
// ABOUTME: Handles timed dateTime/timeZone pairs and exclusive-end all-day dates

package normalize

import (
	"errors"
	"fmt"
	"time"

	"github.com/harper/deadline-mcp/pkg/event"
	"github.com/harper/deadline-mcp/pkg/timezone"
	"google.golang.org/api/calendar/v3"
)

// DisplayLayout is how timed instants are rendered for a user.
const DisplayLayout = "Mon Jan 2 2006 15:04 MST"

var errNoStart = errors.New("event has no start")

// ToWire converts a domain event into a calendar resource suitable for insert.
func ToWire(e event.Event) (*calendar.Event, error) {
	w := &calendar.Event{
		Id:      e.ID,
		Summary: e.Title,
	}

	switch start := e.Start.(type) {
	case event.Timed:
		end, ok := e.End.(event.Timed)
		if !ok {
			return nil, event.ErrMixedTimePoints
		}
		startDT, err := timedToWire(start)
		if err != nil {
			return nil, err
		}
		endDT, err := timedToWire(end)
		if err != nil {
			return nil, err
		}
		w.Start, w.End = startDT, endDT

	case event.AllDay:
		endDate := start.Date.AddDays(1)
		if end, ok := e.End.(event.AllDay); ok && end.Date.After(start.Date) {
			endDate = end.Date
		} else if _, isTimed := e.End.(event.Timed); isTimed {
			return nil, event.ErrMixedTimePoints
		}
		w.Start = &calendar.EventDateTime{Date: start.Date.String()}
		w.End = &calendar.EventDateTime{Date: endDate.String()}

	default:
		return nil, errNoStart
	}

	return w, nil
}

func timedToWire(t event.Timed) (*calendar.EventDateTime, error) {
	loc := time.UTC
	if t.Zone != "" {
		z, err := timezone.Load(t.Zone)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", t.Zone, err)
		}
		loc = z.Location
	}
	return &calendar.EventDateTime{
		DateTime: t.Instant.In(loc).Format(time.RFC3339),
		TimeZone: t.Zone,
	}, nil
}

// ToDomain converts a calendar resource into a domain event owned by calendarID.
// Timed ends without a timeZone take the fallback zone's name.
func ToDomain(calendarID string, w *calendar.Event, fallback timezone.Zone) (event.Event, error) {
	if w == nil || w.Start == nil {
		return event.Event{}, errNoStart
	}

	var start, end event.TimePoint
	if w.Start.DateTime != "" {
		s, err := timedToDomain(w.Start, fallback)
		if err != nil {
			return event.Event{}, fmt.Errorf("event %s start: %w", w.Id, err)
		}
		start = s
		if w.End == nil || w.End.DateTime == "" {
			return event.Event{}, fmt.Errorf("event %s: %w", w.Id, event.ErrMixedTimePoints)
		}
		e, err := timedToDomain(w.End, fallback)
		if err != nil {
			return event.Event{}, fmt.Errorf("event %s end: %w", w.Id, err)
		}
		end = e
	} else {
		d, err := event.ParseDate(w.Start.Date)
		if err != nil {
			return event.Event{}, fmt.Errorf("event %s start: %w", w.Id, err)
		}
		start = event.AllDay{Date: d}
		end = event.AllDay{Date: d.AddDays(1)}
		if w.End != nil && w.End.Date != "" {
			ed, err := event.ParseDate(w.End.Date)
			if err != nil {
				return event.Event{}, fmt.Errorf("event %s end: %w", w.Id, err)
			}
			end = event.AllDay{Date: ed}
		}
	}

	return event.New(w.Id, calendarID, w.Summary, start, end)
}

func timedToDomain(dt *calendar.EventDateTime, fallback timezone.Zone) (event.Timed, error) {
	at, err := time.Parse(time.RFC3339, dt.DateTime)
	if err != nil {
		return event.Timed{}, err
	}
	zone := dt.TimeZone
	if zone == "" {
		zone = fallback.Name
	}
	return event.NewTimed(at, zone), nil
}

// DisplayRange is a user-facing rendering of an event's span.
type DisplayRange struct {
	AllDay bool   `json:"allDay"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// Display renders e for a user in loc. All-day events show the inclusive
// last day, never the stored exclusive end.
func Display(e event.Event, loc *time.Location) DisplayRange {
	switch start := e.Start.(type) {
	case event.Timed:
		r := DisplayRange{Start: start.Instant.In(loc).Format(DisplayLayout)}
		if end, ok := e.End.(event.Timed); ok {
			r.End = end.Instant.In(loc).Format(DisplayLayout)
		}
		return r
	case event.AllDay:
		r := DisplayRange{AllDay: true, Start: start.Date.String(), End: start.Date.String()}
		if last, ok := e.LastDay(); ok && !last.Before(start.Date) {
			r.End = last.String()
		}
		return r
	}
	return DisplayRange{}
}
