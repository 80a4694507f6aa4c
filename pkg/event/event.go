// ABOUTME: Domain model for calendars and events
// ABOUTME: TimePoint is a tagged union of all-day dates and timed instants

package event

import (
	"errors"
	"fmt"
	"time"
)

// Calendar is a remote calendar. Identity is owned by the remote service.
type Calendar struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	AccentColor string `json:"accentColor,omitempty"`
}

// TimePoint is either AllDay or Timed. Consumers must handle both.
type TimePoint interface {
	isTimePoint()
}

// AllDay is a date with no time-of-day.
type AllDay struct {
	Date Date
}

// Timed is an absolute instant plus the IANA zone used to render it.
type Timed struct {
	Instant time.Time
	Zone    string
}

func (AllDay) isTimePoint() {}
func (Timed) isTimePoint()  {}

// NewTimed builds a Timed point, normalising the instant to UTC.
func NewTimed(instant time.Time, zone string) Timed {
	return Timed{Instant: instant.UTC(), Zone: zone}
}

// Event is a calendar event owned by CalendarID.
// For all-day events End holds the exclusive end date (the day after the last included day).
type Event struct {
	ID         string
	CalendarID string
	Title      string
	Start      TimePoint
	End        TimePoint
}

var (
	ErrMixedTimePoints = errors.New("start and end must both be all-day or both be timed")
	ErrEndNotAfter     = errors.New("end must be after start")
	ErrMissingTime     = errors.New("start and end are required")
)

// New validates and builds an Event.
func New(id, calendarID, title string, start, end TimePoint) (Event, error) {
	e := Event{ID: id, CalendarID: calendarID, Title: title, Start: normalise(start), End: normalise(end)}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// NewAllDay builds a single-day all-day event for date.
func NewAllDay(id, calendarID, title string, date Date) Event {
	return Event{
		ID:         id,
		CalendarID: calendarID,
		Title:      title,
		Start:      AllDay{Date: date},
		End:        AllDay{Date: date.AddDays(1)},
	}
}

func normalise(tp TimePoint) TimePoint {
	if t, ok := tp.(Timed); ok {
		return NewTimed(t.Instant, t.Zone)
	}
	return tp
}

// Validate checks the start/end invariants.
func (e Event) Validate() error {
	if e.Start == nil || e.End == nil {
		return ErrMissingTime
	}
	switch s := e.Start.(type) {
	case Timed:
		end, ok := e.End.(Timed)
		if !ok {
			return ErrMixedTimePoints
		}
		if !end.Instant.After(s.Instant) {
			return fmt.Errorf("%w: %s is not after %s", ErrEndNotAfter, end.Instant.Format(time.RFC3339), s.Instant.Format(time.RFC3339))
		}
	case AllDay:
		end, ok := e.End.(AllDay)
		if !ok {
			return ErrMixedTimePoints
		}
		if !end.Date.After(s.Date) {
			return fmt.Errorf("%w: %s is not after %s", ErrEndNotAfter, end.Date, s.Date)
		}
	default:
		return fmt.Errorf("unknown time point %T", e.Start)
	}
	return nil
}

// IsAllDay reports whether the event starts on a date rather than an instant.
func (e Event) IsAllDay() bool {
	_, ok := e.Start.(AllDay)
	return ok
}

// StartInstant is the sort key: the timed instant, or midnight of the
// all-day start date in loc.
func (e Event) StartInstant(loc *time.Location) time.Time {
	switch s := e.Start.(type) {
	case Timed:
		return s.Instant
	case AllDay:
		return s.Date.In(loc)
	}
	return time.Time{}
}

// LastDay returns the inclusive last day of an all-day event.
func (e Event) LastDay() (Date, bool) {
	end, ok := e.End.(AllDay)
	if !ok {
		return Date{}, false
	}
	return end.Date.AddDays(-1), true
}

// Equal compares two events, treating instants as equal when they denote the same moment.
func (e Event) Equal(o Event) bool {
	return e.ID == o.ID &&
		e.CalendarID == o.CalendarID &&
		e.Title == o.Title &&
		pointEqual(e.Start, o.Start) &&
		pointEqual(e.End, o.End)
}

func pointEqual(a, b TimePoint) bool {
	switch x := a.(type) {
	case Timed:
		y, ok := b.(Timed)
		return ok && x.Zone == y.Zone && x.Instant.Equal(y.Instant)
	case AllDay:
		y, ok := b.(AllDay)
		return ok && x.Date == y.Date
	}
	return a == nil && b == nil
}
