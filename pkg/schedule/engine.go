// ABOUTME: Turns accepted candidates and manual entries into calendar events
// ABOUTME: Applies scare mode, the one-hour default and exclusive all-day ends

package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harper/deadline-mcp/pkg/apperr"
	"github.com/harper/deadline-mcp/pkg/assignment"
	"github.com/harper/deadline-mcp/pkg/event"
	"github.com/harper/deadline-mcp/pkg/metrics"
	"github.com/harper/deadline-mcp/pkg/normalize"
	"github.com/harper/deadline-mcp/pkg/timezone"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
)

// DefaultDuration is the length of every timed event this engine writes.
const DefaultDuration = time.Hour

const (
	sourceAssignment = "assignment"
	sourceManual     = "manual"
)

// Inserter writes an event to a remote calendar.
type Inserter interface {
	InsertEvent(ctx context.Context, calendarID string, ev *calendar.Event) (*calendar.Event, error)
}

// ZoneResolver resolves the account timezone. It must be the same resolver
// the aggregator uses.
type ZoneResolver interface {
	Resolve(ctx context.Context) (timezone.Zone, error)
}

// Calendars reports which calendars are currently loaded.
type Calendars interface {
	HasCalendar(id string) bool
	FirstCalendar() (string, bool)
}

// Config wires an Engine.
type Config struct {
	Remote     Inserter
	Resolver   ZoneResolver
	Candidates *assignment.Store
	Calendars  Calendars
	// Refresh is requested after every successful write.
	Refresh func(ctx context.Context) error
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Engine commits events.
type Engine struct {
	remote     Inserter
	resolver   ZoneResolver
	candidates *assignment.Store
	calendars  Calendars
	refresh    func(ctx context.Context) error
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// New creates an engine
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		remote:     cfg.Remote,
		resolver:   cfg.Resolver,
		candidates: cfg.Candidates,
		calendars:  cfg.Calendars,
		refresh:    cfg.Refresh,
		logger:     logger,
		metrics:    cfg.Metrics,
	}
}

// Commit writes one candidate to its chosen calendar. Validation happens
// before any remote call. On success the candidate is removed and a refresh
// is requested; on failure it returns to Extracted unchanged.
func (e *Engine) Commit(ctx context.Context, candidateID string) (event.Event, error) {
	entry, err := e.candidates.Get(candidateID)
	if err != nil {
		return event.Event{}, err
	}
	if id := entry.Candidate.ChosenCalendarID; id != "" && !e.calendars.HasCalendar(id) {
		e.metrics.Commit(sourceAssignment, metrics.ResultRejected)
		return event.Event{}, apperr.Validation("commit", "calendar %s is not loaded", id)
	}

	cand, err := e.candidates.BeginCommit(candidateID)
	if err != nil {
		e.metrics.Commit(sourceAssignment, metrics.ResultRejected)
		return event.Event{}, err
	}

	written, err := e.write(ctx, sourceAssignment, func(zone timezone.Zone) (event.Event, error) {
		return BuildAssignmentEvent(cand, zone)
	})
	if err != nil {
		e.candidates.AbortCommit(candidateID)
		return event.Event{}, err
	}

	e.candidates.CompleteCommit(candidateID)
	e.logger.Info("assignment committed",
		zap.String("candidate_id", candidateID),
		zap.String("calendar_id", written.CalendarID),
		zap.String("event_id", written.ID))
	e.requestRefresh(ctx)
	return written, nil
}

// ManualEvent is a user-entered event. An empty CalendarID selects the first
// loaded calendar; a nil Time makes an all-day event.
type ManualEvent struct {
	Title      string
	CalendarID string
	Date       event.Date
	Time       *event.Clock
}

// AddManual writes a user-entered event and requests a refresh.
func (e *Engine) AddManual(ctx context.Context, m ManualEvent) (event.Event, error) {
	if m.CalendarID == "" {
		if first, ok := e.calendars.FirstCalendar(); ok {
			m.CalendarID = first
		}
	}
	if err := validateManual(m, e.calendars); err != nil {
		e.metrics.Commit(sourceManual, metrics.ResultRejected)
		return event.Event{}, err
	}

	title := strings.TrimSpace(m.Title)
	if m.Time != nil {
		title = fmt.Sprintf("%s (%s)", title, m.Time)
	}

	written, err := e.write(ctx, sourceManual, func(zone timezone.Zone) (event.Event, error) {
		return BuildEvent(m.CalendarID, title, m.Date, m.Time, zone)
	})
	if err != nil {
		return event.Event{}, err
	}
	e.requestRefresh(ctx)
	return written, nil
}

func validateManual(m ManualEvent, cals Calendars) error {
	switch {
	case strings.TrimSpace(m.Title) == "":
		return apperr.Validation("add event", "title is required")
	case m.Date.IsZero():
		return apperr.Validation("add event", "date is required")
	case m.CalendarID == "":
		return apperr.Validation("add event", "no calendar available")
	case !cals.HasCalendar(m.CalendarID):
		return apperr.Validation("add event", "calendar %s is not loaded", m.CalendarID)
	}
	return nil
}

// write resolves the zone once, builds the event in it and inserts it.
func (e *Engine) write(ctx context.Context, source string, build func(timezone.Zone) (event.Event, error)) (event.Event, error) {
	zone, err := e.resolver.Resolve(ctx)
	if err != nil {
		e.metrics.Commit(source, metrics.ResultFailed)
		return event.Event{}, err
	}

	ev, err := build(zone)
	if err != nil {
		e.metrics.Commit(source, metrics.ResultRejected)
		return event.Event{}, apperr.Wrap(apperr.ValidationFailure, "build event", err)
	}

	wire, err := normalize.ToWire(ev)
	if err != nil {
		e.metrics.Commit(source, metrics.ResultRejected)
		return event.Event{}, apperr.Wrap(apperr.ValidationFailure, "build event", err)
	}

	created, err := e.remote.InsertEvent(ctx, ev.CalendarID, wire)
	if err != nil {
		e.metrics.Commit(source, metrics.ResultFailed)
		e.logger.Warn("event insert failed",
			zap.String("source", source),
			zap.String("calendar_id", ev.CalendarID),
			zap.Error(err))
		return event.Event{}, err
	}

	e.metrics.Commit(source, metrics.ResultOK)
	if created != nil {
		ev.ID = created.Id
	}
	return ev, nil
}

func (e *Engine) requestRefresh(ctx context.Context) {
	if e.refresh == nil {
		return
	}
	if err := e.refresh(ctx); err != nil {
		e.logger.Warn("post-commit refresh failed", zap.Error(err))
	}
}

// EffectiveDueDate is the due date shifted one day earlier in scare mode.
// The candidate itself is never modified.
func EffectiveDueDate(c assignment.Candidate) event.Date {
	if c.ScareMode {
		return c.DueDate.AddDays(-1)
	}
	return c.DueDate
}

// BuildAssignmentEvent builds the event a candidate commits to.
func BuildAssignmentEvent(c assignment.Candidate, zone timezone.Zone) (event.Event, error) {
	return BuildEvent(c.ChosenCalendarID, c.Title, EffectiveDueDate(c), c.DueTime, zone)
}

// BuildEvent builds a one-hour timed event when at is set, otherwise a
// single all-day event whose end is the following day.
func BuildEvent(calendarID, title string, date event.Date, at *event.Clock, zone timezone.Zone) (event.Event, error) {
	if at == nil {
		return event.NewAllDay("", calendarID, title, date), nil
	}
	start := at.On(date, zone.Location)
	return event.New("", calendarID, title,
		event.NewTimed(start, zone.Name),
		event.NewTimed(start.Add(DefaultDuration), zone.Name))
}
