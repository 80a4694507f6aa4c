// ABOUTME: Wires selection, aggregation, candidates and scheduling into one session
// ABOUTME: Token acquisition and selection changes drive aggregator refreshes

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/harper/deadline-mcp/pkg/aggregate"
	"github.com/harper/deadline-mcp/pkg/apperr"
	"github.com/harper/deadline-mcp/pkg/assignment"
	"github.com/harper/deadline-mcp/pkg/event"
	"github.com/harper/deadline-mcp/pkg/extract"
	"github.com/harper/deadline-mcp/pkg/metrics"
	"github.com/harper/deadline-mcp/pkg/schedule"
	"github.com/harper/deadline-mcp/pkg/selection"
	"github.com/harper/deadline-mcp/pkg/timezone"
	"go.uber.org/zap"
)

// Extractor submits raw text to the extraction service.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]extract.Assignment, error)
}

// Options configures a Dashboard.
type Options struct {
	Extractor Extractor
	// DefaultTimezone replaces the system zone when the account has none.
	DefaultTimezone string
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
	Clock           func() time.Time
}

// Dashboard is one user's view over their calendars.
type Dashboard struct {
	session   *session
	resolver  *timezone.Resolver
	extractor Extractor
	logger    *zap.Logger
	metrics   *metrics.Metrics

	mu        sync.Mutex
	calendars []event.Calendar

	Selection  *selection.Store
	Candidates *assignment.Store
	Aggregator *aggregate.Aggregator
	Engine     *schedule.Engine
}

// New builds a signed-out dashboard.
func New(opts Options) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dashboard{
		session:    &session{},
		extractor:  opts.Extractor,
		logger:     logger,
		metrics:    opts.Metrics,
		Candidates: assignment.NewStore(),
	}
	d.resolver = timezone.NewResolver(d.session, opts.DefaultTimezone, logger.Named("timezone"))

	aggOpts := []aggregate.Option{aggregate.WithMetrics(opts.Metrics)}
	if opts.Clock != nil {
		aggOpts = append(aggOpts, aggregate.WithClock(opts.Clock))
	}
	d.Aggregator = aggregate.New(d.session, d.resolver, logger.Named("aggregate"), aggOpts...)

	d.Selection = selection.NewStore(d.Aggregator)
	d.Selection.OnChange(func(ctx context.Context, ids []string) error {
		_, err := d.refresh(ctx, ids)
		return err
	})

	d.Engine = schedule.New(schedule.Config{
		Remote:     d.session,
		Resolver:   d.resolver,
		Candidates: d.Candidates,
		Calendars:  d,
		Refresh: func(ctx context.Context) error {
			_, err := d.Refresh(ctx)
			return err
		},
		Logger:  logger.Named("schedule"),
		Metrics: opts.Metrics,
	})
	return d
}

// Connect installs a signed-in remote, loads its calendars and refreshes.
// If the calendars cannot be loaded the dashboard stays signed out.
func (d *Dashboard) Connect(ctx context.Context, r Remote) (aggregate.Snapshot, error) {
	d.session.set(r)
	if _, err := d.ReloadCalendars(ctx); err != nil {
		d.session.set(nil)
		return aggregate.Snapshot{}, err
	}
	return d.Refresh(ctx)
}

// Disconnect drops the session, the loaded calendars, the selection and the snapshot.
func (d *Dashboard) Disconnect() {
	d.session.set(nil)
	d.mu.Lock()
	d.calendars = nil
	d.mu.Unlock()
	d.Selection.Clear()
	d.Aggregator.Reset()
}

// Connected reports whether a remote session is installed.
func (d *Dashboard) Connected() bool {
	return d.session.connected()
}

// ReloadCalendars re-reads the account's calendar list.
func (d *Dashboard) ReloadCalendars(ctx context.Context) ([]event.Calendar, error) {
	cals, err := d.session.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.calendars = slices.Clone(cals)
	d.mu.Unlock()
	d.logger.Debug("calendars loaded", zap.Int("count", len(cals)))
	return cals, nil
}

// Calendars returns the calendars loaded at sign-in.
func (d *Dashboard) Calendars() ([]event.Calendar, error) {
	if !d.Connected() {
		return nil, apperr.New(apperr.AuthMissing, "list calendars", "not signed in")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.calendars), nil
}

// HasCalendar reports whether id is a currently loaded calendar.
func (d *Dashboard) HasCalendar(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.ContainsFunc(d.calendars, func(c event.Calendar) bool { return c.ID == id })
}

// FirstCalendar returns the first loaded calendar.
func (d *Dashboard) FirstCalendar() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.calendars) == 0 {
		return "", false
	}
	return d.calendars[0].ID, true
}

// Refresh re-aggregates the current selection. A cycle superseded by a newer
// one yields the newest committed snapshot.
func (d *Dashboard) Refresh(ctx context.Context) (aggregate.Snapshot, error) {
	return d.refresh(ctx, d.Selection.IDs())
}

func (d *Dashboard) refresh(ctx context.Context, ids []string) (aggregate.Snapshot, error) {
	if !d.Connected() {
		return aggregate.Snapshot{}, apperr.New(apperr.AuthMissing, "refresh", "not signed in")
	}
	snap, err := d.Aggregator.Refresh(ctx, ids)
	if errors.Is(err, aggregate.ErrStale) {
		return d.Aggregator.Snapshot(), nil
	}
	return snap, err
}

// Toggle flips a calendar in the view and returns the refreshed snapshot.
func (d *Dashboard) Toggle(ctx context.Context, calendarID string) (bool, aggregate.Snapshot, error) {
	selected, err := d.Selection.Toggle(ctx, calendarID)
	if err != nil {
		return selected, aggregate.Snapshot{}, err
	}
	return selected, d.Aggregator.Snapshot(), nil
}

// RemoveFromView drops a calendar from the view and evicts its events.
func (d *Dashboard) RemoveFromView(ctx context.Context, calendarID string) (aggregate.Snapshot, error) {
	if _, err := d.Selection.Remove(ctx, calendarID); err != nil {
		return aggregate.Snapshot{}, err
	}
	return d.Aggregator.Snapshot(), nil
}

// AddEvent writes a manually entered event.
func (d *Dashboard) AddEvent(ctx context.Context, m schedule.ManualEvent) (event.Event, error) {
	return d.Engine.AddManual(ctx, m)
}

// DeleteEvent deletes remotely, then evicts the event from the snapshot.
func (d *Dashboard) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if calendarID == "" || eventID == "" {
		return apperr.Validation("delete event", "calendar and event IDs are required")
	}
	if err := d.session.DeleteEvent(ctx, calendarID, eventID); err != nil {
		return err
	}
	d.Aggregator.RemoveEvent(calendarID, eventID)
	return nil
}

// ExtractFrom sends text to the extraction service and replaces the candidate
// list. Blank text is rejected without a call. Items whose due date or time
// does not parse are dropped.
func (d *Dashboard) ExtractFrom(ctx context.Context, text string) ([]assignment.Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("extract", "text is empty")
	}
	if d.extractor == nil {
		return nil, apperr.New(apperr.ExtractionServiceFailure, "extract", "no extraction service configured")
	}

	items, err := d.extractor.Extract(ctx, text)
	if err != nil {
		d.metrics.Extraction(metrics.ResultFailed)
		return nil, err
	}
	d.metrics.Extraction(metrics.ResultOK)

	drafts := make([]assignment.Draft, 0, len(items))
	for _, item := range items {
		draft, err := toDraft(item)
		if err != nil {
			d.logger.Warn("dropping extracted assignment",
				zap.String("name", item.Name),
				zap.Error(err))
			continue
		}
		drafts = append(drafts, draft)
	}
	return d.Candidates.Replace(drafts), nil
}

func toDraft(a extract.Assignment) (assignment.Draft, error) {
	due, err := event.ParseDate(strings.TrimSpace(a.DueDate))
	if err != nil {
		return assignment.Draft{}, fmt.Errorf("due_date: %w", err)
	}
	d := assignment.Draft{Title: strings.TrimSpace(a.Name), DueDate: due}
	if raw := strings.TrimSpace(a.DueTime); raw != "" {
		at, err := event.ParseClock(raw)
		if err != nil {
			return assignment.Draft{}, fmt.Errorf("due_time: %w", err)
		}
		d.DueTime = &at
	}
	return d, nil
}

// Commit schedules one candidate.
func (d *Dashboard) Commit(ctx context.Context, candidateID string) (event.Event, error) {
	return d.Engine.Commit(ctx, candidateID)
}

// Zone resolves the account timezone for display.
func (d *Dashboard) Zone(ctx context.Context) (timezone.Zone, error) {
	return d.resolver.Resolve(ctx)
}
