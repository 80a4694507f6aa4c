// ABOUTME: Fetches events for the selected calendars and assembles one snapshot
// ABOUTME: Fan-out per calendar with failure isolation, generation-guarded commit

package aggregate

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harper/deadline-mcp/pkg/event"
	"github.com/harper/deadline-mcp/pkg/metrics"
	"github.com/harper/deadline-mcp/pkg/normalize"
	"github.com/harper/deadline-mcp/pkg/timezone"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/calendar/v3"
)

// ErrStale is returned when a newer refresh was started before this one resolved.
var ErrStale = errors.New("refresh superseded by a newer cycle")

// EventLister is the slice of the remote calendar client the aggregator needs.
type EventLister interface {
	ListEvents(ctx context.Context, calendarID string, since time.Time) ([]*calendar.Event, error)
}

// ZoneResolver resolves the account timezone.
type ZoneResolver interface {
	Resolve(ctx context.Context) (timezone.Zone, error)
}

// Snapshot is one committed aggregation cycle.
type Snapshot struct {
	Generation uint64
	Zone       timezone.Zone
	Since      time.Time
	// Calendars lists the refreshed calendar IDs in selection order.
	Calendars []string
	Events    map[string][]event.Event
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Calendars = slices.Clone(s.Calendars)
	out.Events = make(map[string][]event.Event, len(s.Events))
	for id, evs := range s.Events {
		out.Events[id] = slices.Clone(evs)
	}
	return out
}

// Find returns the cached event with the given ID on calendarID.
func (s Snapshot) Find(calendarID, eventID string) (event.Event, bool) {
	for _, e := range s.Events[calendarID] {
		if e.ID == eventID {
			return e, true
		}
	}
	return event.Event{}, false
}

// Aggregator owns the current snapshot.
type Aggregator struct {
	lister   EventLister
	resolver ZoneResolver
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	latest atomic.Uint64

	mu   sync.Mutex
	snap Snapshot
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the wall clock used for the fetch window.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithMetrics records cycle outcomes and fetch failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// New creates an aggregator with an empty snapshot.
func New(lister EventLister, resolver ZoneResolver, logger *zap.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{
		lister:   lister,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
		snap:     Snapshot{Events: map[string][]event.Event{}},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Refresh runs one aggregation cycle over calendarIDs. The timezone is
// resolved once and the window starts at the beginning of today in it. A
// calendar whose fetch fails maps to an empty list. The snapshot is replaced
// wholesale, and only if no newer cycle was started meanwhile; otherwise the
// computed snapshot is returned together with ErrStale.
func (a *Aggregator) Refresh(ctx context.Context, calendarIDs []string) (Snapshot, error) {
	gen := a.latest.Add(1)

	zone, err := a.resolver.Resolve(ctx)
	if err != nil {
		a.metrics.Refresh(metrics.ResultFailed)
		return Snapshot{}, err
	}
	since := zone.StartOfDay(a.now())

	ids := uniq(calendarIDs)
	lists := make([][]event.Event, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			lists[i] = a.fetch(ctx, id, since, zone)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		a.metrics.Refresh(metrics.ResultFailed)
		return Snapshot{}, err
	}

	next := Snapshot{
		Generation: gen,
		Zone:       zone,
		Since:      since,
		Calendars:  ids,
		Events:     make(map[string][]event.Event, len(ids)),
	}
	for i, id := range ids {
		next.Events[id] = lists[i]
	}

	a.mu.Lock()
	if gen != a.latest.Load() {
		a.mu.Unlock()
		a.metrics.Refresh(metrics.ResultStale)
		a.logger.Debug("discarding stale refresh",
			zap.Uint64("generation", gen),
			zap.Uint64("latest", a.latest.Load()))
		return next, ErrStale
	}
	a.snap = next
	a.mu.Unlock()

	a.metrics.Refresh(metrics.ResultCommitted)
	a.logger.Debug("refresh committed",
		zap.Uint64("generation", gen),
		zap.Int("calendars", len(ids)),
		zap.String("zone", zone.String()))
	return next.clone(), nil
}

// fetch lists one calendar. Errors are logged and degrade to an empty list.
func (a *Aggregator) fetch(ctx context.Context, calendarID string, since time.Time, zone timezone.Zone) []event.Event {
	items, err := a.lister.ListEvents(ctx, calendarID, since)
	if err != nil {
		a.metrics.FetchFailed(calendarID)
		a.logger.Warn("calendar fetch failed, showing no events",
			zap.String("calendar_id", calendarID),
			zap.Error(err))
		return []event.Event{}
	}

	out := make([]event.Event, 0, len(items))
	for _, item := range items {
		e, err := normalize.ToDomain(calendarID, item, zone)
		if err != nil {
			a.logger.Debug("skipping malformed event",
				zap.String("calendar_id", calendarID),
				zap.Error(err))
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartInstant(zone.Location).Before(out[j].StartInstant(zone.Location))
	})
	return out
}

// Snapshot returns a copy of the current snapshot.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap.clone()
}

// Evict drops the cached events of one calendar.
func (a *Aggregator) Evict(calendarID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.snap.Events, calendarID)
	a.snap.Calendars = slices.DeleteFunc(a.snap.Calendars, func(id string) bool { return id == calendarID })
}

// RemoveEvent evicts a deleted event from the snapshot. It reports whether it was cached.
func (a *Aggregator) RemoveEvent(calendarID, eventID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	evs, ok := a.snap.Events[calendarID]
	if !ok {
		return false
	}
	i := slices.IndexFunc(evs, func(e event.Event) bool { return e.ID == eventID })
	if i < 0 {
		return false
	}
	a.snap.Events[calendarID] = slices.Delete(slices.Clone(evs), i, i+1)
	return true
}

// Reset discards the snapshot and invalidates any cycle still in flight.
func (a *Aggregator) Reset() {
	a.latest.Add(1)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap = Snapshot{Events: map[string][]event.Event{}}
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
