// ABOUTME: Tracks which calendars are included in the aggregated view
// ABOUTME: Toggle/remove membership and notify the refresh hook on change

package selection

import (
	"context"
	"slices"
	"sync"
)

// Evictor drops cached events for a calendar.
type Evictor interface {
	Evict(calendarID string)
}

// ChangeFunc runs after a membership change with the new selection.
type ChangeFunc func(ctx context.Context, ids []string) error

// Store is the set of selected calendar IDs. Membership is independent of
// whether the calendar still exists remotely.
type Store struct {
	mu       sync.Mutex
	ids      []string
	evictor  Evictor
	onChange ChangeFunc
}

// NewStore creates an empty selection. evictor may be nil.
func NewStore(evictor Evictor) *Store {
	return &Store{evictor: evictor}
}

// OnChange registers fn to run after every membership change, outside the lock.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Toggle flips membership of calendarID and reports whether it is now
// selected. The error is the change hook's.
func (s *Store) Toggle(ctx context.Context, calendarID string) (bool, error) {
	s.mu.Lock()
	selected := false
	if i := slices.Index(s.ids, calendarID); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	} else {
		s.ids = append(s.ids, calendarID)
		selected = true
	}
	ids, fn := s.snapshotLocked()
	s.mu.Unlock()

	if fn != nil {
		return selected, fn(ctx, ids)
	}
	return selected, nil
}

// Remove drops calendarID from the selection and evicts its cached events.
// It reports whether the calendar was selected.
func (s *Store) Remove(ctx context.Context, calendarID string) (bool, error) {
	s.mu.Lock()
	i := slices.Index(s.ids, calendarID)
	if i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
	ids, fn := s.snapshotLocked()
	s.mu.Unlock()

	if s.evictor != nil {
		s.evictor.Evict(calendarID)
	}
	if i < 0 {
		return false, nil
	}
	if fn != nil {
		return true, fn(ctx, ids)
	}
	return true, nil
}

// IDs returns the selected calendar IDs in selection order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

// Contains reports whether calendarID is selected.
func (s *Store) Contains(calendarID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.ids, calendarID)
}

// Clear empties the selection without firing the change hook.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
}

func (s *Store) snapshotLocked() ([]string, ChangeFunc) {
	return slices.Clone(s.ids), s.onChange
}
