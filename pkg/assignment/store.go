// ABOUTME: Holds extracted assignment candidates and their commit lifecycle
// ABOUTME: Domain fields and transient view state are stored separately

package assignment

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/harper/deadline-mcp/pkg/apperr"
	"github.com/harper/deadline-mcp/pkg/event"
)

// State is a candidate's lifecycle position. Committed candidates are removed.
type State int

const (
	Extracted State = iota
	Editing
	Committing
)

func (s State) String() string {
	switch s {
	case Extracted:
		return "extracted"
	case Editing:
		return "editing"
	case Committing:
		return "committing"
	}
	return "unknown"
}

// Candidate is the persistent part of an extracted assignment.
type Candidate struct {
	ID               string
	Title            string
	DueDate          event.Date
	DueTime          *event.Clock
	ScareMode        bool
	ChosenCalendarID string
}

// ViewState is transient and never survives a commit.
type ViewState struct {
	Editing bool
}

// Entry is a read-only copy of one candidate as held by the store.
type Entry struct {
	Candidate Candidate
	View      ViewState
	State     State
}

// Draft is one extraction result before it becomes a candidate.
type Draft struct {
	Title   string
	DueDate event.Date
	DueTime *event.Clock
}

// Patch is a partial edit. Nil fields are left unchanged.
type Patch struct {
	Title        *string
	DueDate      *event.Date
	DueTime      *event.Clock
	ClearDueTime bool
	ScareMode    *bool
	CalendarID   *string
}

type entry struct {
	cand       Candidate
	view       ViewState
	committing bool
}

func cloneClock(c *event.Clock) *event.Clock {
	if c == nil {
		return nil
	}
	t := *c
	return &t
}

func (e *entry) snapshot() Entry {
	c := e.cand
	c.DueTime = cloneClock(c.DueTime)
	state := Extracted
	switch {
	case e.committing:
		state = Committing
	case e.view.Editing:
		state = Editing
	}
	return Entry{Candidate: c, View: e.view, State: state}
}

// Store holds candidates in extraction order.
type Store struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*entry
	newID   func() string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		entries: map[string]*entry{},
		newID:   uuid.NewString,
	}
}

// Replace discards all candidates and loads drafts as fresh ones: scare mode
// off, not editing, no calendar chosen.
func (s *Store) Replace(drafts []Draft) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = make([]string, 0, len(drafts))
	s.entries = make(map[string]*entry, len(drafts))
	out := make([]Entry, 0, len(drafts))
	for _, d := range drafts {
		id := s.newID()
		e := &entry{cand: Candidate{
			ID:      id,
			Title:   d.Title,
			DueDate: d.DueDate,
			DueTime: cloneClock(d.DueTime),
		}}
		s.order = append(s.order, id)
		s.entries[id] = e
		out = append(out, e.snapshot())
	}
	return out
}

// List returns all candidates in extraction order.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].snapshot())
	}
	return out
}

// Get returns one candidate.
func (s *Store) Get(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup("get", id)
	if err != nil {
		return Entry{}, err
	}
	return e.snapshot(), nil
}

// ToggleEditing flips the editing view flag and returns the new value.
func (s *Store) ToggleEditing(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.mutable("toggle editing", id)
	if err != nil {
		return false, err
	}
	e.view.Editing = !e.view.Editing
	return e.view.Editing, nil
}

// Edit applies p to a candidate that is not being committed.
func (s *Store) Edit(id string, p Patch) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.mutable("edit", id)
	if err != nil {
		return Entry{}, err
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return Entry{}, apperr.Validation("edit", "candidate %s needs a due date", id)
	}

	if p.Title != nil {
		e.cand.Title = *p.Title
	}
	if p.DueDate != nil {
		e.cand.DueDate = *p.DueDate
	}
	if p.ClearDueTime {
		e.cand.DueTime = nil
	} else if p.DueTime != nil {
		e.cand.DueTime = cloneClock(p.DueTime)
	}
	if p.ScareMode != nil {
		e.cand.ScareMode = *p.ScareMode
	}
	if p.CalendarID != nil {
		e.cand.ChosenCalendarID = *p.CalendarID
	}
	return e.snapshot(), nil
}

// ToggleScareMode flips scare mode and returns the new value.
func (s *Store) ToggleScareMode(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.mutable("toggle scare mode", id)
	if err != nil {
		return false, err
	}
	e.cand.ScareMode = !e.cand.ScareMode
	return e.cand.ScareMode, nil
}

// Remove deletes a candidate that is not being committed.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.mutable("remove", id); err != nil {
		return err
	}
	s.drop(id)
	return nil
}

// BeginCommit moves a candidate to Committing and returns its domain fields.
// A missing title, due date or calendar is rejected without a state change.
func (s *Store) BeginCommit(id string) (Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.mutable("commit", id)
	if err != nil {
		return Candidate{}, err
	}
	if err := Validate(e.cand); err != nil {
		return Candidate{}, err
	}
	e.committing = true
	e.view = ViewState{}
	return e.snapshot().Candidate, nil
}

// CompleteCommit removes a committed candidate.
func (s *Store) CompleteCommit(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drop(id)
}

// AbortCommit returns a Committing candidate to Extracted, keeping its data.
func (s *Store) AbortCommit(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.committing = false
	}
}

// Validate checks the fields required to commit c.
func Validate(c Candidate) error {
	if strings.TrimSpace(c.Title) == "" {
		return apperr.Validation("commit", "candidate %s has no title", c.ID)
	}
	if c.DueDate.IsZero() {
		return apperr.Validation("commit", "candidate %s has no due date", c.ID)
	}
	if c.ChosenCalendarID == "" {
		return apperr.Validation("commit", "candidate %s has no calendar", c.ID)
	}
	return nil
}

func (s *Store) lookup(op, id string) (*entry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, apperr.Validation(op, "no candidate %s", id)
	}
	return e, nil
}

func (s *Store) mutable(op, id string) (*entry, error) {
	e, err := s.lookup(op, id)
	if err != nil {
		return nil, err
	}
	if e.committing {
		return nil, apperr.Validation(op, "candidate %s is being committed", id)
	}
	return e, nil
}

func (s *Store) drop(id string) {
	delete(s.entries, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
}
