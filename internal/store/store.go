package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartcal/internal/dates"
	appLog "smartcal/internal/log"
	"smartcal/internal/model"
)

var (
	// ErrNotFound is returned when an operation references an unknown event id.
	ErrNotFound = errors.New("event not found")
	// ErrInvalidRange is returned when a regular event would end before it starts.
	ErrInvalidRange = errors.New("event end precedes start")
)

const (
	DefaultCategory   = "work"
	DefaultLeaveColor = "red"
	fallbackColor     = "blue"
)

// Observer receives a notification after every mutation attempt. The metrics
// package implements it; a nil Observer is allowed.
type Observer interface {
	Mutation(op string, err error)
	Size(regular, leave int)
}

// Options configures a Store. Categories is copied and treated as read-only.
type Options struct {
	Categories      []model.Category
	DefaultCategory string
	LeaveColor      string

	// Location is the zone calendar days are computed in. Stored timestamps
	// are converted to it; nil keeps each timestamp's own zone.
	Location *time.Location

	// NewID overrides id generation, e.g. for deterministic tests. The
	// default produces UUIDv7 strings.
	NewID func() string

	Observer Observer
}

// Store owns the event collection and the category/search filter state. It is
// the single writer of events; everything it hands out is a copy.
type Store struct {
	mu sync.RWMutex

	// events is kept in insertion order; sorting happens on read.
	events []model.Event

	categories      []model.Category
	colors          map[string]string
	defaultCategory string
	leaveColor      string
	loc             *time.Location

	selectedCategory string
	searchQuery      string

	newID    func() string
	observer Observer
}

// New builds an empty Store.
func New(opts Options) *Store {
	s := &Store{
		categories:       append([]model.Category(nil), opts.Categories...),
		colors:           make(map[string]string, len(opts.Categories)),
		defaultCategory:  opts.DefaultCategory,
		leaveColor:       opts.LeaveColor,
		loc:              opts.Location,
		selectedCategory: model.CategoryAll,
		newID:            opts.NewID,
		observer:         opts.Observer,
	}
	for _, c := range s.categories {
		s.colors[c.ID] = c.Color
	}
	if s.defaultCategory == "" {
		s.defaultCategory = DefaultCategory
		if len(s.categories) > 0 {
			if _, ok := s.colors[DefaultCategory]; !ok {
				s.defaultCategory = s.categories[0].ID
			}
		}
	}
	if s.leaveColor == "" {
		s.leaveColor = DefaultLeaveColor
	}
	if s.newID == nil {
		s.newID = newUUID
	}
	return s
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ListCategories returns the configured categories.
func (s *Store) ListCategories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Category(nil), s.categories...)
}

// ColorFor resolves a category id through the category color table.
func (s *Store) ColorFor(categoryID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.colorFor(categoryID)
}

func (s *Store) colorFor(categoryID string) string {
	if c, ok := s.colors[categoryID]; ok {
		return c
	}
	if c, ok := s.colors[s.defaultCategory]; ok {
		return c
	}
	return fallbackColor
}

// LeaveColor is the color forced onto leave events.
func (s *Store) LeaveColor() string {
	return s.leaveColor
}

// DefaultCategoryID is the category assigned when a draft names none.
func (s *Store) DefaultCategoryID() string {
	return s.defaultCategory
}

func (s *Store) local(t time.Time) time.Time {
	if s.loc == nil {
		return t
	}
	return t.In(s.loc)
}

func (s *Store) resolveCategory(id string) string {
	if _, ok := s.colors[id]; ok {
		return id
	}
	return s.defaultCategory
}

// CreateEvent validates and appends a new event built from d.
func (s *Store) CreateEvent(d model.Draft) (model.Event, error) {
	kind := d.Kind
	if !kind.Valid() {
		kind = model.KindRegular
	}

	s.mu.Lock()
	ev := model.Event{
		Title:       d.Title,
		Start:       s.local(d.Start),
		End:         s.local(d.End),
		Category:    s.resolveCategory(d.Category),
		Description: d.Description,
		Kind:        kind,
	}
	s.normalize(&ev, true)
	if err := checkRange(ev); err != nil {
		s.mu.Unlock()
		s.notify("create", err)
		appLog.Debug("create rejected", "title", d.Title, "error", err)
		return model.Event{}, err
	}
	ev.ID = s.newID()
	s.events = append(s.events, ev)
	s.mu.Unlock()

	s.notify("create", nil)
	appLog.Debug("event created", "id", ev.ID, "kind", ev.Kind, "category", ev.Category)
	return ev, nil
}

// UpdateEvent merges p into the event with the given id.
func (s *Store) UpdateEvent(id string, p model.Patch) (model.Event, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		s.notify("update", ErrNotFound)
		return model.Event{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}

	// Work on a copy so a rejected patch leaves the stored event untouched.
	ev := s.events[idx]
	wasLeave := ev.IsLeave()
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Start != nil {
		ev.Start = s.local(*p.Start)
	}
	if p.End != nil {
		ev.End = s.local(*p.End)
	}
	if p.Category != nil {
		ev.Category = s.resolveCategory(*p.Category)
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Kind != nil && p.Kind.Valid() {
		ev.Kind = *p.Kind
	}

	s.normalize(&ev, p.TouchesRange() || (ev.IsLeave() && !wasLeave))
	if err := checkRange(ev); err != nil {
		s.mu.Unlock()
		s.notify("update", err)
		appLog.Debug("update rejected", "id", id, "error", err)
		return model.Event{}, fmt.Errorf("update %s: %w", id, err)
	}
	s.events[idx] = ev
	s.mu.Unlock()

	s.notify("update", nil)
	appLog.Debug("event updated", "id", id, "kind", ev.Kind, "category", ev.Category)
	return ev, nil
}

// DeleteEvent removes the event with the given id. Deleting an unknown id
// reports ErrNotFound and changes nothing; callers may ignore it.
func (s *Store) DeleteEvent(id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		s.notify("delete", ErrNotFound)
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	s.events = append(s.events[:idx], s.events[idx+1:]...)
	s.mu.Unlock()

	s.notify("delete", nil)
	appLog.Debug("event deleted", "id", id)
	return nil
}

// RescheduleEvent moves the event so that it starts at anchor, shifting End
// by the same delta. Leave normalization is not re-run.
func (s *Store) RescheduleEvent(id string, anchor time.Time) (model.Event, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		s.notify("reschedule", ErrNotFound)
		return model.Event{}, fmt.Errorf("reschedule %s: %w", id, ErrNotFound)
	}
	ev := s.events[idx]
	delta := anchor.Sub(ev.Start)
	ev.Start = s.local(ev.Start.Add(delta))
	ev.End = s.local(ev.End.Add(delta))
	s.events[idx] = ev
	s.mu.Unlock()

	s.notify("reschedule", nil)
	appLog.Debug("event rescheduled", "id", id, "delta", delta)
	return ev, nil
}

// Get returns a copy of the event with the given id.
func (s *Store) Get(id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Event{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return s.events[idx], nil
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *Store) indexOf(id string) int {
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

// normalize applies the kind rules: leave events snap to whole days and take
// the leave color, regular events take their category color. Range snapping
// only happens when rangeChanged is set.
func (s *Store) normalize(ev *model.Event, rangeChanged bool) {
	if !ev.IsLeave() {
		ev.Color = s.colorFor(ev.Category)
		return
	}
	ev.Color = s.leaveColor
	if !rangeChanged {
		return
	}
	ev.Start = dates.StartOfDay(ev.Start)
	// A leave whose end day precedes its start day collapses to a single day.
	if dates.StartOfDay(ev.End).Before(ev.Start) {
		ev.End = dates.EndOfDay(ev.Start)
		return
	}
	ev.End = dates.EndOfDay(ev.End)
}

func checkRange(ev model.Event) error {
	if !ev.IsLeave() && ev.End.Before(ev.Start) {
		return ErrInvalidRange
	}
	return nil
}

func (s *Store) notify(op string, err error) {
	if s.observer == nil {
		return
	}
	s.observer.Mutation(op, err)
	s.mu.RLock()
	regular, leave := s.countKinds()
	s.mu.RUnlock()
	s.observer.Size(regular, leave)
}

func (s *Store) countKinds() (regular, leave int) {
	for i := range s.events {
		if s.events[i].IsLeave() {
			leave++
		} else {
			regular++
		}
	}
	return regular, leave
}
