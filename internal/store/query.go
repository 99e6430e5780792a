package store

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"smartcal/internal/dates"
	"smartcal/internal/model"
)

// leaveToken lets a search for "leave" surface every leave event.
const leaveToken = "leave"

// Query is the predicate set accepted by ListEvents. Zero values disable a
// predicate; all enabled predicates must hold.
type Query struct {
	// Category restricts to one category id; "" and "all" match everything.
	Category string
	// Search is a case-insensitive substring matched against title or
	// description.
	Search string
	// Kind restricts to one event kind when set.
	Kind model.Kind

	// On scopes the query to a calendar day with EventsForDate semantics.
	On *time.Time
	// Hour, together with On, scopes the query to one hour slot with
	// EventsForHour semantics.
	Hour *int

	// From/To scope the query to the window [From, To). Either bound may be
	// zero to leave that side open.
	From time.Time
	To   time.Time
}

// predicate reports whether a single event satisfies a query term.
type predicate func(model.Event) bool

func (q Query) predicates() []predicate {
	var ps []predicate
	if q.Category != "" && q.Category != model.CategoryAll {
		ps = append(ps, categoryIs(q.Category))
	}
	if q.Search != "" {
		ps = append(ps, matchesSearch(q.Search))
	}
	if q.Kind != "" {
		ps = append(ps, kindIs(q.Kind))
	}
	if q.On != nil {
		if q.Hour != nil {
			ps = append(ps, inHour(*q.On, *q.Hour))
		} else {
			ps = append(ps, onDate(*q.On))
		}
	}
	if !q.From.IsZero() || !q.To.IsZero() {
		ps = append(ps, inWindow(q.From, q.To))
	}
	return ps
}

func categoryIs(id string) predicate {
	return func(ev model.Event) bool {
		return ev.Category == id
	}
}

func kindIs(k model.Kind) predicate {
	return func(ev model.Event) bool {
		return ev.Kind == k
	}
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// matchesSearch matches title or description case-insensitively. A leave
// event also matches whenever the query itself contains "leave".
func matchesSearch(query string) predicate {
	needle := fold(query)
	leaveQuery := strings.Contains(needle, leaveToken)
	return func(ev model.Event) bool {
		if strings.Contains(fold(ev.Title), needle) {
			return true
		}
		if ev.Description != "" && strings.Contains(fold(ev.Description), needle) {
			return true
		}
		return ev.IsLeave() && leaveQuery
	}
}

// onDate anchors regular events to their start day; leave events match every
// day they cover.
func onDate(date time.Time) predicate {
	return func(ev model.Event) bool {
		if ev.IsLeave() {
			return dates.DayWithin(date, ev.Start, ev.End)
		}
		return dates.IsSameCalendarDay(ev.Start, date)
	}
}

// inHour matches regular events starting on date within the given hour.
// Leave events never match.
func inHour(date time.Time, hour int) predicate {
	return func(ev model.Event) bool {
		if ev.IsLeave() {
			return false
		}
		return dates.IsSameCalendarDay(ev.Start, date) && ev.Start.Hour() == hour
	}
}

// inWindow matches regular events starting in [from, to) and leave events
// whose covered span overlaps it.
func inWindow(from, to time.Time) predicate {
	return func(ev model.Event) bool {
		if ev.IsLeave() {
			if !to.IsZero() && !ev.Start.Before(to) {
				return false
			}
			return from.IsZero() || !ev.End.Before(from)
		}
		if !from.IsZero() && ev.Start.Before(from) {
			return false
		}
		return to.IsZero() || ev.Start.Before(to)
	}
}

// ListEvents returns every event satisfying q, sorted ascending by start with
// insertion order breaking ties.
func (s *Store) ListEvents(q Query) []model.Event {
	ps := q.predicates()

	s.mu.RLock()
	out := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		if matchAll(ev, ps) {
			out = append(out, ev)
		}
	}
	s.mu.RUnlock()

	sortByStart(out)
	return out
}

func matchAll(ev model.Event, ps []predicate) bool {
	for _, p := range ps {
		if !p(ev) {
			return false
		}
	}
	return true
}

func sortByStart(evs []model.Event) {
	slices.SortStableFunc(evs, func(a, b model.Event) int {
		return a.Start.Compare(b.Start)
	})
}

// List returns all events sorted by start.
func (s *Store) List() []model.Event {
	return s.ListEvents(Query{})
}

// EventsForDate returns the events shown on date's calendar day.
func (s *Store) EventsForDate(date time.Time) []model.Event {
	return s.ListEvents(Query{On: &date})
}

// EventsForHour returns the regular events starting on date within hour.
func (s *Store) EventsForHour(date time.Time, hour int) []model.Event {
	return s.ListEvents(Query{On: &date, Hour: &hour})
}

// LeaveEvents returns all leave events.
func (s *Store) LeaveEvents() []model.Event {
	return s.ListEvents(Query{Kind: model.KindLeave})
}

// RegularEvents returns all non-leave events.
func (s *Store) RegularEvents() []model.Event {
	return s.ListEvents(Query{Kind: model.KindRegular})
}

// HasEventsOn reports whether any event starts on date's calendar day.
func (s *Store) HasEventsOn(date time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.events {
		if dates.IsSameCalendarDay(s.events[i].Start, date) {
			return true
		}
	}
	return false
}

// SetSelectedCategory sets the category filter; "" resets it to "all".
func (s *Store) SetSelectedCategory(id string) {
	if id == "" {
		id = model.CategoryAll
	}
	s.mu.Lock()
	s.selectedCategory = id
	s.mu.Unlock()
}

// SelectedCategory returns the current category filter.
func (s *Store) SelectedCategory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedCategory
}

// SetSearchQuery sets the free-text filter.
func (s *Store) SetSearchQuery(q string) {
	s.mu.Lock()
	s.searchQuery = q
	s.mu.Unlock()
}

// SearchQuery returns the current free-text filter.
func (s *Store) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchQuery
}

// CurrentQuery builds a Query from the selected category and search text.
func (s *Store) CurrentQuery() Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Query{Category: s.selectedCategory, Search: s.searchQuery}
}

// Filtered returns the events passing the current category and search filters.
func (s *Store) Filtered() []model.Event {
	return s.ListEvents(s.CurrentQuery())
}
