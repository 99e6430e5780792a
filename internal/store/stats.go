package store

import (
	"time"

	"smartcal/internal/dates"
	"smartcal/internal/model"
)

// Stats summarizes a set of events for sidebar counters.
type Stats struct {
	Total      int            `json:"total"`
	Regular    int            `json:"regular"`
	Leave      int            `json:"leave"`
	ThisWeek   int            `json:"this_week"`
	ByCategory map[string]int `json:"by_category"`
}

// Summarize counts evs. ThisWeek counts events starting inside the
// Sunday-anchored week containing now. ByCategory always carries an "all"
// entry and one entry per known category.
func Summarize(evs []model.Event, categories []model.Category, now time.Time) Stats {
	st := Stats{
		Total:      len(evs),
		ByCategory: make(map[string]int, len(categories)+1),
	}
	st.ByCategory[model.CategoryAll] = len(evs)
	for _, c := range categories {
		st.ByCategory[c.ID] = 0
	}

	weekStart := dates.StartOfWeek(now)
	weekEnd := dates.EndOfWeek(now)
	for _, ev := range evs {
		if ev.IsLeave() {
			st.Leave++
		} else {
			st.Regular++
		}
		st.ByCategory[ev.Category]++
		if !ev.Start.Before(weekStart) && !ev.Start.After(weekEnd) {
			st.ThisWeek++
		}
	}
	return st
}

// Stats summarizes the events passing the current filters.
func (s *Store) Stats(now time.Time) Stats {
	return Summarize(s.Filtered(), s.ListCategories(), now)
}
