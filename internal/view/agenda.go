package view

import (
	"strings"
	"time"

	"smartcal/internal/dates"
	"smartcal/internal/model"
)

// AgendaRange selects the agenda window.
type AgendaRange string

const (
	RangeWeek  AgendaRange = "week"
	RangeMonth AgendaRange = "month"
	RangeAll   AgendaRange = "all"
)

// ParseAgendaRange maps a string onto an AgendaRange, defaulting to week.
func ParseAgendaRange(s string) AgendaRange {
	switch AgendaRange(strings.ToLower(strings.TrimSpace(s))) {
	case RangeMonth:
		return RangeMonth
	case RangeAll:
		return RangeAll
	default:
		return RangeWeek
	}
}

const (
	emptySearchMessage = "Try adjusting your search terms"
	emptyRangeMessage  = "No events scheduled for this period"
)

// AgendaItem is one listed event.
type AgendaItem struct {
	Event    model.Event `json:"event"`
	Time     string      `json:"time"`
	Duration string      `json:"duration"`
}

// AgendaGroup holds the items starting on one calendar day.
type AgendaGroup struct {
	Date  time.Time    `json:"date"`
	Label string       `json:"label"`
	Items []AgendaItem `json:"items"`
}

// Agenda is the agenda layout projection.
type Agenda struct {
	Range   AgendaRange   `json:"range"`
	Groups  []AgendaGroup `json:"groups"`
	Regular int           `json:"regular"`
	Leave   int           `json:"leave"`
	Empty   string        `json:"empty,omitempty"`
}

// BuildAgenda lists the filtered events inside r, relative to now, grouped by
// start day in start order.
func BuildAgenda(src EventSource, r AgendaRange, now time.Time) Agenda {
	q := src.CurrentQuery()
	switch r {
	case RangeWeek:
		q.From = dates.StartOfWeek(now)
		q.To = dates.StartOfWeek(now).AddDate(0, 0, dates.DaysPerWeek)
	case RangeMonth:
		q.From = dates.StartOfMonth(now)
		q.To = dates.AddMonths(now, 1)
	}
	evs := src.ListEvents(q)

	a := Agenda{Range: r}
	for _, ev := range evs {
		if ev.IsLeave() {
			a.Leave++
		} else {
			a.Regular++
		}
		item := AgendaItem{
			Event:    ev,
			Time:     TimeRange(ev),
			Duration: dates.FormatDuration(ev.Start, ev.End),
		}
		if n := len(a.Groups); n > 0 && dates.IsSameCalendarDay(a.Groups[n-1].Date, ev.Start) {
			a.Groups[n-1].Items = append(a.Groups[n-1].Items, item)
			continue
		}
		a.Groups = append(a.Groups, AgendaGroup{
			Date:  dates.StartOfDay(ev.Start),
			Label: DayLabel(ev.Start, now),
			Items: []AgendaItem{item},
		})
	}

	if len(a.Groups) == 0 {
		a.Empty = emptyRangeMessage
		if q.Search != "" {
			a.Empty = emptySearchMessage
		}
	}
	return a
}

// DayLabel renders "Today", "Tomorrow" or e.g. "Wednesday, December 25".
func DayLabel(day, now time.Time) string {
	switch {
	case dates.IsSameCalendarDay(day, now):
		return "Today"
	case dates.IsSameCalendarDay(day, now.AddDate(0, 0, 1)):
		return "Tomorrow"
	default:
		return day.Format("Monday, January 2")
	}
}

// TimeRange renders "10:00 AM - 11:00 AM".
func TimeRange(ev model.Event) string {
	return ev.Start.Format("3:04 PM") + " - " + ev.End.Format("3:04 PM")
}
