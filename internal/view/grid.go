package view

import (
	"time"

	"smartcal/internal/dates"
	"smartcal/internal/model"
	"smartcal/internal/store"
)

// maxCellEvents is how many events a month cell lists before "+N more".
const maxCellEvents = 3

// WeekdayLabels is the Sunday-first header row.
var WeekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// EventSource is the read side of the store the projections need.
type EventSource interface {
	ListEvents(q store.Query) []model.Event
	CurrentQuery() store.Query
	HasEventsOn(date time.Time) bool
}

func forDate(src EventSource, date time.Time) []model.Event {
	q := src.CurrentQuery()
	q.On = &date
	return src.ListEvents(q)
}

func forHour(src EventSource, date time.Time, hour int) []model.Event {
	q := src.CurrentQuery()
	q.On = &date
	q.Hour = &hour
	return src.ListEvents(q)
}

func leaveOn(src EventSource, date time.Time) []model.Event {
	q := src.CurrentQuery()
	q.On = &date
	q.Kind = model.KindLeave
	return src.ListEvents(q)
}

// MonthCell is one day of the 6x7 month grid. HasEvents ignores the filter
// state and drives the mini-calendar dot.
type MonthCell struct {
	Date       time.Time     `json:"date"`
	Day        int           `json:"day"`
	InMonth    bool          `json:"in_month"`
	IsToday    bool          `json:"is_today"`
	IsSelected bool          `json:"is_selected"`
	HasEvents  bool          `json:"has_events"`
	Events     []model.Event `json:"events"`
	More       int           `json:"more"`
}

// Month is the month layout projection.
type Month struct {
	Label    string      `json:"label"`
	Weekdays []string    `json:"weekdays"`
	Cells    []MonthCell `json:"cells"`
}

// BuildMonth projects the filtered events onto the 42-cell grid around
// st.CurrentDate.
func BuildMonth(src EventSource, st *State, now time.Time) Month {
	anchor := st.CurrentDate
	m := Month{
		Label:    anchor.Format("January 2006"),
		Weekdays: WeekdayLabels,
		Cells:    make([]MonthCell, 0, dates.MonthGridCells),
	}
	for _, day := range dates.MonthGridDays(anchor) {
		evs := forDate(src, day)
		cell := MonthCell{
			Date:       day,
			Day:        day.Day(),
			InMonth:    day.Month() == anchor.Month() && day.Year() == anchor.Year(),
			IsToday:    dates.IsSameCalendarDay(day, now),
			IsSelected: dates.IsSameCalendarDay(day, st.SelectedDate),
			HasEvents:  src.HasEventsOn(day),
			Events:     evs,
		}
		if len(evs) > maxCellEvents {
			cell.Events = evs[:maxCellEvents]
			cell.More = len(evs) - maxCellEvents
		}
		m.Cells = append(m.Cells, cell)
	}
	return m
}

// Slot is one hour row of a week or day column.
type Slot struct {
	Hour   int           `json:"hour"`
	Label  string        `json:"label"`
	Time   time.Time     `json:"time"`
	Events []model.Event `json:"events"`
}

// DayColumn is a single day of the week/day layouts.
type DayColumn struct {
	Date    time.Time     `json:"date"`
	Weekday string        `json:"weekday"`
	IsToday bool          `json:"is_today"`
	Leave   []model.Event `json:"leave"`
	Slots   []Slot        `json:"slots"`
}

func buildColumn(src EventSource, day time.Time, now time.Time) DayColumn {
	col := DayColumn{
		Date:    dates.StartOfDay(day),
		Weekday: day.Format("Mon"),
		IsToday: dates.IsSameCalendarDay(day, now),
		Leave:   leaveOn(src, day),
		Slots:   make([]Slot, dates.HoursPerDay),
	}
	for h := range col.Slots {
		col.Slots[h] = Slot{
			Hour:   h,
			Label:  dates.HourLabel(h),
			Time:   dates.AtHour(day, h),
			Events: forHour(src, day, h),
		}
	}
	return col
}

// Week is the week layout projection.
type Week struct {
	Label string      `json:"label"`
	Days  []DayColumn `json:"days"`
}

// BuildWeek projects the filtered events onto the Sunday-anchored week
// containing st.CurrentDate.
func BuildWeek(src EventSource, st *State, now time.Time) Week {
	w := Week{Label: dates.WeekRangeLabel(st.CurrentDate)}
	for _, day := range dates.WeekDays(st.CurrentDate) {
		w.Days = append(w.Days, buildColumn(src, day, now))
	}
	return w
}

// Day is the day layout projection.
type Day struct {
	Label  string    `json:"label"`
	Column DayColumn `json:"column"`
}

// BuildDay projects the filtered events onto st.CurrentDate's hours.
func BuildDay(src EventSource, st *State, now time.Time) Day {
	return Day{
		Label:  st.CurrentDate.Format("Monday, January 2, 2006"),
		Column: buildColumn(src, st.CurrentDate, now),
	}
}

// SlotTime is the timestamp a click or drop on an hour slot refers to.
func SlotTime(date time.Time, hour int) time.Time {
	return dates.AtHour(date, hour)
}

// CellDropAnchor is the new start for an event dropped on a month cell: the
// target day at the event's original time of day.
func CellDropAnchor(ev model.Event, day time.Time) time.Time {
	h, m, s := ev.Start.Clock()
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, ev.Start.Nanosecond(), ev.Start.Location())
}
