// Package dates holds the calendar arithmetic shared by the store and the
// grid projections. All functions operate on the location carried by their
// arguments; none of them convert between zones.
package dates

import (
	"fmt"
	"time"
)

// DaysPerWeek and the month grid size used by the month view.
const (
	DaysPerWeek    = 7
	MonthGridWeeks = 6
	MonthGridCells = DaysPerWeek * MonthGridWeeks
	HoursPerDay    = 24
)

// StartOfDay returns t at 00:00:00.000 of its calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns t at 23:59:59.999 of its calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// StartOfWeek returns the Sunday on or before t, hours zeroed.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// EndOfWeek returns the Saturday following StartOfWeek(t) at end of day.
func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(StartOfWeek(t).AddDate(0, 0, DaysPerWeek-1))
}

// StartOfMonth returns the first day of t's month at 00:00.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last day of t's month at 23:59:59.999.
func EndOfMonth(t time.Time) time.Time {
	// Day 0 of the next month is the last day of this one.
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
	return EndOfDay(last)
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	return EndOfMonth(t).Day()
}

// AddMonths moves t by n calendar months, pinned to day 1 so that
// navigating from Jan 31 does not overflow into March.
func AddMonths(t time.Time, n int) time.Time {
	first := StartOfMonth(t)
	return first.AddDate(0, n, 0)
}

// IsSameCalendarDay compares year/month/day components rather than instants.
func IsSameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayWithin reports whether day's calendar day lies in [from, to] by calendar day.
func DayWithin(day, from, to time.Time) bool {
	d := StartOfDay(day)
	lo := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, d.Location())
	hi := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, d.Location())
	return !d.Before(lo) && !d.After(hi)
}

// AtHour returns date's calendar day at hour:00.
func AtHour(date time.Time, hour int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
}

// WeekDays returns the seven days of the Sunday-anchored week containing t.
func WeekDays(t time.Time) []time.Time {
	start := StartOfWeek(t)
	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// MonthGridDays returns the 42 days shown by a month grid: trailing days of
// the previous month, the month itself, then leading days of the next month.
func MonthGridDays(t time.Time) []time.Time {
	start := StartOfWeek(StartOfMonth(t))
	days := make([]time.Time, MonthGridCells)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// FormatDuration renders end-start in minutes: "45m", "2h", "1h 30m".
func FormatDuration(start, end time.Time) string {
	minutes := int(end.Sub(start) / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

// HourLabel renders a 0-23 hour as "12 AM", "9 AM", "12 PM", "3 PM".
func HourLabel(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}

// WeekRangeLabel renders the week containing t, e.g. "Dec 22 - 28, 2024"
// or "Dec 29 - Jan 4, 2024". The year is the year of the week's Sunday.
func WeekRangeLabel(t time.Time) string {
	start := StartOfWeek(t)
	end := start.AddDate(0, 0, DaysPerWeek-1)
	if start.Month() == end.Month() {
		return fmt.Sprintf("%s %d - %d, %d", start.Format("Jan"), start.Day(), end.Day(), start.Year())
	}
	return fmt.Sprintf("%s %d - %s %d, %d", start.Format("Jan"), start.Day(), end.Format("Jan"), end.Day(), start.Year())
}
