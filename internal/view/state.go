package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"smartcal/internal/dates"
)

// Mode is the active calendar layout.
type Mode string

const (
	ModeMonth  Mode = "month"
	ModeWeek   Mode = "week"
	ModeDay    Mode = "day"
	ModeAgenda Mode = "agenda"
)

// Modes lists the layouts in selector order.
var Modes = []Mode{ModeMonth, ModeWeek, ModeDay, ModeAgenda}

// ParseMode maps a string onto a Mode, defaulting to month.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWeek:
		return ModeWeek
	case ModeDay:
		return ModeDay
	case ModeAgenda:
		return ModeAgenda
	default:
		return ModeMonth
	}
}

var ErrNoDateFound = errors.New("no date found in text")

// State is the process-local view state: which date anchors the visible grid,
// which cell or slot was last clicked, and which layout is shown.
type State struct {
	CurrentDate  time.Time `json:"current_date"`
	SelectedDate time.Time `json:"selected_date"`
	Mode         Mode      `json:"mode"`
}

// NewState anchors a month view on now.
func NewState(now time.Time) *State {
	return &State{CurrentDate: now, SelectedDate: now, Mode: ModeMonth}
}

// SetMode switches layouts without moving the anchor.
func (s *State) SetMode(m Mode) {
	s.Mode = m
}

// Prev moves the anchor back by one page of the active layout.
func (s *State) Prev() {
	s.CurrentDate = step(s.CurrentDate, s.Mode, -1)
}

// Next moves the anchor forward by one page of the active layout.
func (s *State) Next() {
	s.CurrentDate = step(s.CurrentDate, s.Mode, 1)
}

func step(t time.Time, m Mode, dir int) time.Time {
	switch m {
	case ModeWeek:
		return t.AddDate(0, 0, dates.DaysPerWeek*dir)
	case ModeDay:
		return t.AddDate(0, 0, dir)
	default:
		return dates.AddMonths(t, dir)
	}
}

// Today re-anchors on now.
func (s *State) Today(now time.Time) {
	s.CurrentDate = now
}

// GoToMonth anchors on the first day of the given month.
func (s *State) GoToMonth(year int, month time.Month) {
	s.CurrentDate = time.Date(year, month, 1, 0, 0, 0, 0, s.CurrentDate.Location())
}

// Select records a clicked cell or slot.
func (s *State) Select(t time.Time) {
	s.SelectedDate = t
}

// QuickDate is one of the shortcut targets offered by the date picker.
type QuickDate struct {
	Label string    `json:"label"`
	Date  time.Time `json:"date"`
}

// QuickDates returns the shortcut targets relative to now.
func QuickDates(now time.Time) []QuickDate {
	loc := now.Location()
	y := now.Year()
	return []QuickDate{
		{Label: "Today", Date: now},
		{Label: "Start of Year", Date: time.Date(y, time.January, 1, 0, 0, 0, 0, loc)},
		{Label: "End of Year", Date: time.Date(y, time.December, 31, 0, 0, 0, 0, loc)},
		{Label: "Next Month", Date: dates.AddMonths(now, 1)},
		{Label: "Last Month", Date: dates.AddMonths(now, -1)},
	}
}

// YearChoices returns the ten years offered by the month picker, starting
// five years before now.
func YearChoices(now time.Time) []int {
	years := make([]int, 10)
	for i := range years {
		years[i] = now.Year() - 5 + i
	}
	return years
}

// Navigator parses free-form "go to" text such as "next friday" or
// "tomorrow" into a date.
type Navigator struct {
	parser *when.Parser
}

// NewNavigator builds a Navigator with the English and common rule sets.
func NewNavigator() *Navigator {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Navigator{parser: w}
}

// Resolve parses text relative to now.
func (n *Navigator) Resolve(text string, now time.Time) (time.Time, error) {
	res, err := n.parser.Parse(text, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", text, err)
	}
	if res == nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", text, ErrNoDateFound)
	}
	return res.Time, nil
}

// JumpTo resolves text and anchors the state on the result.
func (n *Navigator) JumpTo(s *State, text string, now time.Time) error {
	t, err := n.Resolve(text, now)
	if err != nil {
		return err
	}
	s.CurrentDate = t
	s.SelectedDate = t
	return nil
}
