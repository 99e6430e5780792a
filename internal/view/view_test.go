package view

import (
	"errors"
	"testing"
	"time"

	"smartcal/internal/dates"
	"smartcal/internal/model"
	"smartcal/internal/store"
)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.Local)
}

func sampleStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(store.Options{Categories: []model.Category{
		{ID: "work", Name: "Work", Color: "blue"},
		{ID: "personal", Name: "Personal", Color: "green"},
	}})
	for _, d := range []model.Draft{
		{Title: "Team Meeting", Start: at(2024, 12, 25, 10, 0), End: at(2024, 12, 25, 11, 0), Category: "work"},
		{Title: "Lunch with Sarah", Start: at(2024, 12, 26, 12, 30), End: at(2024, 12, 26, 13, 30), Category: "personal"},
		{Title: "Project Deadline", Start: at(2024, 12, 28, 9, 0), End: at(2024, 12, 28, 17, 0), Category: "work"},
		{Title: "Vacation", Start: at(2024, 12, 30, 0, 0), End: at(2024, 12, 30, 23, 59), Category: "personal", Kind: model.KindLeave},
		{Title: "Sick Leave", Start: at(2024, 12, 27, 0, 0), End: at(2024, 12, 27, 23, 59), Category: "personal", Kind: model.KindLeave},
	} {
		if _, err := s.CreateEvent(d); err != nil {
			t.Fatalf("seed %q: %v", d.Title, err)
		}
	}
	return s
}

func TestNavigation(t *testing.T) {
	st := NewState(at(2024, 12, 25, 10, 0))

	st.Next()
	if st.CurrentDate.Month() != time.January || st.CurrentDate.Year() != 2025 {
		t.Fatalf("month next: %s", st.CurrentDate)
	}
	st.Prev()
	st.Prev()
	if st.CurrentDate.Month() != time.November {
		t.Fatalf("month prev: %s", st.CurrentDate)
	}

	st = NewState(at(2024, 12, 25, 10, 0))
	st.SetMode(ModeWeek)
	st.Next()
	if !dates.IsSameCalendarDay(st.CurrentDate, at(2025, 1, 1, 0, 0)) {
		t.Fatalf("week next: %s", st.CurrentDate)
	}
	st.SetMode(ModeDay)
	st.Prev()
	if !dates.IsSameCalendarDay(st.CurrentDate, at(2024, 12, 31, 0, 0)) {
		t.Fatalf("day prev: %s", st.CurrentDate)
	}

	st.GoToMonth(2023, time.March)
	if !st.CurrentDate.Equal(at(2023, 3, 1, 0, 0)) {
		t.Fatalf("go to month: %s", st.CurrentDate)
	}
	now := at(2026, 10, 17, 8, 0)
	st.Today(now)
	if !st.CurrentDate.Equal(now) {
		t.Fatalf("today: %s", st.CurrentDate)
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("WEEK") != ModeWeek || ParseMode("agenda") != ModeAgenda || ParseMode("bogus") != ModeMonth {
		t.Fatalf("ParseMode mismatch")
	}
	if ParseAgendaRange("all") != RangeAll || ParseAgendaRange("") != RangeWeek {
		t.Fatalf("ParseAgendaRange mismatch")
	}
}

func TestQuickDates(t *testing.T) {
	now := at(2024, 12, 25, 10, 0)
	qd := QuickDates(now)
	want := map[string]time.Time{
		"Today":         now,
		"Start of Year": at(2024, 1, 1, 0, 0),
		"End of Year":   at(2024, 12, 31, 0, 0),
		"Next Month":    at(2025, 1, 1, 0, 0),
		"Last Month":    at(2024, 11, 1, 0, 0),
	}
	if len(qd) != len(want) {
		t.Fatalf("got %d quick dates", len(qd))
	}
	for _, q := range qd {
		if !q.Date.Equal(want[q.Label]) {
			t.Fatalf("%s = %s, want %s", q.Label, q.Date, want[q.Label])
		}
	}
	years := YearChoices(now)
	if len(years) != 10 || years[0] != 2019 || years[9] != 2028 {
		t.Fatalf("years %v", years)
	}
}

func TestNavigatorJumpTo(t *testing.T) {
	n := NewNavigator()
	now := at(2024, 12, 25, 10, 0)
	st := NewState(now)

	if err := n.JumpTo(st, "tomorrow", now); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if !dates.IsSameCalendarDay(st.CurrentDate, at(2024, 12, 26, 0, 0)) {
		t.Fatalf("tomorrow resolved to %s", st.CurrentDate)
	}
	if !dates.IsSameCalendarDay(st.SelectedDate, st.CurrentDate) {
		t.Fatalf("selection should follow the jump")
	}

	if _, err := n.Resolve("qwerty", now); !errors.Is(err, ErrNoDateFound) {
		t.Fatalf("expected ErrNoDateFound, got %v", err)
	}
}

func TestBuildMonth(t *testing.T) {
	s := sampleStore(t)
	now := at(2024, 12, 25, 8, 0)
	st := NewState(now)
	st.Select(at(2024, 12, 26, 0, 0))

	m := BuildMonth(s, st, now)
	if m.Label != "December 2024" {
		t.Fatalf("label %q", m.Label)
	}
	if len(m.Cells) != 42 {
		t.Fatalf("expected 42 cells, got %d", len(m.Cells))
	}
	cell := func(y int, mo time.Month, d int) MonthCell {
		for _, c := range m.Cells {
			if dates.IsSameCalendarDay(c.Date, at(y, mo, d, 0, 0)) {
				return c
			}
		}
		t.Fatalf("no cell for %d-%d-%d", y, mo, d)
		return MonthCell{}
	}
	if c := cell(2024, 12, 25); !c.IsToday || len(c.Events) != 1 || c.Events[0].Title != "Team Meeting" {
		t.Fatalf("dec 25 cell %+v", c)
	}
	if c := cell(2024, 12, 26); !c.IsSelected {
		t.Fatalf("dec 26 should be selected")
	}
	if c := cell(2024, 12, 30); len(c.Events) != 1 || c.Events[0].Title != "Vacation" {
		t.Fatalf("dec 30 cell %+v", c)
	}
	if c := cell(2025, 1, 1); c.InMonth {
		t.Fatalf("jan 1 should be outside the month")
	}
}

func TestBuildMonthOverflow(t *testing.T) {
	s := sampleStore(t)
	for i := 0; i < 4; i++ {
		if _, err := s.CreateEvent(model.Draft{Title: "Extra", Start: at(2024, 12, 25, 12+i, 0), End: at(2024, 12, 25, 13+i, 0)}); err != nil {
			t.Fatal(err)
		}
	}
	m := BuildMonth(s, NewState(at(2024, 12, 1, 0, 0)), at(2024, 12, 1, 0, 0))
	for _, c := range m.Cells {
		if dates.IsSameCalendarDay(c.Date, at(2024, 12, 25, 0, 0)) {
			if len(c.Events) != 3 || c.More != 2 {
				t.Fatalf("expected 3 shown + 2 more, got %d + %d", len(c.Events), c.More)
			}
			if c.Events[0].Title != "Team Meeting" {
				t.Fatalf("cell events must be start-ordered")
			}
			return
		}
	}
	t.Fatalf("dec 25 missing")
}

func TestBuildMonthRespectsFilters(t *testing.T) {
	s := sampleStore(t)
	s.SetSelectedCategory("personal")
	m := BuildMonth(s, NewState(at(2024, 12, 25, 0, 0)), at(2024, 12, 25, 0, 0))
	for _, c := range m.Cells {
		for _, ev := range c.Events {
			if ev.Category != "personal" {
				t.Fatalf("filtered month leaked %q", ev.Title)
			}
		}
		// The dot ignores the filter: Team Meeting is hidden but still marks Dec 25.
		if dates.IsSameCalendarDay(c.Date, at(2024, 12, 25, 0, 0)) && (!c.HasEvents || len(c.Events) != 0) {
			t.Fatalf("dec 25 cell %+v", c)
		}
		if dates.IsSameCalendarDay(c.Date, at(2024, 12, 24, 0, 0)) && c.HasEvents {
			t.Fatalf("dec 24 should have no dot")
		}
	}
}

func TestBuildWeek(t *testing.T) {
	s := sampleStore(t)
	now := at(2024, 12, 25, 8, 0)
	w := BuildWeek(s, NewState(now), now)

	if w.Label != "Dec 22 - 28, 2024" {
		t.Fatalf("label %q", w.Label)
	}
	if len(w.Days) != 7 || w.Days[0].Weekday != "Sun" {
		t.Fatalf("unexpected days %+v", w.Days)
	}
	wed := w.Days[3]
	if !wed.IsToday || len(wed.Slots) != 24 {
		t.Fatalf("wednesday column %+v", wed)
	}
	if got := wed.Slots[10].Events; len(got) != 1 || got[0].Title != "Team Meeting" {
		t.Fatalf("10am slot %+v", got)
	}
	if wed.Slots[10].Label != "10 AM" || !wed.Slots[10].Time.Equal(at(2024, 12, 25, 10, 0)) {
		t.Fatalf("slot meta %+v", wed.Slots[10])
	}
	fri := w.Days[5]
	if len(fri.Leave) != 1 || fri.Leave[0].Title != "Sick Leave" {
		t.Fatalf("friday leave %+v", fri.Leave)
	}
	for _, sl := range fri.Slots {
		if len(sl.Events) != 0 {
			t.Fatalf("leave must not occupy hour slots: %+v", sl)
		}
	}
}

func TestBuildDay(t *testing.T) {
	s := sampleStore(t)
	st := NewState(at(2024, 12, 26, 0, 0))
	st.SetMode(ModeDay)
	d := BuildDay(s, st, at(2024, 12, 25, 0, 0))
	if d.Label != "Thursday, December 26, 2024" {
		t.Fatalf("label %q", d.Label)
	}
	if got := d.Column.Slots[12].Events; len(got) != 1 || got[0].Title != "Lunch with Sarah" {
		t.Fatalf("noon slot %+v", got)
	}
	if d.Column.IsToday {
		t.Fatalf("dec 26 is not today")
	}
}

func TestDropAnchors(t *testing.T) {
	ev := model.Event{Start: at(2024, 12, 25, 10, 30), End: at(2024, 12, 25, 11, 30)}
	got := CellDropAnchor(ev, at(2024, 12, 31, 0, 0))
	if !got.Equal(at(2024, 12, 31, 10, 30)) {
		t.Fatalf("cell drop anchor %s", got)
	}
	if got := SlotTime(at(2024, 12, 31, 17, 45), 14); !got.Equal(at(2024, 12, 31, 14, 0)) {
		t.Fatalf("slot time %s", got)
	}
}

func TestBuildAgenda(t *testing.T) {
	s := sampleStore(t)
	now := at(2024, 12, 25, 8, 0)

	a := BuildAgenda(s, RangeWeek, now)
	if a.Regular != 3 || a.Leave != 1 {
		t.Fatalf("counts %d/%d", a.Regular, a.Leave)
	}
	if len(a.Groups) != 4 {
		t.Fatalf("expected 4 day groups, got %d", len(a.Groups))
	}
	if a.Groups[0].Label != "Today" || a.Groups[1].Label != "Tomorrow" {
		t.Fatalf("labels %q, %q", a.Groups[0].Label, a.Groups[1].Label)
	}
	if a.Groups[2].Label != "Friday, December 27" {
		t.Fatalf("label %q", a.Groups[2].Label)
	}
	first := a.Groups[0].Items[0]
	if first.Time != "10:00 AM - 11:00 AM" || first.Duration != "1h" {
		t.Fatalf("item %+v", first)
	}
	if a.Groups[3].Items[0].Duration != "8h" {
		t.Fatalf("deadline duration %q", a.Groups[3].Items[0].Duration)
	}

	all := BuildAgenda(s, RangeAll, now)
	if all.Regular+all.Leave != 5 {
		t.Fatalf("all range should list everything, got %d", all.Regular+all.Leave)
	}
	month := BuildAgenda(s, RangeMonth, now)
	if month.Regular+month.Leave != 5 {
		t.Fatalf("december should list everything, got %d", month.Regular+month.Leave)
	}
}

func TestBuildAgendaEmptyMessages(t *testing.T) {
	s := sampleStore(t)
	a := BuildAgenda(s, RangeWeek, at(2025, 6, 1, 0, 0))
	if a.Empty != emptyRangeMessage {
		t.Fatalf("empty message %q", a.Empty)
	}
	s.SetSearchQuery("no-such-thing")
	a = BuildAgenda(s, RangeAll, at(2024, 12, 25, 0, 0))
	if a.Empty != emptySearchMessage {
		t.Fatalf("search empty message %q", a.Empty)
	}
}
