package web

import (
	"embed"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"smartcal/internal/dates"
	"smartcal/internal/model"
	"smartcal/internal/store"
	"smartcal/internal/view"
)

// embeddedTemplates holds the server-rendered calendar page. The capture
// command screenshots it once the root carries data-ready="true".
//
//go:embed templates/*.html
var embeddedTemplates embed.FS

type renderer struct {
	tmpl *template.Template
}

func newRenderer() *renderer {
	funcs := template.FuncMap{
		"clock":     func(t time.Time) string { return t.Format("3:04 PM") },
		"duration":  func(ev model.Event) string { return dates.FormatDuration(ev.Start, ev.End) },
		"timeRange": view.TimeRange,
		"mod7":      func(i int) int { return i % dates.DaysPerWeek },
	}
	return &renderer{
		tmpl: template.Must(template.New("").Funcs(funcs).ParseFS(embeddedTemplates, "templates/*.html")),
	}
}

func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

type calendarPage struct {
	Mode       view.Mode
	Modes      []view.Mode
	Date       string
	Categories []model.Category
	Filter     filterState
	Stats      store.Stats
	LeaveColor string

	Month  *view.Month
	Week   *view.Week
	Day    *view.Day
	Agenda *view.Agenda
}

// handleCalendar renders the HTML calendar.
//
// GET /calendar?view=month|week|day|agenda&date=2006-01-02&range=week
func (s *Server) handleCalendar(c echo.Context) error {
	mode := view.ParseMode(c.QueryParam("view"))
	st, err := s.requestState(c, mode)
	if err != nil {
		return err
	}
	now := s.now()

	page := calendarPage{
		Mode:       mode,
		Modes:      view.Modes,
		Date:       st.CurrentDate.Format("2006-01-02"),
		Categories: s.store.ListCategories(),
		Filter:     filterState{Category: s.store.SelectedCategory(), Query: s.store.SearchQuery()},
		Stats:      s.store.Stats(now),
		LeaveColor: s.store.LeaveColor(),
	}
	switch mode {
	case view.ModeWeek:
		w := view.BuildWeek(s.store, st, now)
		page.Week = &w
	case view.ModeDay:
		d := view.BuildDay(s.store, st, now)
		page.Day = &d
	case view.ModeAgenda:
		anchor := now
		if c.QueryParam("date") != "" {
			anchor = st.CurrentDate
		}
		a := view.BuildAgenda(s.store, view.ParseAgendaRange(c.QueryParam("range")), anchor)
		page.Agenda = &a
	default:
		m := view.BuildMonth(s.store, st, now)
		page.Month = &m
	}
	return c.Render(http.StatusOK, "calendar.html", page)
}
