package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartcal/internal/dates"
	"smartcal/internal/editor"
	"smartcal/internal/model"
	"smartcal/internal/store"
	"smartcal/internal/view"
)

func (s *Server) registerRoutes(metrics http.Handler) {
	s.e.GET("/health", s.handleHealth)
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	s.e.GET("/metrics", echo.WrapHandler(metrics))

	s.e.GET("/api/categories", s.handleCategories)

	s.e.GET("/api/events", s.handleListEvents)
	s.e.POST("/api/events", s.handleCreateEvent)
	s.e.GET("/api/events/:id", s.handleGetEvent)
	s.e.PATCH("/api/events/:id", s.handleUpdateEvent)
	s.e.DELETE("/api/events/:id", s.handleDeleteEvent)
	s.e.POST("/api/events/:id/reschedule", s.handleReschedule)
	s.e.GET("/api/events/date/:date", s.handleEventsForDate)
	s.e.GET("/api/events/hour/:date/:hour", s.handleEventsForHour)

	s.e.GET("/api/filter", s.handleGetFilter)
	s.e.PUT("/api/filter", s.handlePutFilter)
	s.e.GET("/api/stats", s.handleStats)

	s.e.GET("/api/state", s.handleGetState)
	s.e.PUT("/api/state", s.handlePutState)
	s.e.POST("/api/state/jump", s.handleJump)
	s.e.POST("/api/state/month", s.handleGoToMonth)
	s.e.POST("/api/drafts", s.handleNewDraft)
	s.e.POST("/api/state/:action", s.handleStateAction)
	s.e.GET("/api/quick-dates", s.handleQuickDates)

	s.e.GET("/api/views/agenda", s.handleAgenda)
	s.e.GET("/api/views/:mode", s.handleView)

	s.e.GET("/calendar", s.handleCalendar)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleCategories(c echo.Context) error {
	return writeJSON(c, http.StatusOK, s.store.ListCategories())
}

// eventRequest is the create/update payload. Start and End accept the form
// layouts (2006-01-02T15:04, 2006-01-02) or RFC 3339. Nil fields are left
// untouched on update.
type eventRequest struct {
	Title       *string `json:"title"`
	Start       *string `json:"start"`
	End         *string `json:"end"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Kind        *string `json:"kind"`
}

// apply feeds the request into a draft in form order: kind first so date
// inputs are interpreted with the right picker semantics.
//
// A leave draft locks its category, so the category is offered on both sides
// of the kind toggle and lands while the draft is still regular.
func (r eventRequest) apply(d *editor.Draft) error {
	setCategory := func() {
		if r.Category != nil {
			d.SetCategory(*r.Category)
		}
	}
	if r.Kind != nil {
		k := model.Kind(strings.ToLower(*r.Kind))
		if !k.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown kind "+strconv.Quote(*r.Kind))
		}
		setCategory()
		d.SetKind(k)
	}
	setCategory()
	if r.Title != nil {
		d.Title = *r.Title
	}
	if r.Description != nil {
		d.Description = *r.Description
	}
	if r.Start != nil {
		if err := d.SetStartInput(*r.Start); err != nil {
			return err
		}
	}
	if r.End != nil {
		if err := d.SetEndInput(*r.End); err != nil {
			return err
		}
	}
	return nil
}

type eventsResponse struct {
	Events []model.Event `json:"events"`
	Count  int           `json:"count"`
}

func newEventsResponse(evs []model.Event) eventsResponse {
	if evs == nil {
		evs = []model.Event{}
	}
	return eventsResponse{Events: evs, Count: len(evs)}
}

// handleListEvents runs an explicit query. It does not read the shared
// filter state; use /api/filter for that.
//
// GET /api/events?category=&q=&kind=&date=&from=&to=
func (s *Server) handleListEvents(c echo.Context) error {
	q := store.Query{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("q"),
	}
	if k := c.QueryParam("kind"); k != "" {
		q.Kind = model.Kind(strings.ToLower(k))
		if !q.Kind.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown kind "+strconv.Quote(k))
		}
	}
	if v := c.QueryParam("date"); v != "" {
		day, err := s.parseDay(v)
		if err != nil {
			return err
		}
		q.On = &day
	}
	var err error
	if q.From, err = s.parseOptionalTime(c.QueryParam("from")); err != nil {
		return err
	}
	if q.To, err = s.parseOptionalTime(c.QueryParam("to")); err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newEventsResponse(s.store.ListEvents(q)))
}

func (s *Server) handleCreateEvent(c echo.Context) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	d := editor.New(s.store, s.now())
	if err := req.apply(d); err != nil {
		return err
	}
	ev, err := d.Submit(s.store)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusCreated, ev)
}

func (s *Server) handleGetEvent(c echo.Context) error {
	ev, err := s.store.Get(c.Param("id"))
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, ev)
}

func (s *Server) handleUpdateEvent(c echo.Context) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	cur, err := s.store.Get(c.Param("id"))
	if err != nil {
		return err
	}
	d := editor.FromEvent(s.store, cur.In(s.loc))
	if err := req.apply(d); err != nil {
		return err
	}
	ev, err := d.Submit(s.store)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, ev)
}

func (s *Server) handleDeleteEvent(c echo.Context) error {
	if err := s.store.DeleteEvent(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type rescheduleRequest struct {
	Start string `json:"start"`
}

// handleReschedule moves an event to a new start, keeping its duration.
// Month-cell drops send a date only and keep the event's time of day.
func (s *Server) handleReschedule(c echo.Context) error {
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	cur, err := s.store.Get(c.Param("id"))
	if err != nil {
		return err
	}
	anchor, err := editor.ParseInput(req.Start, s.loc)
	if err != nil {
		return err
	}
	if isDateOnly(req.Start) {
		anchor = view.CellDropAnchor(cur.In(s.loc), anchor)
	}
	ev, err := s.store.RescheduleEvent(cur.ID, anchor)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, ev)
}

func (s *Server) handleEventsForDate(c echo.Context) error {
	day, err := s.parseDay(c.Param("date"))
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newEventsResponse(s.store.EventsForDate(day)))
}

func (s *Server) handleEventsForHour(c echo.Context) error {
	day, err := s.parseDay(c.Param("date"))
	if err != nil {
		return err
	}
	hour, err := strconv.Atoi(c.Param("hour"))
	if err != nil || hour < 0 || hour >= dates.HoursPerDay {
		return echo.NewHTTPError(http.StatusBadRequest, "hour must be 0-23")
	}
	return writeJSON(c, http.StatusOK, newEventsResponse(s.store.EventsForHour(day, hour)))
}

type filterState struct {
	Category string `json:"category"`
	Query    string `json:"q"`
}

func (s *Server) handleGetFilter(c echo.Context) error {
	return writeJSON(c, http.StatusOK, filterState{
		Category: s.store.SelectedCategory(),
		Query:    s.store.SearchQuery(),
	})
}

func (s *Server) handlePutFilter(c echo.Context) error {
	var req filterState
	if err := c.Bind(&req); err != nil {
		return err
	}
	s.store.SetSelectedCategory(req.Category)
	s.store.SetSearchQuery(req.Query)
	return s.handleGetFilter(c)
}

func (s *Server) handleStats(c echo.Context) error {
	return writeJSON(c, http.StatusOK, s.store.Stats(s.now()))
}

func (s *Server) parseDay(v string) (time.Time, error) {
	t, err := time.ParseInLocation(editor.DateLayout, v, s.loc)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD").SetInternal(err)
	}
	return t, nil
}

func (s *Server) parseOptionalTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return editor.ParseInput(v, s.loc)
}

func isDateOnly(v string) bool {
	_, err := time.Parse(editor.DateLayout, strings.TrimSpace(v))
	return err == nil
}
