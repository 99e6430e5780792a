package web

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"smartcal/internal/dates"
	"smartcal/internal/editor"
	"smartcal/internal/model"
	"smartcal/internal/view"
)

// snapshot copies the shared view state.
func (s *Server) snapshot() view.State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return *s.state
}

func (s *Server) handleGetState(c echo.Context) error {
	return writeJSON(c, http.StatusOK, s.snapshot())
}

type stateRequest struct {
	Mode     string `json:"mode"`
	Date     string `json:"date"`
	Selected string `json:"selected"`
}

// handlePutState switches mode and/or moves the anchor and selection.
func (s *Server) handlePutState(c echo.Context) error {
	var req stateRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	var anchor, selected time.Time
	var err error
	if req.Date != "" {
		if anchor, err = s.parseDay(req.Date); err != nil {
			return err
		}
	}
	if req.Selected != "" {
		if selected, err = s.parseOptionalTime(req.Selected); err != nil {
			return err
		}
	}

	s.stateMu.Lock()
	if req.Mode != "" {
		s.state.SetMode(view.ParseMode(req.Mode))
	}
	if !anchor.IsZero() {
		s.state.CurrentDate = anchor
	}
	if !selected.IsZero() {
		s.state.Select(selected)
	}
	s.stateMu.Unlock()
	return s.handleGetState(c)
}

// handleStateAction runs one navigation control: prev, next or today.
func (s *Server) handleStateAction(c echo.Context) error {
	s.stateMu.Lock()
	switch c.Param("action") {
	case "prev":
		s.state.Prev()
	case "next":
		s.state.Next()
	case "today":
		s.state.Today(s.now())
	default:
		s.stateMu.Unlock()
		return echo.NewHTTPError(http.StatusNotFound, "unknown action")
	}
	s.stateMu.Unlock()
	return s.handleGetState(c)
}

type jumpRequest struct {
	Text string `json:"text"`
}

// handleJump resolves free text such as "next friday" and anchors on it.
func (s *Server) handleJump(c echo.Context) error {
	var req jumpRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	s.stateMu.Lock()
	err := s.nav.JumpTo(s.state, req.Text, s.now())
	s.stateMu.Unlock()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()).SetInternal(err)
	}
	return s.handleGetState(c)
}

type monthRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// handleGoToMonth is the month/year picker.
func (s *Server) handleGoToMonth(c echo.Context) error {
	var req monthRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Year < 1 || req.Month < 1 || req.Month > 12 {
		return echo.NewHTTPError(http.StatusBadRequest, "year and month 1-12 are required")
	}
	s.stateMu.Lock()
	s.state.GoToMonth(req.Year, time.Month(req.Month))
	s.stateMu.Unlock()
	return s.handleGetState(c)
}

type draftRequest struct {
	Date string `json:"date"`
	Hour *int   `json:"hour"`
}

type draftResponse struct {
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	StartInput string     `json:"start_input"`
	EndInput   string     `json:"end_input"`
	Category   string     `json:"category"`
	Color      string     `json:"color"`
	Kind       model.Kind `json:"kind"`
}

// handleNewDraft answers a click on a month cell (date only) or an hour slot
// (date and hour): the clicked time becomes the selection and the response
// carries the prefilled form.
func (s *Server) handleNewDraft(c echo.Context) error {
	var req draftRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	day, err := s.parseDay(req.Date)
	if err != nil {
		return err
	}

	var d *editor.Draft
	selected := day
	if req.Hour != nil {
		if *req.Hour < 0 || *req.Hour >= dates.HoursPerDay {
			return echo.NewHTTPError(http.StatusBadRequest, "hour must be 0-23")
		}
		selected = view.SlotTime(day, *req.Hour)
		d = editor.NewAt(s.store, selected)
	} else {
		d = editor.New(s.store, day)
	}

	s.stateMu.Lock()
	s.state.Select(selected)
	s.stateMu.Unlock()

	return writeJSON(c, http.StatusOK, draftResponse{
		Start:      d.Start,
		End:        d.End,
		StartInput: d.StartInput(),
		EndInput:   d.EndInput(),
		Category:   d.Category,
		Color:      d.Color,
		Kind:       d.Kind,
	})
}

type quickDatesResponse struct {
	QuickDates []view.QuickDate `json:"quick_dates"`
	Years      []int            `json:"years"`
}

func (s *Server) handleQuickDates(c echo.Context) error {
	now := s.now()
	return writeJSON(c, http.StatusOK, quickDatesResponse{
		QuickDates: view.QuickDates(now),
		Years:      view.YearChoices(now),
	})
}

// requestState builds the state a view request renders: the shared state,
// re-anchored on ?date= when given.
func (s *Server) requestState(c echo.Context, mode view.Mode) (*view.State, error) {
	st := s.snapshot()
	st.Mode = mode
	if v := c.QueryParam("date"); v != "" {
		day, err := s.parseDay(v)
		if err != nil {
			return nil, err
		}
		st.CurrentDate = day
	}
	return &st, nil
}

func (s *Server) handleView(c echo.Context) error {
	mode := view.Mode(c.Param("mode"))
	st, err := s.requestState(c, mode)
	if err != nil {
		return err
	}
	now := s.now()
	switch mode {
	case view.ModeMonth:
		return writeJSON(c, http.StatusOK, view.BuildMonth(s.store, st, now))
	case view.ModeWeek:
		return writeJSON(c, http.StatusOK, view.BuildWeek(s.store, st, now))
	case view.ModeDay:
		return writeJSON(c, http.StatusOK, view.BuildDay(s.store, st, now))
	default:
		return echo.NewHTTPError(http.StatusNotFound, "unknown view")
	}
}

// handleAgenda lists the filtered events for ?range=week|month|all around
// ?date= (default now).
func (s *Server) handleAgenda(c echo.Context) error {
	now := s.now()
	if v := c.QueryParam("date"); v != "" {
		day, err := s.parseDay(v)
		if err != nil {
			return err
		}
		now = day
	}
	return writeJSON(c, http.StatusOK, view.BuildAgenda(s.store, view.ParseAgendaRange(c.QueryParam("range")), now))
}
