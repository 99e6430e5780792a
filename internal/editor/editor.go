// Package editor holds the event form draft: the transient, unshared copy of
// an event that is edited field by field and committed back to the store on
// submit.
package editor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"smartcal/internal/dates"
	"smartcal/internal/model"
	"smartcal/internal/store"
)

const (
	// DateTimeLayout is the datetime-local form layout used for regular events.
	DateTimeLayout = "2006-01-02T15:04"
	// DateLayout is the date-only form layout used for leave events.
	DateLayout = "2006-01-02"

	defaultStartHour = 9
	defaultEndHour   = 10
)

var (
	ErrTitleRequired     = errors.New("title is required")
	ErrUnknownDateFormat = errors.New("unrecognized date format")
)

// Committer is the write side of the store the draft submits to.
type Committer interface {
	CreateEvent(d model.Draft) (model.Event, error)
	UpdateEvent(id string, p model.Patch) (model.Event, error)
}

// Palette resolves colors while editing; *store.Store satisfies it.
type Palette interface {
	ColorFor(categoryID string) string
	LeaveColor() string
	DefaultCategoryID() string
}

// Draft is the editor's working copy. A zero EventID marks a new event.
type Draft struct {
	EventID string

	Title       string
	Start       time.Time
	End         time.Time
	Category    string
	Color       string
	Description string
	Kind        model.Kind

	palette Palette
	loc     *time.Location
}

// New opens a draft for a fresh event on selected's day, 09:00 to 10:00.
func New(p Palette, selected time.Time) *Draft {
	d := &Draft{
		Start:    dates.AtHour(selected, defaultStartHour),
		End:      dates.AtHour(selected, defaultEndHour),
		Category: p.DefaultCategoryID(),
		Kind:     model.KindRegular,
		palette:  p,
		loc:      selected.Location(),
	}
	d.Color = p.ColorFor(d.Category)
	return d
}

// NewAt opens a draft for a fresh event starting at slot, lasting one hour.
// Used by week/day time-slot clicks.
func NewAt(p Palette, slot time.Time) *Draft {
	d := New(p, slot)
	d.Start = slot
	d.End = slot.Add(time.Hour)
	return d
}

// FromEvent opens a draft editing ev.
func FromEvent(p Palette, ev model.Event) *Draft {
	return &Draft{
		EventID:     ev.ID,
		Title:       ev.Title,
		Start:       ev.Start,
		End:         ev.End,
		Category:    ev.Category,
		Color:       ev.Color,
		Description: ev.Description,
		Kind:        ev.Kind,
		palette:     p,
		loc:         ev.Start.Location(),
	}
}

// IsNew reports whether submitting creates rather than updates.
func (d *Draft) IsNew() bool {
	return d.EventID == ""
}

// IsLeave reports whether the draft is a leave.
func (d *Draft) IsLeave() bool {
	return d.Kind == model.KindLeave
}

// CategoryEditable is false for leave drafts.
func (d *Draft) CategoryEditable() bool {
	return !d.IsLeave()
}

// InputLayout is the layout the form picker uses for the current kind.
func (d *Draft) InputLayout() string {
	if d.IsLeave() {
		return DateLayout
	}
	return DateTimeLayout
}

// StartInput renders Start for the form picker.
func (d *Draft) StartInput() string {
	return d.Start.Format(d.InputLayout())
}

// EndInput renders End for the form picker.
func (d *Draft) EndInput() string {
	return d.End.Format(d.InputLayout())
}

// SetKind switches between regular and leave. Switching to leave snaps the
// timestamps to whole days right away; switching back gives a regular event
// at the default hours of the start day.
func (d *Draft) SetKind(k model.Kind) {
	if !k.Valid() || k == d.Kind {
		return
	}
	d.Kind = k
	if k == model.KindLeave {
		d.Color = d.palette.LeaveColor()
		d.snapToDays()
		return
	}
	d.Color = d.palette.ColorFor(d.Category)
	d.Start = dates.AtHour(d.Start, defaultStartHour)
	d.End = dates.AtHour(d.Start, defaultEndHour)
}

func (d *Draft) snapToDays() {
	d.Start = dates.StartOfDay(d.Start)
	if dates.StartOfDay(d.End).Before(d.Start) {
		d.End = dates.EndOfDay(d.Start)
		return
	}
	d.End = dates.EndOfDay(d.End)
}

// SetCategory changes the category and re-derives the color. Ignored for
// leave drafts.
func (d *Draft) SetCategory(id string) {
	if !d.CategoryEditable() {
		return
	}
	d.Category = id
	d.Color = d.palette.ColorFor(id)
}

// SetStartInput parses a form value into Start.
func (d *Draft) SetStartInput(v string) error {
	t, err := d.parseInput(v)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	d.Start = t
	if d.IsLeave() {
		d.Start = dates.StartOfDay(t)
	}
	return nil
}

// SetEndInput parses a form value into End.
func (d *Draft) SetEndInput(v string) error {
	t, err := d.parseInput(v)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	d.End = t
	if d.IsLeave() {
		d.End = dates.EndOfDay(t)
	}
	return nil
}

func (d *Draft) parseInput(v string) (time.Time, error) {
	return ParseInput(v, d.loc)
}

// ParseInput accepts either picker layout, or RFC 3339, so a value typed
// before a kind toggle still parses. The result is always in loc; an RFC 3339
// offset only fixes the instant.
func ParseInput(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{DateTimeLayout, DateLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", v, ErrUnknownDateFormat)
}

// Validate checks the draft the way the form does before submitting.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrTitleRequired
	}
	if !d.IsLeave() && d.End.Before(d.Start) {
		return store.ErrInvalidRange
	}
	return nil
}

// Submit commits the draft: new drafts are created, bound drafts updated.
// On error the form stays open and the draft is unchanged.
func (d *Draft) Submit(c Committer) (model.Event, error) {
	if err := d.Validate(); err != nil {
		return model.Event{}, err
	}
	if d.IsNew() {
		ev, err := c.CreateEvent(d.toModelDraft())
		if err != nil {
			return model.Event{}, err
		}
		d.EventID = ev.ID
		return ev, nil
	}
	return c.UpdateEvent(d.EventID, d.toPatch())
}

func (d *Draft) toModelDraft() model.Draft {
	return model.Draft{
		Title:       strings.TrimSpace(d.Title),
		Start:       d.Start,
		End:         d.End,
		Category:    d.Category,
		Description: d.Description,
		Kind:        d.Kind,
	}
}

func (d *Draft) toPatch() model.Patch {
	md := d.toModelDraft()
	return model.Patch{
		Title:       &md.Title,
		Start:       &md.Start,
		End:         &md.End,
		Category:    &md.Category,
		Description: &md.Description,
		Kind:        &md.Kind,
	}
}
