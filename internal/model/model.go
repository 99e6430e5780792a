package model

import "time"

// Kind tags the event variant.
type Kind string

const (
	KindRegular Kind = "regular"
	KindLeave   Kind = "leave"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindRegular || k == KindLeave
}

// CategoryAll is the filter value that matches every category.
const CategoryAll = "all"

// Category is one entry of the fixed category list supplied at startup.
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Event is a titled time interval, or a full-day leave period.
//
// For leave events Start is 00:00:00.000 and End is 23:59:59.999 in the
// location of the timestamps, and Color is the configured leave color.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Category    string    `json:"category"`
	Color       string    `json:"color"`
	Description string    `json:"description,omitempty"`
	Kind        Kind      `json:"kind"`
}

// IsLeave reports whether the event is a full-day leave.
func (e Event) IsLeave() bool {
	return e.Kind == KindLeave
}

// Duration returns End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// In returns a copy of e with Start and End expressed in loc.
func (e Event) In(loc *time.Location) Event {
	e.Start = e.Start.In(loc)
	e.End = e.End.In(loc)
	return e
}

// Draft is an uncommitted event payload handed to the store's create
// operation. Kind defaults to regular when empty.
type Draft struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Kind        Kind      `json:"kind,omitempty"`
}

// Patch lists the fields to merge into an existing event. Nil fields are
// left untouched.
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Description *string    `json:"description,omitempty"`
	Kind        *Kind      `json:"kind,omitempty"`
}

// TouchesRange reports whether the patch sets Start or End.
func (p Patch) TouchesRange() bool {
	return p.Start != nil || p.End != nil
}
