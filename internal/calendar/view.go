package calendar

import (
	"errors"
	"fmt"
	"time"
)

// Granularity is the active view mode.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// ErrUnknownGranularity is returned for any value outside day/week/month/year.
var ErrUnknownGranularity = errors.New("unknown granularity")

// ParseGranularity validates s.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(s)
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
	return g, nil
}

func (g Granularity) Valid() bool {
	switch g {
	case Day, Week, Month, Year:
		return true
	}
	return false
}

// Step moves anchor by n units of g.
func Step(anchor time.Time, g Granularity, n int) (time.Time, error) {
	switch g {
	case Day:
		return anchor.AddDate(0, 0, n), nil
	case Week:
		return anchor.AddDate(0, 0, 7*n), nil
	case Month:
		return AddMonths(anchor, n), nil
	case Year:
		return AddMonths(anchor, 12*n), nil
	default:
		return anchor, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
}

// ViewState is the transient, unpersisted state of the calendar screen.
// Controller hands out copies; callers cannot mutate the controller
// through them.
type ViewState struct {
	Granularity Granularity
	Anchor      time.Time
	DarkMode    bool
	// SelectedID is the event being viewed or edited, if any.
	SelectedID *int64
}

// Controller owns the ViewState and applies navigation intents to it.
type Controller struct {
	state ViewState
}

// NewController starts at anchor (truncated to its day) in granularity g.
func NewController(g Granularity, anchor time.Time) (*Controller, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	return &Controller{state: ViewState{Granularity: g, Anchor: StartOfDay(anchor)}}, nil
}

// State returns a copy of the current state.
func (c *Controller) State() ViewState {
	s := c.state
	if s.SelectedID != nil {
		id := *s.SelectedID
		s.SelectedID = &id
	}
	return s
}

func (c *Controller) Next() {
	c.state.Anchor, _ = Step(c.state.Anchor, c.state.Granularity, 1)
}

func (c *Controller) Previous() {
	c.state.Anchor, _ = Step(c.state.Anchor, c.state.Granularity, -1)
}

// SetGranularity switches the view mode without moving the anchor.
// Unknown values are rejected and leave the state unchanged.
func (c *Controller) SetGranularity(g Granularity) error {
	if !g.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	c.state.Granularity = g
	return nil
}

// JumpTo moves the anchor to date, e.g. when a month cell is tapped.
func (c *Controller) JumpTo(date time.Time) {
	c.state.Anchor = StartOfDay(date)
}

// ToggleDarkMode flips the flag and returns the new value.
func (c *Controller) ToggleDarkMode() bool {
	c.state.DarkMode = !c.state.DarkMode
	return c.state.DarkMode
}

// Select marks id as the current event, replacing any previous selection.
func (c *Controller) Select(id int64) {
	c.state.SelectedID = &id
}

func (c *Controller) ClearSelection() {
	c.state.SelectedID = nil
}
