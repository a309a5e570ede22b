package model

import "time"

// DateKeyLayout is the canonical day-bucket key format (local calendar date).
const DateKeyLayout = "2006-01-02"

// CalendarEvent is a single imported event. Events are immutable once
// constructed by the ICS parser; each import replaces the full set.
//
// Two events with identical summary/start/end are indistinguishable; there
// is no stable identity beyond the derived day bucket. Known limitation.
type CalendarEvent struct {
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// DateKey returns the day-bucket key of the event, derived from its start.
func (e CalendarEvent) DateKey() string {
	return e.Start.Format(DateKeyLayout)
}

// Duration returns End-Start. May be zero or negative for degenerate
// events; the layout engine clamps those instead of rejecting them.
func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// CalendarDay is one cell of the month grid. Recomputed on every call to
// BuildMonthGrid, never mutated in place.
type CalendarDay struct {
	Date           time.Time       `json:"date"`
	IsCurrentMonth bool            `json:"is_current_month"`
	IsToday        bool            `json:"is_today"`
	Events         []CalendarEvent `json:"events"`
}

// Week is one row of the month grid: exactly 7 days, Monday first, plus
// the ISO-8601 week number of that row.
type Week struct {
	Number int           `json:"number"`
	Days   []CalendarDay `json:"days"`
}

// EventLayout is the render geometry of a positioned event within a single
// day's vertical time axis. Top/Height are pixels, Left/Width are percent.
type EventLayout struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

// PositionedEvent is a CalendarEvent with week-view geometry attached.
// Computed fresh per layout call; never persisted.
type PositionedEvent struct {
	CalendarEvent
	Layout EventLayout `json:"layout"`
}
