// Package ics turns iCalendar feeds into the flat event list the calendar
// views are built from.
//
// Only SUMMARY, DTSTART and DTEND are consumed; UID, DTSTAMP, DESCRIPTION,
// RRULE and every other property are ignored and no recurrence expansion
// is performed. A VEVENT missing one of the three required fields is
// dropped silently so that a single bad event cannot fail a whole import.
package ics

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"unicorn/internal/model"
)

// ErrNoEvents is returned when a non-blank ICS payload yields zero usable
// events. Callers surface it to the user and keep their prior state.
var ErrNoEvents = errors.New("ics: no events found")

// Parse parses an ICS payload into calendar events.
//
// The second return value counts VEVENT blocks that were dropped for a
// missing or undecodable SUMMARY/DTSTART/DTEND; drops are diagnostics,
// never per-event errors. Blank input returns (nil, 0, nil): only an
// attempted import that produces nothing is treated as a failure.
func Parse(body []byte) ([]model.CalendarEvent, int, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, 0, nil
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}

	events := make([]model.CalendarEvent, 0)
	dropped := 0

	for _, ve := range cal.Events() {
		ev, ok := parseVEvent(ve)
		if !ok {
			dropped++
			continue
		}
		events = append(events, ev)
	}

	if dropped > 0 {
		slog.Debug("dropped incomplete vevents", "count", dropped)
	}
	if len(events) == 0 {
		return nil, dropped, ErrNoEvents
	}
	return events, dropped, nil
}

// parseVEvent extracts the three required fields from one VEVENT block.
// ok is false when any of them is missing or its date-time token does not
// decode.
func parseVEvent(ve *ical.VEvent) (model.CalendarEvent, bool) {
	var ev model.CalendarEvent

	p := ve.GetProperty(ical.ComponentPropertySummary)
	if p == nil {
		return ev, false
	}
	ev.Summary = p.Value

	start, ok := decodeDateTime(ve.GetProperty(ical.ComponentPropertyDtStart))
	if !ok {
		return ev, false
	}
	end, ok := decodeDateTime(ve.GetProperty(ical.ComponentPropertyDtEnd))
	if !ok {
		return ev, false
	}

	ev.Start = start
	ev.End = end
	return ev, true
}

// decodeDateTime decodes a DTSTART/DTEND value of the form
// YYYYMMDDTHHMMSS or YYYYMMDDTHHMMSSZ.
//
// The trailing Z marks an absolute UTC instant. Without it the token is a
// floating local date-time: it is constructed directly from its components
// in the local calendar, and a TZID parameter on the property is NOT
// resolved to an offset.
func decodeDateTime(p *ical.IANAProperty) (time.Time, bool) {
	if p == nil {
		return time.Time{}, false
	}
	v := strings.TrimSpace(p.Value)

	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	t, err := time.ParseInLocation("20060102T150405", v, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
