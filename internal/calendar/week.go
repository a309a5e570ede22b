// Package calendar holds the date math behind the month and week views:
// ISO-8601 week numbering, the yearly holiday table, grid bucketing and
// the week-view overlap layout. Everything here is a pure function of its
// inputs; nothing is cached or mutated between calls.
package calendar

import (
	"fmt"
	"time"
)

// ISOWeekNumber returns the ISO-8601 week number (1..53) for the calendar
// date of t. The time-of-day and timezone offset of t are ignored; only
// the date components count.
//
// The computation shifts the date to the Thursday of its own week and
// counts weeks from January 1 of the Thursday's year. Anchoring on the
// Thursday keeps the number correct across year boundaries, where the
// week may belong to the previous or next year.
func ISOWeekNumber(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	// Monday=1 .. Sunday=7
	dow := int(d.Weekday())
	if dow == 0 {
		dow = 7
	}

	thursday := d.AddDate(0, 0, 4-dow)
	yearStart := time.Date(thursday.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	days := int(thursday.Sub(yearStart).Hours()/24) + 1
	return (days + 6) / 7
}

// fixedHolidays are the fixed-date national holidays (Austrian set).
var fixedHolidays = []struct {
	month time.Month
	day   int
	name  string
}{
	{time.January, 1, "Neujahr"},
	{time.January, 6, "Heilige Drei Könige"},
	{time.May, 1, "Staatsfeiertag"},
	{time.August, 15, "Mariä Himmelfahrt"},
	{time.October, 26, "Nationalfeiertag"},
	{time.November, 1, "Allerheiligen"},
	{time.December, 8, "Mariä Empfängnis"},
	{time.December, 25, "Christtag"},
	{time.December, 26, "Stefanitag"},
}

// easterHolidays are offsets in days relative to Easter Sunday.
var easterHolidays = []struct {
	offset int
	name   string
}{
	{1, "Ostermontag"},
	{39, "Christi Himmelfahrt"},
	{50, "Pfingstmontag"},
	{60, "Fronleichnam"},
}

// HolidaysForYear returns the holiday table for a year, keyed by local
// date key (YYYY-MM-DD). The table is recomputed on every call.
func HolidaysForYear(year int) map[string]string {
	out := make(map[string]string, len(fixedHolidays)+len(easterHolidays))

	for _, h := range fixedHolidays {
		out[dateKey(year, h.month, h.day)] = h.name
	}

	easter := EasterSunday(year)
	for _, h := range easterHolidays {
		d := easter.AddDate(0, 0, h.offset)
		out[dateKey(d.Year(), d.Month(), d.Day())] = h.name
	}

	return out
}

// EasterSunday computes Gregorian (Western) Easter Sunday for a year using
// the Meeus/Jones/Butcher algorithm.
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func dateKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}
