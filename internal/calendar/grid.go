package calendar

import (
	"sort"
	"time"

	"unicorn/internal/model"
)

// gridWeeks * 7 cells are always produced, so months that fit in 5 rows
// still render with a stable shape.
const gridWeeks = 6

// BuildMonthGrid projects the event list onto a 6x7 month grid for the
// viewed year/month. Each cell knows whether it belongs to the viewed
// month, whether it is "today" (date-only comparison against today), and
// carries the events starting on that date sorted ascending by start.
//
// The grid is Monday-first: the first cell is the Monday on or before the
// first day of the month. The whole grid is rebuilt from scratch on every
// call; there is no incremental update.
func BuildMonthGrid(year int, month time.Month, events []model.CalendarEvent, today time.Time) []model.Week {
	loc := today.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := first.AddDate(0, 0, -mondayOffset(first))

	byDay := bucketByDay(events)
	todayKey := today.Format(model.DateKeyLayout)

	weeks := make([]model.Week, 0, gridWeeks)
	for w := 0; w < gridWeeks; w++ {
		days := make([]model.CalendarDay, 0, 7)
		for d := 0; d < 7; d++ {
			date := start.AddDate(0, 0, w*7+d)
			key := date.Format(model.DateKeyLayout)
			events := byDay[key]
			if events == nil {
				// Empty cells serialize as [] rather than null.
				events = []model.CalendarEvent{}
			}
			days = append(days, model.CalendarDay{
				Date:           date,
				IsCurrentMonth: date.Month() == month && date.Year() == year,
				IsToday:        key == todayKey,
				Events:         events,
			})
		}
		// The row's ISO week number is anchored on its Thursday (index 3),
		// which stays correct across month and year boundaries.
		weeks = append(weeks, model.Week{
			Number: ISOWeekNumber(days[3].Date),
			Days:   days,
		})
	}

	return weeks
}

// GridHolidays merges the holiday tables of every year appearing in the
// grid. The 42-cell grid can reach into the previous or next year, and
// those fringe days keep their names this way.
func GridHolidays(weeks []model.Week) map[string]string {
	merged := make(map[string]string)
	seen := make(map[int]bool)
	for _, w := range weeks {
		for _, d := range w.Days {
			year := d.Date.Year()
			if seen[year] {
				continue
			}
			seen[year] = true
			for k, v := range HolidaysForYear(year) {
				merged[k] = v
			}
		}
	}
	return merged
}

// WeekDays returns the seven dates Monday..Sunday of the week containing
// the anchor date.
func WeekDays(anchor time.Time) [7]time.Time {
	monday := anchor.AddDate(0, 0, -mondayOffset(anchor))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, anchor.Location())

	var days [7]time.Time
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// EventsOnDay filters the events starting on the given calendar date,
// sorted ascending by start. Used by the week view to feed LayoutDay.
func EventsOnDay(events []model.CalendarEvent, day time.Time) []model.CalendarEvent {
	key := day.Format(model.DateKeyLayout)
	return bucketByDay(events)[key]
}

// mondayOffset converts Go's Sunday-indexed weekday to the number of days
// since the most recent Monday (Monday=0 .. Sunday=6).
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func bucketByDay(events []model.CalendarEvent) map[string][]model.CalendarEvent {
	byDay := make(map[string][]model.CalendarEvent)
	for _, ev := range events {
		key := ev.DateKey()
		byDay[key] = append(byDay[key], ev)
	}
	for key := range byDay {
		bucket := byDay[key]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Start.Before(bucket[j].Start)
		})
	}
	return byDay
}
