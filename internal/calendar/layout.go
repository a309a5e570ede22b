package calendar

import (
	"sort"
	"time"

	"unicorn/internal/model"
)

// LayoutOptions controls the week-view geometry of LayoutDay.
type LayoutOptions struct {
	// DayStartHour / DayEndHour bound the visible time window. Events
	// whose start hour falls outside [DayStartHour, DayEndHour] are not
	// laid out at all.
	DayStartHour int
	DayEndHour   int

	// HourHeight is the pixel height of one hour on the vertical axis.
	HourHeight float64

	// MinEventHeight keeps very short (or degenerate, end<=start) events
	// visible and clickable.
	MinEventHeight float64

	// EventGap is subtracted from each block's height to leave a seam
	// between vertically adjacent blocks.
	EventGap float64
}

// DefaultLayoutOptions matches the dashboard's work-day window.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		DayStartHour:   6,
		DayEndHour:     20,
		HourHeight:     60,
		MinEventHeight: 20,
		EventGap:       2,
	}
}

// column is an ordered list of events stacked vertically without overlap.
type column []model.CalendarEvent

// LayoutDay assigns non-overlapping render geometry to one day's events.
//
// Concurrent events are packed into columns greedily, one maximal overlap
// cluster at a time: a cluster stays open while at least one of its events
// is still running, and closes when the next event starts at or after the
// latest end seen so far. Every column of a closed cluster gets the same
// width (100/N percent), so two overlapping events render as two 50% lanes
// and an isolated event as a single 100% lane.
//
// Events are processed sorted by (start ascending, end descending); for
// equal starts the longer event is placed first, which improves packing.
func LayoutDay(events []model.CalendarEvent, opts LayoutOptions) []model.PositionedEvent {
	visible := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		h := ev.Start.Hour()
		if h >= opts.DayStartHour && h <= opts.DayEndHour {
			visible = append(visible, ev)
		}
	}

	sort.SliceStable(visible, func(i, j int) bool {
		if !visible[i].Start.Equal(visible[j].Start) {
			return visible[i].Start.Before(visible[j].Start)
		}
		return visible[i].End.After(visible[j].End)
	})

	positioned := make([]model.PositionedEvent, 0, len(visible))

	var cluster []column
	var clusterEnd time.Time

	closeCluster := func() {
		n := len(cluster)
		for i, col := range cluster {
			for _, ev := range col {
				positioned = append(positioned, model.PositionedEvent{
					CalendarEvent: ev,
					Layout:        geometry(ev, i, n, opts),
				})
			}
		}
		cluster = nil
	}

	for _, ev := range visible {
		// Every event in the current cluster has ended: close it out and
		// start fresh. This is the maximal-cluster boundary, not simple
		// pairwise overlap.
		if len(cluster) > 0 && !ev.Start.Before(clusterEnd) {
			closeCluster()
		}
		fresh := len(cluster) == 0

		placed := false
		for i, col := range cluster {
			last := col[len(col)-1]
			if !last.End.After(ev.Start) {
				cluster[i] = append(col, ev)
				placed = true
				break
			}
		}
		if !placed {
			cluster = append(cluster, column{ev})
		}

		if fresh || ev.End.After(clusterEnd) {
			clusterEnd = ev.End
		}
	}
	closeCluster()

	return positioned
}

// geometry computes the pixel/percent box for an event in column i of an
// n-column cluster.
func geometry(ev model.CalendarEvent, i, n int, opts LayoutOptions) model.EventLayout {
	startMinutes := float64((ev.Start.Hour()-opts.DayStartHour)*60 + ev.Start.Minute())
	top := startMinutes / 60 * opts.HourHeight

	durationMinutes := ev.End.Sub(ev.Start).Minutes()
	height := durationMinutes/60*opts.HourHeight - opts.EventGap
	if height < opts.MinEventHeight {
		height = opts.MinEventHeight
	}

	width := 100.0 / float64(n)
	return model.EventLayout{
		Top:    top,
		Height: height,
		Left:   float64(i) * width,
		Width:  width,
	}
}
