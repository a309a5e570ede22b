package calendar_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"unicorn/internal/calendar"
	"unicorn/internal/model"
)

func dayAt(hour, min int) time.Time {
	return time.Date(2024, 6, 12, hour, min, 0, 0, time.UTC)
}

func testOpts() calendar.LayoutOptions {
	return calendar.LayoutOptions{
		DayStartHour:   6,
		DayEndHour:     20,
		HourHeight:     60,
		MinEventHeight: 20,
		EventGap:       2,
	}
}

func TestLayoutDayClusters(t *testing.T) {
	events := []model.CalendarEvent{
		mkEvent("a", dayAt(9, 0), dayAt(10, 0)),
		mkEvent("b", dayAt(9, 30), dayAt(10, 30)),
		mkEvent("c", dayAt(11, 0), dayAt(12, 0)),
	}

	got := calendar.LayoutDay(events, testOpts())
	if len(got) != 3 {
		t.Fatalf("expected 3 positioned events, got %d", len(got))
	}

	byName := map[string]model.PositionedEvent{}
	for _, pe := range got {
		byName[pe.Summary] = pe
	}

	// a and b overlap: two 50% columns.
	if byName["a"].Layout.Width != 50 || byName["a"].Layout.Left != 0 {
		t.Errorf("a: left=%v width=%v, want 0/50", byName["a"].Layout.Left, byName["a"].Layout.Width)
	}
	if byName["b"].Layout.Width != 50 || byName["b"].Layout.Left != 50 {
		t.Errorf("b: left=%v width=%v, want 50/50", byName["b"].Layout.Left, byName["b"].Layout.Width)
	}
	// c overlaps nothing: its own cluster at full width.
	if byName["c"].Layout.Width != 100 || byName["c"].Layout.Left != 0 {
		t.Errorf("c: left=%v width=%v, want 0/100", byName["c"].Layout.Left, byName["c"].Layout.Width)
	}

	// Vertical geometry: a starts 3h after the 6:00 window start.
	if byName["a"].Layout.Top != 180 {
		t.Errorf("a: top=%v, want 180", byName["a"].Layout.Top)
	}
	if byName["a"].Layout.Height != 58 {
		t.Errorf("a: height=%v, want 58 (60px hour minus 2px gap)", byName["a"].Layout.Height)
	}
}

// Any two time-overlapping events must occupy disjoint horizontal ranges.
func TestLayoutDayNoHorizontalOverlap(t *testing.T) {
	events := []model.CalendarEvent{
		mkEvent("a", dayAt(9, 0), dayAt(12, 0)),
		mkEvent("b", dayAt(9, 30), dayAt(10, 30)),
		mkEvent("c", dayAt(10, 45), dayAt(11, 45)),
		mkEvent("d", dayAt(11, 0), dayAt(11, 30)),
		mkEvent("e", dayAt(13, 0), dayAt(14, 0)),
	}

	got := calendar.LayoutDay(events, testOpts())
	if len(got) != len(events) {
		t.Fatalf("expected %d positioned events, got %d", len(events), len(got))
	}

	for i := 0; i < len(got); i++ {
		for j := i + 1; j < len(got); j++ {
			a, b := got[i], got[j]
			timeOverlap := a.Start.Before(b.End) && b.Start.Before(a.End)
			if !timeOverlap {
				continue
			}
			aEnd := a.Layout.Left + a.Layout.Width
			bEnd := b.Layout.Left + b.Layout.Width
			horizontalOverlap := a.Layout.Left < bEnd && b.Layout.Left < aEnd
			if horizontalOverlap {
				t.Errorf("%q and %q overlap in time and share horizontal space: %+v vs %+v",
					a.Summary, b.Summary, a.Layout, b.Layout)
			}
		}
	}
}

func TestLayoutDayColumnReuse(t *testing.T) {
	// b ends before c starts, so c goes back into b's column and the
	// cluster stays at two columns.
	events := []model.CalendarEvent{
		mkEvent("a", dayAt(9, 0), dayAt(12, 0)),
		mkEvent("b", dayAt(9, 0), dayAt(10, 0)),
		mkEvent("c", dayAt(10, 0), dayAt(11, 0)),
	}

	got := calendar.LayoutDay(events, testOpts())
	for _, pe := range got {
		if pe.Layout.Width != 50 {
			t.Errorf("%q: width=%v, want 50", pe.Summary, pe.Layout.Width)
		}
	}

	byName := map[string]model.PositionedEvent{}
	for _, pe := range got {
		byName[pe.Summary] = pe
	}
	// Equal starts: the longer event a is packed first, into column 0.
	if byName["a"].Layout.Left != 0 {
		t.Errorf("a: left=%v, want 0", byName["a"].Layout.Left)
	}
	if byName["b"].Layout.Left != byName["c"].Layout.Left {
		t.Errorf("b and c should share a column: %v vs %v", byName["b"].Layout.Left, byName["c"].Layout.Left)
	}
}

func TestLayoutDayWindowFilter(t *testing.T) {
	events := []model.CalendarEvent{
		mkEvent("before", dayAt(5, 30), dayAt(6, 30)),
		mkEvent("inside", dayAt(6, 0), dayAt(7, 0)),
		mkEvent("edge", dayAt(20, 30), dayAt(21, 0)),
		mkEvent("after", dayAt(21, 0), dayAt(22, 0)),
	}

	got := calendar.LayoutDay(events, testOpts())
	if len(got) != 2 {
		t.Fatalf("expected 2 visible events, got %d", len(got))
	}
	names := map[string]bool{}
	for _, pe := range got {
		names[pe.Summary] = true
	}
	if !names["inside"] || !names["edge"] {
		t.Errorf("unexpected visible set: %v", names)
	}
}

func TestLayoutDayClampsDegenerateDurations(t *testing.T) {
	events := []model.CalendarEvent{
		// End before start: the parser does not reject these, the layout
		// must clamp instead of producing negative geometry.
		mkEvent("backwards", dayAt(10, 0), dayAt(9, 0)),
		mkEvent("instant", dayAt(12, 0), dayAt(12, 0)),
	}

	got := calendar.LayoutDay(events, testOpts())
	if len(got) != 2 {
		t.Fatalf("expected 2 positioned events, got %d", len(got))
	}
	for _, pe := range got {
		if pe.Layout.Height != 20 {
			t.Errorf("%q: height=%v, want the 20px minimum", pe.Summary, pe.Layout.Height)
		}
	}
}

func TestLayoutDayIdempotent(t *testing.T) {
	events := []model.CalendarEvent{
		mkEvent("a", dayAt(9, 0), dayAt(10, 0)),
		mkEvent("b", dayAt(9, 30), dayAt(10, 30)),
		mkEvent("c", dayAt(9, 45), dayAt(11, 0)),
	}

	first := calendar.LayoutDay(events, testOpts())
	second := calendar.LayoutDay(events, testOpts())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("layout not deterministic (-first +second):\n%s", diff)
	}
}
