package web_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"unicorn/internal/config"
	"unicorn/internal/store"
	"unicorn/internal/web"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:1@test\r\n" +
	"SUMMARY:Frühdienst\r\n" +
	"DTSTART:20240212T090000Z\r\n" +
	"DTEND:20240212T100000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:2@test\r\n" +
	"SUMMARY:Übergabe\r\n" +
	"DTSTART:20240212T093000Z\r\n" +
	"DTEND:20240212T103000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	st, err := store.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := httptest.NewServer(web.NewServer(cfg, st).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestImportThenMonth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/import", "text/calendar", strings.NewReader(sampleICS))
	if err != nil {
		t.Fatalf("import request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d", resp.StatusCode)
	}

	var importResp map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&importResp); err != nil {
		t.Fatalf("decode import response: %v", err)
	}
	if importResp["imported"] != 2 || importResp["dropped"] != 0 {
		t.Errorf("import response = %v", importResp)
	}

	resp, err = http.Get(srv.URL + "/api/month?year=2024&month=2")
	if err != nil {
		t.Fatalf("month request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("month status = %d", resp.StatusCode)
	}

	var month struct {
		Weeks []struct {
			Number int `json:"number"`
			Days   []struct {
				Date   string `json:"date"`
				Events []struct {
					Summary string `json:"summary"`
				} `json:"events"`
			} `json:"days"`
		} `json:"weeks"`
		Holidays map[string]string `json:"holidays"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&month); err != nil {
		t.Fatalf("decode month response: %v", err)
	}
	if len(month.Weeks) != 6 {
		t.Fatalf("weeks = %d, want 6", len(month.Weeks))
	}

	found := 0
	for _, w := range month.Weeks {
		for _, d := range w.Days {
			found += len(d.Events)
		}
	}
	if found != 2 {
		t.Errorf("events in grid = %d, want 2", found)
	}
	if month.Holidays["2024-01-01"] != "Neujahr" {
		t.Errorf("holidays missing: %v", month.Holidays)
	}
}

func TestImportRejectsEmptyPayload(t *testing.T) {
	srv := newTestServer(t)

	// Seed state that must survive the failed import.
	resp, err := http.Post(srv.URL+"/api/import", "text/calendar", strings.NewReader(sampleICS))
	if err != nil {
		t.Fatalf("seed import failed: %v", err)
	}
	resp.Body.Close()

	empty := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n"
	resp, err = http.Post(srv.URL+"/api/import", "text/calendar", strings.NewReader(empty))
	if err != nil {
		t.Fatalf("import request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("empty import status = %d, want 422", resp.StatusCode)
	}

	// Prior state untouched.
	resp, err = http.Get(srv.URL + "/api/week?date=2024-02-12")
	if err != nil {
		t.Fatalf("week request failed: %v", err)
	}
	defer resp.Body.Close()

	var week struct {
		WeekNumber int `json:"week_number"`
		Days       []struct {
			Date   string `json:"date"`
			Events []struct {
				Summary string `json:"summary"`
				Layout  struct {
					Left  float64 `json:"left"`
					Width float64 `json:"width"`
				} `json:"layout"`
			} `json:"events"`
		} `json:"days"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&week); err != nil {
		t.Fatalf("decode week response: %v", err)
	}
	if week.WeekNumber != 7 {
		t.Errorf("week number = %d, want 7", week.WeekNumber)
	}
	if len(week.Days) != 7 {
		t.Fatalf("days = %d, want 7", len(week.Days))
	}

	monday := week.Days[0]
	if monday.Date != "2024-02-12" {
		t.Fatalf("days[0] = %s, want 2024-02-12", monday.Date)
	}
	if len(monday.Events) != 2 {
		t.Fatalf("monday events = %d, want 2", len(monday.Events))
	}
	// The two overlapping events split into 50% lanes.
	for _, ev := range monday.Events {
		if ev.Layout.Width != 50 {
			t.Errorf("event %q width = %v, want 50", ev.Summary, ev.Layout.Width)
		}
	}
}

func TestImportRejectsBlankPayload(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/import", "text/calendar", strings.NewReader(sampleICS))
	if err != nil {
		t.Fatalf("seed import failed: %v", err)
	}
	resp.Body.Close()

	// Whitespace only: parses cleanly to zero events, must not clear the
	// stored set.
	resp, err = http.Post(srv.URL+"/api/import", "text/calendar", strings.NewReader("  \r\n \n"))
	if err != nil {
		t.Fatalf("import request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("blank import status = %d, want 422", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/month?year=2024&month=2")
	if err != nil {
		t.Fatalf("month request failed: %v", err)
	}
	defer resp.Body.Close()

	var month struct {
		Weeks []struct {
			Days []struct {
				Events []struct {
					Summary string `json:"summary"`
				} `json:"events"`
			} `json:"days"`
		} `json:"weeks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&month); err != nil {
		t.Fatalf("decode month response: %v", err)
	}
	found := 0
	for _, w := range month.Weeks {
		for _, d := range w.Days {
			found += len(d.Events)
		}
	}
	if found != 2 {
		t.Errorf("events after blank import = %d, want 2", found)
	}
}

func TestHealthAndHolidays(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/holidays?year=2025")
	if err != nil {
		t.Fatalf("holidays request failed: %v", err)
	}
	defer resp.Body.Close()

	var table map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		t.Fatalf("decode holidays: %v", err)
	}
	// Easter 2025 is April 20; Whit Monday lands on June 9.
	if table["2025-06-09"] != "Pfingstmontag" {
		t.Errorf("holidays[2025-06-09] = %q", table["2025-06-09"])
	}
}
