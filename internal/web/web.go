// Package web exposes the calendar projections over HTTP: month grid,
// week layout, holiday table, ICS import and the rendered snapshot.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"unicorn/internal/calendar"
	"unicorn/internal/config"
	"unicorn/internal/ics"
	"unicorn/internal/metric"
	"unicorn/internal/model"
	"unicorn/internal/render"
	"unicorn/internal/store"
)

// maxImportBytes caps /api/import request bodies.
const maxImportBytes = 8 << 20

// Server provides the HTTP API on top of the event store.
type Server struct {
	cfg   *config.Config
	store *store.Store
	mux   *http.ServeMux
}

// NewServer constructs a Server around the given config and store.
func NewServer(cfg *config.Config, st *store.Store) *Server {
	s := &Server{
		cfg:   cfg,
		store: st,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		slog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// ListenAndServe starts the HTTP server bound to cfg.Listen.
func (s *Server) ListenAndServe(_ context.Context) error {
	slog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
	return http.ListenAndServe(s.cfg.Listen, s.Handler())
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/week", s.handleWeek)
	s.mux.HandleFunc("GET /api/holidays", s.handleHolidays)
	s.mux.HandleFunc("POST /api/import", s.handleImport)
	s.mux.HandleFunc("GET /calendar", s.handleCalendarHTML)
	s.mux.HandleFunc("GET /calendar/week", s.handleWeekHTML)
	s.mux.HandleFunc("GET /calendar.png", s.handleSnapshot)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware guards everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="unicorn", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// monthResponse is the JSON shape of /api/month.
type monthResponse struct {
	Year     int               `json:"year"`
	Month    int               `json:"month"`
	Weeks    []model.Week      `json:"weeks"`
	Holidays map[string]string `json:"holidays"`
}

// handleMonth returns the 6x7 month grid for ?year=&month= (defaults to
// the current month in the configured timezone).
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	loc := resolveLocationOrLocal(s.cfg.Timezone)
	now := time.Now().In(loc)

	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1..12")
		return
	}

	events, err := s.store.All(r.Context())
	if err != nil {
		slog.Error("month: loading events failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	weeks := calendar.BuildMonthGrid(year, time.Month(month), events, now)
	writeJSON(w, http.StatusOK, monthResponse{
		Year:     year,
		Month:    month,
		Weeks:    weeks,
		Holidays: calendar.GridHolidays(weeks),
	})
}

// weekDayResponse is one day of /api/week with its layout geometry.
type weekDayResponse struct {
	Date   string                  `json:"date"`
	Events []model.PositionedEvent `json:"events"`
}

type weekResponse struct {
	WeekNumber int               `json:"week_number"`
	Days       []weekDayResponse `json:"days"`
}

// handleWeek returns the Monday..Sunday of the week containing ?date=
// (default today), each day with its events laid out side by side.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	loc := resolveLocationOrLocal(s.cfg.Timezone)

	anchor := time.Now().In(loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.ParseInLocation(model.DateKeyLayout, raw, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		anchor = d
	}

	events, err := s.store.All(r.Context())
	if err != nil {
		slog.Error("week: loading events failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	opts := s.layoutOptions()
	days := calendar.WeekDays(anchor)
	resp := weekResponse{WeekNumber: calendar.ISOWeekNumber(days[0])}
	for _, day := range days {
		resp.Days = append(resp.Days, weekDayResponse{
			Date:   day.Format(model.DateKeyLayout),
			Events: calendar.LayoutDay(calendar.EventsOnDay(events, day), opts),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHolidays returns the holiday table for ?year= (default current).
func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	loc := resolveLocationOrLocal(s.cfg.Timezone)
	year := parseIntDefault(r.URL.Query().Get("year"), time.Now().In(loc).Year())
	writeJSON(w, http.StatusOK, calendar.HolidaysForYear(year))
}

// handleImport replaces the event set with the parsed upload. A payload
// yielding zero events fails with 422 and leaves the prior set untouched;
// the store is only written after a successful parse.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	events, dropped, err := ics.Parse(body)
	metric.DroppedEvents.Add(float64(dropped))
	if err != nil {
		if errors.Is(err, ics.ErrNoEvents) {
			metric.Imports.WithLabelValues("empty").Inc()
			writeError(w, http.StatusUnprocessableEntity, "no events found")
			return
		}
		metric.Imports.WithLabelValues("error").Inc()
		slog.Error("import: parse failed", "error", err)
		writeError(w, http.StatusBadRequest, "invalid ICS payload")
		return
	}
	// Blank input parses cleanly to zero events; it must not wipe the
	// stored set either.
	if len(events) == 0 {
		metric.Imports.WithLabelValues("empty").Inc()
		writeError(w, http.StatusUnprocessableEntity, "no events found")
		return
	}
	metric.ParsedEvents.Add(float64(len(events)))

	if err := s.store.Replace(r.Context(), events); err != nil {
		metric.Imports.WithLabelValues("error").Inc()
		slog.Error("import: replacing event set failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store events")
		return
	}
	metric.Imports.WithLabelValues("ok").Inc()
	metric.StoredEvents.Set(float64(len(events)))
	slog.Info("import completed", "events", len(events), "dropped", dropped)

	writeJSON(w, http.StatusOK, map[string]int{
		"imported": len(events),
		"dropped":  dropped,
	})
}

// handleCalendarHTML renders the month grid as a standalone page for the
// snapshot capture.
func (s *Server) handleCalendarHTML(w http.ResponseWriter, r *http.Request) {
	loc := resolveLocationOrLocal(s.cfg.Timezone)
	now := time.Now().In(loc)

	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month()))

	events, err := s.store.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	weeks := calendar.BuildMonthGrid(year, time.Month(month), events, now)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := render.MonthPage{
		Year:     year,
		Month:    time.Month(month),
		Weeks:    weeks,
		Holidays: calendar.GridHolidays(weeks),
	}
	if err := render.MonthHTML(w, page); err != nil {
		slog.Error("calendar html render failed", "error", err)
	}
}

// handleWeekHTML renders the week view as a standalone page.
func (s *Server) handleWeekHTML(w http.ResponseWriter, r *http.Request) {
	loc := resolveLocationOrLocal(s.cfg.Timezone)

	anchor := time.Now().In(loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		if d, err := time.ParseInLocation(model.DateKeyLayout, raw, loc); err == nil {
			anchor = d
		}
	}

	events, err := s.store.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}

	opts := s.layoutOptions()
	days := calendar.WeekDays(anchor)
	page := render.WeekPage{
		WeekNumber: calendar.ISOWeekNumber(days[0]),
		StartHour:  opts.DayStartHour,
		EndHour:    opts.DayEndHour,
		HourHeight: opts.HourHeight,
	}
	for _, day := range days {
		page.Days = append(page.Days, render.DayColumn{
			Date:   day,
			Events: calendar.LayoutDay(calendar.EventsOnDay(events, day), opts),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WeekHTML(w, page); err != nil {
		slog.Error("week html render failed", "error", err)
	}
}

// handleSnapshot serves the last captured PNG from the cache dir.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.cfg.CacheDir, "snapshot.png"))
}

func (s *Server) layoutOptions() calendar.LayoutOptions {
	d := s.cfg.Display
	return calendar.LayoutOptions{
		DayStartHour:   d.DayStartHour,
		DayEndHour:     d.DayEndHour,
		HourHeight:     d.HourHeight,
		MinEventHeight: d.MinEventHeight,
		EventGap:       d.EventGap,
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("failed to load timezone, falling back to local", "name", name, "error", err)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
