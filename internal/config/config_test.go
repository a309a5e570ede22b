package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"unicorn/internal/config"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "unicorn.yaml")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Display.DayStartHour != 6 || cfg.Display.DayEndHour != 20 {
		t.Errorf("display window = %d..%d, want 6..20", cfg.Display.DayStartHour, cfg.Display.DayEndHour)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perms = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unicorn.yaml")
	partial := []byte("listen: \"0.0.0.0:9000\"\nsources:\n  - url: https://example.test/feed.ics\n    id: work\n")
	if err := os.WriteFile(path, partial, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.RefreshCron != "*/15 * * * *" {
		t.Errorf("RefreshCron not defaulted: %q", cfg.RefreshCron)
	}
	if cfg.Display.HourHeight != 60 || cfg.Display.MinEventHeight != 20 || cfg.Display.EventGap != 2 {
		t.Errorf("display defaults missing: %+v", cfg.Display)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].ID != "work" {
		t.Errorf("sources = %+v", cfg.Sources)
	}
}

func TestNormalizeKeepsExplicitDayStartHour(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unicorn.yaml")
	partial := []byte("display:\n  day_start_hour: 8\n")
	if err := os.WriteFile(path, partial, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Display.DayStartHour != 8 {
		t.Errorf("DayStartHour = %d, want 8", cfg.Display.DayStartHour)
	}
	if cfg.Display.DayEndHour != 20 {
		t.Errorf("DayEndHour not defaulted: %d", cfg.Display.DayEndHour)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unicorn.yaml")

	cfg := config.DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	cfg.Sources = []config.SourceConfig{{URL: "https://example.test/a.ics", ID: "a", Name: "A"}}

	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q", got.Timezone)
	}
	if len(got.Sources) != 1 || got.Sources[0].Name != "A" {
		t.Errorf("Sources = %+v", got.Sources)
	}
}
