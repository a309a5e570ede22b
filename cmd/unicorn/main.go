package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"unicorn/internal/calendar"
	"unicorn/internal/capture"
	"unicorn/internal/config"
	"unicorn/internal/ics"
	applog "unicorn/internal/log"
	"unicorn/internal/metric"
	"unicorn/internal/model"
	"unicorn/internal/store"
	"unicorn/internal/web"
)

func main() {
	// Load .env first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "unicorn",
		Usage: "Personal calendar service: ICS import, month/week grids, snapshots.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "./unicorn.yaml",
				Usage: "Path to the YAML config file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			applog.Init(c.Bool("debug"))
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			importCommand(),
			snapshotCommand(),
			holidaysCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API with periodic feed refresh.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			st, err := store.Open(c.Context, cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			if n, err := st.Count(c.Context); err == nil {
				metric.StoredEvents.Set(float64(n))
				slog.Info("event store opened", "path", cfg.DatabasePath, "events", n)
			}

			// Periodic refresh of the subscribed feeds.
			cr := cron.New()
			if len(cfg.Sources) > 0 {
				if _, err := cr.AddFunc(cfg.RefreshCron, func() {
					refresh(context.Background(), cfg, st)
				}); err != nil {
					return fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshCron, err)
				}
				cr.Start()
				defer cr.Stop()
				// Warm up once at startup instead of waiting a full cycle.
				go refresh(c.Context, cfg, st)
			}

			srv := web.NewServer(cfg, st)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe(c.Context)
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				slog.Info("signal received, shutting down", "signal", sig.String())
				return nil
			case err := <-errCh:
				return err
			}
		},
	}
}

// refresh re-fetches all configured feeds and replaces the event set.
// A cycle that produces zero events leaves the stored set untouched.
func refresh(ctx context.Context, cfg *config.Config, st *store.Store) {
	sources := make([]ics.Source, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if src.URL == "" {
			continue
		}
		id := src.ID
		if id == "" {
			id = src.Name
		}
		sources = append(sources, ics.Source{ID: id, URL: src.URL})
	}
	if len(sources) == 0 {
		return
	}

	fetcher := ics.NewFetcher(filepath.Join(cfg.CacheDir, "ics"))
	results, errs := fetcher.FetchAll(ctx, sources)
	metric.FetchFailures.Add(float64(len(errs)))

	events := make([]model.CalendarEvent, 0)
	dropped := 0
	for _, res := range results {
		evs, d, err := ics.Parse(res.Body)
		dropped += d
		if err != nil {
			slog.Error("refresh: parse failed", "id", res.Source.ID, "error", err)
			continue
		}
		events = append(events, evs...)
	}
	metric.DroppedEvents.Add(float64(dropped))

	if len(events) == 0 {
		metric.Imports.WithLabelValues("empty").Inc()
		slog.Warn("refresh produced no events, keeping previous set")
		return
	}
	metric.ParsedEvents.Add(float64(len(events)))

	if err := st.Replace(ctx, events); err != nil {
		metric.Imports.WithLabelValues("error").Inc()
		slog.Error("refresh: replacing event set failed", "error", err)
		return
	}
	metric.Imports.WithLabelValues("ok").Inc()
	metric.StoredEvents.Set(float64(len(events)))
	slog.Info("refresh completed", "events", len(events), "dropped", dropped)
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import an ICS file or URL, replacing the stored event set.",
		ArgsUsage: "<file-or-url>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one file path or URL")
			}
			arg := c.Args().First()

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			var body []byte
			if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
				fetcher := ics.NewFetcher(filepath.Join(cfg.CacheDir, "ics"))
				res, err := fetcher.FetchOne(c.Context, ics.Source{ID: "import", URL: arg})
				if err != nil {
					return fmt.Errorf("fetch failed: %w", err)
				}
				body = res.Body
			} else {
				body, err = os.ReadFile(arg)
				if err != nil {
					return fmt.Errorf("read failed: %w", err)
				}
			}

			events, dropped, err := ics.Parse(body)
			if err != nil {
				return fmt.Errorf("parse failed: %w", err)
			}
			if len(events) == 0 {
				return fmt.Errorf("no events in %s, stored set left untouched", arg)
			}

			st, err := store.Open(c.Context, cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Replace(c.Context, events); err != nil {
				return err
			}
			slog.Info("import completed", "events", len(events), "dropped", dropped)
			return nil
		},
	}
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Capture a PNG of the rendered calendar page.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Page to capture (defaults to the local /calendar)",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output path (defaults to <cache_dir>/snapshot.png)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			url := c.String("url")
			if url == "" {
				url = "http://" + cfg.Listen + "/calendar"
			}
			out := c.String("out")
			if out == "" {
				if err := os.MkdirAll(cfg.CacheDir, 0o700); err != nil {
					return err
				}
				out = filepath.Join(cfg.CacheDir, "snapshot.png")
			}

			start := time.Now()
			if err := capture.SnapshotPNG(c.Context, capture.Options{
				URL:        url,
				OutputPath: out,
			}); err != nil {
				return err
			}
			slog.Info("snapshot written", "path", out, "took", time.Since(start))
			return nil
		},
	}
}

func holidaysCommand() *cli.Command {
	return &cli.Command{
		Name:      "holidays",
		Usage:     "Print the holiday table for a year.",
		ArgsUsage: "[year]",
		Action: func(c *cli.Context) error {
			year := time.Now().Year()
			if c.NArg() > 0 {
				n, err := strconv.Atoi(c.Args().First())
				if err != nil {
					return fmt.Errorf("invalid year %q", c.Args().First())
				}
				year = n
			}

			table := calendar.HolidaysForYear(year)
			keys := make([]string, 0, len(table))
			for k := range table {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s  %s\n", k, table[k])
			}
			return nil
		},
	}
}
