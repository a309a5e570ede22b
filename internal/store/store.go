// Package store persists the imported event set in SQLite. It is the
// service-side stand-in for the dashboard's local-storage persistence:
// one flat record set, replaced wholesale on every import.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"unicorn/internal/model"
)

// EventRecord is the storage row of a calendar event. The row id exists
// only for storage; it carries no cross-import identity.
type EventRecord struct {
	bun.BaseModel `bun:"table:events"`

	ID      string `bun:"id,pk"`
	Summary string `bun:"summary,notnull"`
	// StartUTC/EndUTC are unix seconds; Floating records whether the
	// original token was a floating local time (no trailing Z).
	StartUTC int64 `bun:"start_utc,notnull"`
	EndUTC   int64 `bun:"end_utc,notnull"`
	Floating bool  `bun:"floating,notnull"`
}

// Store wraps the bun database handle.
type Store struct {
	db *bun.DB
}

// Open opens (or creates) the SQLite database at path and ensures the
// schema exists. Use ":memory:" for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("store.Open: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*EventRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("store.Open: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Replace swaps the whole event set for the given one atomically:
// delete-all plus bulk insert inside a single transaction, so a reader
// never observes a partial import. No merge, no dedup.
func (s *Store) Replace(ctx context.Context, events []model.CalendarEvent) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*EventRecord)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return fmt.Errorf("store.Replace: delete: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		records := make([]EventRecord, 0, len(events))
		for _, ev := range events {
			records = append(records, EventRecord{
				ID:       uuid.NewString(),
				Summary:  ev.Summary,
				StartUTC: ev.Start.Unix(),
				EndUTC:   ev.End.Unix(),
				Floating: ev.Start.Location() != time.UTC,
			})
		}
		if _, err := tx.NewInsert().
			Model(&records).
			Exec(ctx); err != nil {
			return fmt.Errorf("store.Replace: insert: %w", err)
		}
		return nil
	})
}

// All returns the current event set, sorted ascending by start. Floating
// rows come back in the local calendar, UTC rows in UTC.
func (s *Store) All(ctx context.Context) ([]model.CalendarEvent, error) {
	var records []EventRecord
	if err := s.db.NewSelect().
		Model(&records).
		Order("start_utc ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("store.All: %w", err)
	}

	events := make([]model.CalendarEvent, 0, len(records))
	for _, r := range records {
		loc := time.UTC
		if r.Floating {
			loc = time.Local
		}
		events = append(events, model.CalendarEvent{
			Summary: r.Summary,
			Start:   time.Unix(r.StartUTC, 0).In(loc),
			End:     time.Unix(r.EndUTC, 0).In(loc),
		})
	}
	return events, nil
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().
		Model((*EventRecord)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("store.Count: %w", err)
	}
	return n, nil
}
