// Package history keeps a log of completed timer runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Record is one completed run.
type Record struct {
	ID         string
	Name       string
	Duration   time.Duration // time counted down, short of the preset when finished early
	StartedAt  time.Time
	FinishedAt time.Time
}

// DB is the history database.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and applies
// pending migrations.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &DB{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Save stores rec, assigning it an id if it has none.
func (d *DB) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := d.db.ExecContext(ctx, `
        INSERT INTO sessions (id, name, duration_ms, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?)
    `, rec.ID, rec.Name, rec.Duration.Milliseconds(), rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT id, name, duration_ms, started_at, finished_at
        FROM sessions
        ORDER BY finished_at DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec                         Record
			durationMs, started, finish int64
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &durationMs, &started, &finish); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.StartedAt = time.UnixMilli(started)
		rec.FinishedAt = time.UnixMilli(finish)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Totals summarises all records finished at or after since.
type Totals struct {
	Sessions int
	Duration time.Duration
}

// TotalsSince counts completed runs finished at or after since.
func (d *DB) TotalsSince(ctx context.Context, since time.Time) (Totals, error) {
	var (
		t  Totals
		ms int64
	)
	err := d.db.QueryRowContext(ctx, `
        SELECT COUNT(*), COALESCE(SUM(duration_ms), 0)
        FROM sessions
        WHERE finished_at >= ?
    `, since.UnixMilli()).Scan(&t.Sessions, &ms)
	if err != nil {
		return Totals{}, err
	}
	t.Duration = time.Duration(ms) * time.Millisecond
	return t, nil
}
