// Package store keeps the last successfully fetched booking snapshot
// per room+date in a local sqlite file. When an upstream fetch fails the
// calendar can fall back to the stale snapshot instead of going blank;
// the staleness is always surfaced alongside the data.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"meetroom/internal/model"
)

// ErrNoSnapshot is returned when no snapshot exists for a room+date.
var ErrNoSnapshot = fmt.Errorf("no snapshot")

// Snapshot scopes. A day snapshot holds the bookings of one date; a
// month snapshot, keyed by the first of the month, holds the whole
// month. The two must never answer for each other: a month's bookings
// served as day 1 would be wrong availability, not stale availability.
const (
	ScopeDay   = "day"
	ScopeMonth = "month"
)

// Snapshot is a cached booking set with its fetch timestamp.
type Snapshot struct {
	Scope     string
	RoomID    string
	Date      model.Date
	Bookings  []model.BookingInterval
	FetchedAt time.Time
}

// Age returns how stale the snapshot is relative to now.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// DB wraps sql.DB for the snapshot cache.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and creates the schema.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS booking_snapshots (
		scope TEXT NOT NULL,
		room_id TEXT NOT NULL,
		date TEXT NOT NULL,
		bookings TEXT NOT NULL,
		fetched_at DATETIME NOT NULL,
		PRIMARY KEY (scope, room_id, date)
	)`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// SaveSnapshot replaces the snapshot for a scope+room+date. The whole
// booking set is stored as one document; snapshots are replaced, never
// patched.
func (db *DB) SaveSnapshot(ctx context.Context, scope, roomID string, date model.Date, bookings []model.BookingInterval) error {
	data, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("encode bookings: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO booking_snapshots (scope, room_id, date, bookings, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(scope, room_id, date) DO UPDATE SET
			bookings = excluded.bookings,
			fetched_at = excluded.fetched_at`,
		scope, roomID, date.String(), string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the stored snapshot for a scope+room+date, or
// ErrNoSnapshot when none was ever saved under that scope.
func (db *DB) GetSnapshot(ctx context.Context, scope, roomID string, date model.Date) (*Snapshot, error) {
	var data string
	var fetchedAt time.Time
	err := db.QueryRowContext(ctx, `
		SELECT bookings, fetched_at FROM booking_snapshots
		WHERE scope = ? AND room_id = ? AND date = ?`,
		scope, roomID, date.String(),
	).Scan(&data, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var bookings []model.BookingInterval
	if err := json.Unmarshal([]byte(data), &bookings); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &Snapshot{
		Scope:     scope,
		RoomID:    roomID,
		Date:      date,
		Bookings:  bookings,
		FetchedAt: fetchedAt,
	}, nil
}

// Cleanup deletes snapshots older than retention. Returns the number of
// rows removed.
func (db *DB) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx,
		"DELETE FROM booking_snapshots WHERE fetched_at < ?",
		time.Now().UTC().Add(-retention),
	)
	if err != nil {
		return 0, fmt.Errorf("cleanup snapshots: %w", err)
	}
	return res.RowsAffected()
}
