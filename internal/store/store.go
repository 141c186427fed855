// Package store persists fetched conference feeds in a local SQLite database
// so the service can keep serving the last good dataset when every remote
// source is down.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrEmpty is returned by Latest when no snapshot has been saved yet.
var ErrEmpty = errors.New("no snapshots stored")

// Snapshot is one saved copy of the feed.
type Snapshot struct {
	ID          string
	FetchedAt   time.Time
	Source      string
	LastUpdated string
	Body        []byte
}

// Store wraps the SQLite snapshot database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    fetched_at TIMESTAMP NOT NULL,
    source TEXT NOT NULL,
    last_updated TEXT NOT NULL,
    body BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots(fetched_at);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save records a fetched feed body and returns the snapshot id.
func (s *Store) Save(source, lastUpdated string, body []byte) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO snapshots (id, fetched_at, source, last_updated, body) VALUES (?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), source, lastUpdated, body,
	)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return id, nil
}

// Latest returns the most recently fetched snapshot.
func (s *Store) Latest() (*Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT id, fetched_at, source, last_updated, body
		 FROM snapshots ORDER BY fetched_at DESC LIMIT 1`,
	)

	var snap Snapshot
	err := row.Scan(&snap.ID, &snap.FetchedAt, &snap.Source, &snap.LastUpdated, &snap.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	return &snap, nil
}

// Prune deletes all but the newest keep snapshots and reports how many rows
// were removed.
func (s *Store) Prune(keep int) (int, error) {
	res, err := s.db.Exec(
		`DELETE FROM snapshots WHERE id NOT IN (
		    SELECT id FROM snapshots ORDER BY fetched_at DESC LIMIT ?
		 )`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
