// Package store persists raw geocoding responses in SQLite, keyed by the
// exact query string sent to the service. Identical queries are never
// re-sent, even across cache rebuilds.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// ResponseCache is a durable key→body cache backed by modernc.org/sqlite.
type ResponseCache struct {
	db *sql.DB
}

// OpenResponseCache opens (or creates) the cache database at path and
// configures WAL mode.
func OpenResponseCache(path string) (*ResponseCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	s := &ResponseCache{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS geocode_responses (
	query      TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *ResponseCache) migrate() error {
	_, err := s.db.Exec(migration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the underlying database.
func (s *ResponseCache) Close() error {
	return s.db.Close()
}

// Get returns the cached body for the query, or nil when absent.
func (s *ResponseCache) Get(ctx context.Context, query string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM geocode_responses WHERE query = ?`, query,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get response")
	}
	return body, nil
}

// Put stores the body for the query, replacing any previous entry.
func (s *ResponseCache) Put(ctx context.Context, query string, body []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_responses (query, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT (query) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		query, body, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: put response")
}
