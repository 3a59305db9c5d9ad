// Package history persists build reports to SQLite so serve mode and the
// CLI can show what previous builds did.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// Store is a SQLite-backed build report log.
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Entry is one persisted build record.
type Entry struct {
	BuildID  string
	Finished time.Time
	Outcome  site.BuildOutcome
	Report   *site.Report
}

// Open opens (and if needed initializes) the store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		finished INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		report BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_finished ON builds(finished);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records a finished build.
func (s *Store) Append(ctx context.Context, report *site.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, finished, outcome, report) VALUES (?, ?, ?, ?)`,
		report.BuildID, report.End.Unix(), string(report.Outcome), payload)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// Recent returns up to limit builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, finished, outcome, report FROM builds ORDER BY finished DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			finished int64
			outcome  string
			payload  []byte
		)
		if err := rows.Scan(&e.BuildID, &finished, &outcome, &payload); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		e.Finished = time.Unix(finished, 0).UTC()
		e.Outcome = site.BuildOutcome(outcome)

		var report site.Report
		if err := json.Unmarshal(payload, &report); err == nil {
			e.Report = &report
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
