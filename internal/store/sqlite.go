package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS seen_postings (
	watch      TEXT    NOT NULL,
	job_key    TEXT    NOT NULL,
	first_seen INTEGER NOT NULL,
	PRIMARY KEY (watch, job_key)
)`

// SQLiteStore records which dedup keys each watch has reported.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// seen_postings table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer at a time; the scheduler and a manual check may overlap.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating seen_postings table: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// HasSeen reports whether watch has already recorded key.
func (s *SQLiteStore) HasSeen(watch, key string) (bool, error) {
	var exists int
	err := s.db.QueryRow(
		"SELECT 1 FROM seen_postings WHERE watch = ? AND job_key = ?", watch, key,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking seen status for %s/%s: %w", watch, key, err)
	}
	return true, nil
}

// MarkSeen records key for watch. Recording a key twice keeps the first
// timestamp.
func (s *SQLiteStore) MarkSeen(watch, key string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO seen_postings (watch, job_key, first_seen) VALUES (?, ?, ?)",
		watch, key, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("marking %s/%s as seen: %w", watch, key, err)
	}
	return nil
}

// Cleanup deletes entries first seen longer ago than olderThan.
func (s *SQLiteStore) Cleanup(olderThan time.Duration) error {
	cutoff := s.now().Add(-olderThan).Unix()
	if _, err := s.db.Exec("DELETE FROM seen_postings WHERE first_seen < ?", cutoff); err != nil {
		return fmt.Errorf("cleaning up seen postings older than %v: %w", olderThan, err)
	}
	return nil
}

// IsEmpty reports whether watch has never recorded anything.
func (s *SQLiteStore) IsEmpty(watch string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM seen_postings WHERE watch = ?", watch).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking if %s is empty: %w", watch, err)
	}
	return count == 0, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
