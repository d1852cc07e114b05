// Package audit persists a trail of operator logging mutations. The
// policy collection itself is never persisted; this records only who
// toggled what and how the gateway answered.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Event represents a single audit log entry.
type Event struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Resource  string         `json:"resource"`
	Details   map[string]any `json:"details,omitempty"`
	Outcome   string         `json:"outcome"`
}

// Store provides persistent storage for audit events.
type Store struct {
	mu            sync.RWMutex
	db            *sql.DB
	retentionDays int
}

// NewStore creates a new audit store at the given path.
func NewStore(dbPath string, retentionDays int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			resource TEXT NOT NULL,
			details TEXT,
			outcome TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit table: %w", err)
	}

	s := &Store{db: db, retentionDays: retentionDays}
	if err := s.prune(); err != nil {
		// Retention pruning is best effort; an old row never blocks a
		// new one.
		fmt.Fprintf(os.Stderr, "audit: prune failed: %v\n", err)
	}
	return s, nil
}

// Record appends an audit event.
func (s *Store) Record(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var details []byte
	if e.Details != nil {
		var err error
		details, err = json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO audit_events (timestamp, actor, action, resource, details, outcome) VALUES (?, ?, ?, ?, ?, ?)`,
		ts, e.Actor, e.Action, e.Resource, string(details), e.Outcome,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// List returns the most recent events, newest first.
func (s *Store) List(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, timestamp, actor, action, resource, details, outcome
		 FROM audit_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Actor, &e.Action, &e.Resource, &details, &e.Outcome); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				e.Details = map[string]any{"raw": details.String}
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// prune deletes events older than the retention window.
func (s *Store) prune() error {
	if s.retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	_, err := s.db.Exec(`DELETE FROM audit_events WHERE timestamp < ?`, cutoff)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
