package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed Store, for attribute/event catalogs that
// should outlive a single process (e.g. an operator dashboard querying a
// task's event history after it restarted). Uses the pure-Go
// modernc.org/sqlite driver, so no cgo toolchain is required.
//
// Schema:
//   - attributes: name -> JSON value, one row per attribute.
//   - events: append-only event log.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewSQLiteStore opens (creating if necessary) a SQLite-backed catalog
// store at path. Use ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: set busy_timeout: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attributes (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("catalog: create schema: %w", err)
		}
	}
	return nil
}

// SetAttribute creates or overwrites a named attribute.
func (s *SQLiteStore) SetAttribute(ctx context.Context, attr Attribute) error {
	data, err := json.Marshal(attr.Value)
	if err != nil {
		return fmt.Errorf("catalog: marshal attribute %q: %w", attr.Name, err)
	}
	if attr.UpdatedAt.IsZero() {
		attr.UpdatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attributes (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		attr.Name, string(data), attr.UpdatedAt)
	return err
}

// GetAttribute retrieves a named attribute.
func (s *SQLiteStore) GetAttribute(ctx context.Context, name string) (Attribute, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, value, updated_at FROM attributes WHERE name = ?`, name)
	return scanAttribute(row)
}

// ListAttributes returns all attributes ordered by name.
func (s *SQLiteStore) ListAttributes(ctx context.Context) ([]Attribute, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value, updated_at FROM attributes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Attribute
	for rows.Next() {
		var (
			name, value string
			updatedAt   time.Time
		)
		if err := rows.Scan(&name, &value, &updatedAt); err != nil {
			return nil, err
		}
		var v interface{}
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			return nil, fmt.Errorf("catalog: unmarshal attribute %q: %w", name, err)
		}
		result = append(result, Attribute{Name: name, Value: v, UpdatedAt: updatedAt})
	}
	return result, rows.Err()
}

// AppendEvent appends an event to the log.
func (s *SQLiteStore) AppendEvent(ctx context.Context, name string, payload interface{}) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("catalog: marshal event payload: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, name, payload, created_at) VALUES (?, ?, ?, ?)`,
		id, name, string(data), time.Now())
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListEvents returns up to limit most recent events, newest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, limit int) ([]EventRecord, error) {
	query := `SELECT id, name, payload, created_at FROM events ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EventRecord
	for rows.Next() {
		var (
			id, name, payload string
			createdAt         time.Time
		)
		if err := rows.Scan(&id, &name, &payload, &createdAt); err != nil {
			return nil, err
		}
		var v interface{}
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return nil, fmt.Errorf("catalog: unmarshal event %q payload: %w", id, err)
		}
		result = append(result, EventRecord{ID: id, Name: name, Payload: v, CreatedAt: createdAt})
	}
	return result, rows.Err()
}

// Close closes the underlying database handle. Safe to call more than
// once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func scanAttribute(row *sql.Row) (Attribute, error) {
	var (
		name, value string
		updatedAt   time.Time
	)
	if err := row.Scan(&name, &value, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Attribute{}, ErrNotFound
		}
		return Attribute{}, err
	}
	var v interface{}
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return Attribute{}, fmt.Errorf("catalog: unmarshal attribute %q: %w", name, err)
	}
	return Attribute{Name: name, Value: v, UpdatedAt: updatedAt}, nil
}
