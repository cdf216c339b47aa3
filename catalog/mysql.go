package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB-backed Store, for deployments that already
// run a shared database for operator tooling and want one place to query
// every TaskContext's attribute/event catalogs across a fleet.
//
// The DSN format follows github.com/go-sql-driver/mysql, e.g.
// "user:pass@tcp(127.0.0.1:3306)/taskcore?parseTime=true".
type MySQLStore struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewMySQLStore opens a MySQL-backed catalog store and ensures its schema
// exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open mysql: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attributes (
			name VARCHAR(255) PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_events_created_at (created_at)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("catalog: create schema: %w", err)
		}
	}
	return nil
}

// SetAttribute creates or overwrites a named attribute.
func (s *MySQLStore) SetAttribute(ctx context.Context, attr Attribute) error {
	data, err := json.Marshal(attr.Value)
	if err != nil {
		return fmt.Errorf("catalog: marshal attribute %q: %w", attr.Name, err)
	}
	if attr.UpdatedAt.IsZero() {
		attr.UpdatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attributes (name, value, updated_at) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)`,
		attr.Name, string(data), attr.UpdatedAt)
	return err
}

// GetAttribute retrieves a named attribute.
func (s *MySQLStore) GetAttribute(ctx context.Context, name string) (Attribute, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, value, updated_at FROM attributes WHERE name = ?`, name)
	return scanMySQLAttribute(row)
}

// ListAttributes returns all attributes ordered by name.
func (s *MySQLStore) ListAttributes(ctx context.Context) ([]Attribute, error) {
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
func (s *MySQLStore) AppendEvent(ctx context.Context, name string, payload interface{}) (string, error) {
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
func (s *MySQLStore) ListEvents(ctx context.Context, limit int) ([]EventRecord, error) {
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

// Close closes the underlying connection pool. Safe to call more than
// once.
func (s *MySQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func scanMySQLAttribute(row *sql.Row) (Attribute, error) {
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
