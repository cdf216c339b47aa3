// Package catalog provides read-mostly persistence backends for a
// TaskContext's attribute and event repositories.
//
// This is explicitly not program-state persistence: ProgramInfo, StateInfo,
// and the command mailbox are never stored here and never survive process
// restart. A Store only backs the read-only catalogs a peer TaskContext is
// allowed to query: named attribute values and an append-only event log.
package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested attribute or event id does not
// exist.
var ErrNotFound = errors.New("catalog: not found")

// Attribute is a single named, typed, read-only value exposed to peers
// through TaskContext.attributes().
type Attribute struct {
	Name      string
	Value     interface{}
	UpdatedAt time.Time
}

// EventRecord is a single entry in a TaskContext's append-only event log,
// exposed through TaskContext.events().
type EventRecord struct {
	ID        string
	Name      string
	Payload   interface{}
	CreatedAt time.Time
}

// Store persists and serves the attribute and event catalogs of one
// TaskContext.
//
// Implementations must be safe to query concurrently with the owning
// engine's step(): lookups may run on a peer's goroutine while the owning
// task is mid-tick. Mutation is expected only before the engine starts or
// from within its own step, so Store does not need to serialize writers
// against each other beyond what the underlying backend already
// guarantees.
type Store interface {
	// SetAttribute creates or overwrites a named attribute.
	SetAttribute(ctx context.Context, attr Attribute) error

	// GetAttribute retrieves a named attribute. Returns ErrNotFound if it
	// does not exist.
	GetAttribute(ctx context.Context, name string) (Attribute, error)

	// ListAttributes returns all attributes, in no particular order.
	ListAttributes(ctx context.Context) ([]Attribute, error)

	// AppendEvent appends an event to the log and returns its assigned id.
	AppendEvent(ctx context.Context, name string, payload interface{}) (string, error)

	// ListEvents returns up to limit most recent events, newest first. A
	// limit of 0 means no limit.
	ListEvents(ctx context.Context, limit int) ([]EventRecord, error)

	// Close releases any resources held by the store.
	Close() error
}
