package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store, the default backing for
// TaskContext.attributes() and TaskContext.events(). Nothing it holds
// survives process exit; that's fine here since attribute/event catalogs
// are observability surfaces, not execution state, and carry no program or
// state-machine persistence requirement.
type MemoryStore struct {
	mu         sync.RWMutex
	attributes map[string]Attribute
	events     []EventRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{attributes: make(map[string]Attribute)}
}

// SetAttribute creates or overwrites a named attribute.
func (m *MemoryStore) SetAttribute(_ context.Context, attr Attribute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if attr.UpdatedAt.IsZero() {
		attr.UpdatedAt = time.Now()
	}
	m.attributes[attr.Name] = attr
	return nil
}

// GetAttribute retrieves a named attribute.
func (m *MemoryStore) GetAttribute(_ context.Context, name string) (Attribute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	attr, ok := m.attributes[name]
	if !ok {
		return Attribute{}, ErrNotFound
	}
	return attr, nil
}

// ListAttributes returns all attributes sorted by name for deterministic
// iteration.
func (m *MemoryStore) ListAttributes(_ context.Context) ([]Attribute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Attribute, 0, len(m.attributes))
	for _, attr := range m.attributes {
		result = append(result, attr)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// AppendEvent appends an event, assigning it a new uuid.
func (m *MemoryStore) AppendEvent(_ context.Context, name string, payload interface{}) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.events = append(m.events, EventRecord{
		ID:        id,
		Name:      name,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
	return id, nil
}

// ListEvents returns up to limit most recent events, newest first.
func (m *MemoryStore) ListEvents(_ context.Context, limit int) ([]EventRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.events)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]EventRecord, n)
	for i := 0; i < n; i++ {
		result[i] = m.events[len(m.events)-1-i]
	}
	return result, nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error { return nil }
