package taskcontext

import (
	"context"
	"errors"
	"sync"

	"github.com/ctrlstack/taskcore/catalog"
	"github.com/ctrlstack/taskcore/processor"
)

// ErrUnknownEntry is returned by a factory lookup for a name it does not
// carry.
var ErrUnknownEntry = errors.New("taskcontext: unknown entry")

// CommandFactory is a read-mostly catalog of named processor.Command
// constructors exposed to peers. The core treats it as opaque: mutation is
// expected only before the owning engine is started or from within its own
// step.
type CommandFactory interface {
	Names() []string
	Create(name string) (processor.Command, error)
}

// MethodFactory is a read-mostly catalog of named, synchronously callable
// operations exposed to peers.
type MethodFactory interface {
	Names() []string
	Invoke(name string, args ...interface{}) (interface{}, error)
}

// DataSourceFactory is a read-mostly catalog of named data readers exposed
// to peers (the analog of a read-only property or sensor feed).
type DataSourceFactory interface {
	Names() []string
	Read(name string) (interface{}, error)
}

// AttributeFactory exposes the attribute catalog backing a TaskContext's
// attributes() accessor. Lookups are safe to call concurrently with the
// owning engine's Step.
type AttributeFactory interface {
	Names(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) (catalog.Attribute, error)
	Set(ctx context.Context, name string, value interface{}) error
}

// EventService exposes the event catalog backing a TaskContext's events()
// accessor.
type EventService interface {
	Append(ctx context.Context, name string, payload interface{}) (catalog.EventRecord, error)
	List(ctx context.Context, limit int) ([]catalog.EventRecord, error)
}

// --- simple in-memory implementations ---

// MemCommandFactory is an in-memory CommandFactory backed by a constructor
// map, the obvious default when commands are registered by the same
// process that builds the TaskContext.
type MemCommandFactory struct {
	mu    sync.RWMutex
	ctors map[string]func() processor.Command
}

// NewMemCommandFactory returns an empty MemCommandFactory.
func NewMemCommandFactory() *MemCommandFactory {
	return &MemCommandFactory{ctors: make(map[string]func() processor.Command)}
}

// Register adds a named constructor. A second Register under the same name
// overwrites the first.
func (f *MemCommandFactory) Register(name string, ctor func() processor.Command) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctors[name] = ctor
}

func (f *MemCommandFactory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.ctors))
	for name := range f.ctors {
		names = append(names, name)
	}
	return names
}

func (f *MemCommandFactory) Create(name string) (processor.Command, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ctor, ok := f.ctors[name]
	if !ok {
		return nil, ErrUnknownEntry
	}
	return ctor(), nil
}

// MemMethodFactory is an in-memory MethodFactory backed by a function map.
type MemMethodFactory struct {
	mu      sync.RWMutex
	methods map[string]func(args ...interface{}) (interface{}, error)
}

// NewMemMethodFactory returns an empty MemMethodFactory.
func NewMemMethodFactory() *MemMethodFactory {
	return &MemMethodFactory{methods: make(map[string]func(args ...interface{}) (interface{}, error))}
}

// Register adds a named method implementation.
func (f *MemMethodFactory) Register(name string, fn func(args ...interface{}) (interface{}, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods[name] = fn
}

func (f *MemMethodFactory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.methods))
	for name := range f.methods {
		names = append(names, name)
	}
	return names
}

func (f *MemMethodFactory) Invoke(name string, args ...interface{}) (interface{}, error) {
	f.mu.RLock()
	fn, ok := f.methods[name]
	f.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownEntry
	}
	return fn(args...)
}

// MemDataSourceFactory is an in-memory DataSourceFactory backed by reader
// funcs, for data sources computed on read (e.g., wrapping a sensor
// driver) rather than a static value.
type MemDataSourceFactory struct {
	mu      sync.RWMutex
	readers map[string]func() (interface{}, error)
}

// NewMemDataSourceFactory returns an empty MemDataSourceFactory.
func NewMemDataSourceFactory() *MemDataSourceFactory {
	return &MemDataSourceFactory{readers: make(map[string]func() (interface{}, error))}
}

// Register adds a named reader.
func (f *MemDataSourceFactory) Register(name string, reader func() (interface{}, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readers[name] = reader
}

func (f *MemDataSourceFactory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.readers))
	for name := range f.readers {
		names = append(names, name)
	}
	return names
}

func (f *MemDataSourceFactory) Read(name string) (interface{}, error) {
	f.mu.RLock()
	reader, ok := f.readers[name]
	f.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownEntry
	}
	return reader()
}

// CatalogAttributes adapts a catalog.Store into an AttributeFactory.
type CatalogAttributes struct {
	store catalog.Store
}

// NewCatalogAttributes wraps store as an AttributeFactory.
func NewCatalogAttributes(store catalog.Store) *CatalogAttributes {
	return &CatalogAttributes{store: store}
}

func (a *CatalogAttributes) Names(ctx context.Context) ([]string, error) {
	attrs, err := a.store.ListAttributes(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(attrs))
	for i, attr := range attrs {
		names[i] = attr.Name
	}
	return names, nil
}

func (a *CatalogAttributes) Get(ctx context.Context, name string) (catalog.Attribute, error) {
	return a.store.GetAttribute(ctx, name)
}

func (a *CatalogAttributes) Set(ctx context.Context, name string, value interface{}) error {
	return a.store.SetAttribute(ctx, catalog.Attribute{Name: name, Value: value})
}

// CatalogEvents adapts a catalog.Store into an EventService.
type CatalogEvents struct {
	store catalog.Store
}

// NewCatalogEvents wraps store as an EventService.
func NewCatalogEvents(store catalog.Store) *CatalogEvents {
	return &CatalogEvents{store: store}
}

func (e *CatalogEvents) Append(ctx context.Context, name string, payload interface{}) (catalog.EventRecord, error) {
	id, err := e.store.AppendEvent(ctx, name, payload)
	if err != nil {
		return catalog.EventRecord{}, err
	}
	return catalog.EventRecord{ID: id, Name: name, Payload: payload}, nil
}

func (e *CatalogEvents) List(ctx context.Context, limit int) ([]catalog.EventRecord, error) {
	return e.store.ListEvents(ctx, limit)
}
