// Package taskcontext implements the named peer node that hosts an
// execution engine and exposes read-mostly catalogs (commands, methods,
// data sources, attributes, events) to other task contexts.
package taskcontext

import (
	"errors"
	"sync"

	"github.com/ctrlstack/taskcore/engine"
	"github.com/ctrlstack/taskcore/processor"
)

// Errors returned by peer-graph operations. All are precondition
// rejections, never raised as named failures — matching the Processor's
// control-plane convention of reporting failure through return values.
var (
	ErrPeerAlreadyKnown = errors.New("taskcontext: peer alias already known")
	ErrPeerUnknown      = errors.New("taskcontext: peer not known")
	ErrAlreadyConnected = errors.New("taskcontext: peers already connected")
	ErrNotConnected     = errors.New("taskcontext: peers not connected")
)

// TaskContext is a named node exposing operations to peers and hosting an
// execution engine.
//
// Peer references are non-owning back-links: a TaskContext never destroys
// its peers, and cycles (A knows B knows A) are permitted. Higher-level
// supervision is expected to disconnect peers before a TaskContext is
// discarded; this package does not track destruction.
type TaskContext struct {
	mu    sync.RWMutex
	name  string
	eng   *engine.Engine
	peers map[string]*TaskContext

	commands CommandFactory
	methods  MethodFactory
	data     DataSourceFactory
	attrs    AttributeFactory
	events   EventService
}

// New creates a TaskContext named name, bound to eng (which may be private
// to this context or shared with others). Factory catalogs default to
// empty in-memory implementations; override with the With* options.
func New(name string, eng *engine.Engine, opts ...Option) *TaskContext {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	tc := &TaskContext{
		name:     name,
		eng:      eng,
		peers:    make(map[string]*TaskContext),
		commands: cfg.commands,
		methods:  cfg.methods,
		data:     cfg.data,
		attrs:    cfg.attrs,
		events:   cfg.events,
	}
	return tc
}

// Name returns the task context's current name.
func (tc *TaskContext) Name() string {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.name
}

// SetName renames the task context. It does not update any peer's view of
// the alias it was added under.
func (tc *TaskContext) SetName(name string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.name = name
}

// Engine returns the underlying execution engine.
func (tc *TaskContext) Engine() *engine.Engine { return tc.eng }

// AddPeer inserts peer into the local peer map under alias, or under
// peer.Name() if alias is empty. It fails if the alias is already present;
// this is a one-way link — peer's own map is untouched.
func (tc *TaskContext) AddPeer(peer *TaskContext, alias string) error {
	if alias == "" {
		alias = peer.Name()
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if _, exists := tc.peers[alias]; exists {
		return ErrPeerAlreadyKnown
	}
	tc.peers[alias] = peer
	return nil
}

// RemovePeer removes the named alias from the local peer map, symmetric
// with AddPeer (one-way; the peer's own map is untouched).
func (tc *TaskContext) RemovePeer(name string) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if _, exists := tc.peers[name]; !exists {
		return ErrPeerUnknown
	}
	delete(tc.peers, name)
	return nil
}

// ConnectPeers performs an atomic two-way AddPeer under each side's default
// name (peer.Name() on tc's map, tc.Name() on peer's map). It succeeds only
// if neither side already knows the other under that name; a mismatch on
// either side leaves both maps unchanged.
func (tc *TaskContext) ConnectPeers(peer *TaskContext) error {
	first, second := tc, peer
	if lockOrder(tc, peer) {
		first, second = peer, tc
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	if first != second {
		second.mu.Lock()
		defer second.mu.Unlock()
	}

	if _, exists := tc.peers[peer.name]; exists {
		return ErrAlreadyConnected
	}
	if _, exists := peer.peers[tc.name]; exists {
		return ErrAlreadyConnected
	}
	tc.peers[peer.name] = peer
	peer.peers[tc.name] = tc
	return nil
}

// DisconnectPeers performs an atomic two-way removal, succeeding only if
// both sides currently know each other under name. On success, it restores
// both maps to their state before the corresponding ConnectPeers.
func (tc *TaskContext) DisconnectPeers(name string) error {
	tc.mu.RLock()
	peer, ok := tc.peers[name]
	tc.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}

	first, second := tc, peer
	if lockOrder(tc, peer) {
		first, second = peer, tc
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	if first != second {
		second.mu.Lock()
		defer second.mu.Unlock()
	}

	if _, exists := tc.peers[peer.name]; !exists {
		return ErrNotConnected
	}
	if _, exists := peer.peers[tc.name]; !exists {
		return ErrNotConnected
	}
	delete(tc.peers, peer.name)
	delete(peer.peers, tc.name)
	return nil
}

// lockOrder returns true if b must be locked before a to establish a
// consistent global lock ordering between two TaskContexts, preventing
// deadlock when two goroutines connect/disconnect the same pair from
// opposite directions.
func lockOrder(a, b *TaskContext) bool {
	return a.name > b.name
}

// GetPeerList enumerates known peer aliases. Order is unspecified.
func (tc *TaskContext) GetPeerList() []string {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	names := make([]string, 0, len(tc.peers))
	for alias := range tc.peers {
		names = append(names, alias)
	}
	return names
}

// HasPeer reports whether alias is known.
func (tc *TaskContext) HasPeer(alias string) bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	_, ok := tc.peers[alias]
	return ok
}

// GetPeer looks up a peer by alias.
func (tc *TaskContext) GetPeer(alias string) (*TaskContext, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	peer, ok := tc.peers[alias]
	return peer, ok
}

// ExecuteCommand submits c to this context's engine and reports whether it
// was accepted. The engine may reject commands when its underlying
// activity is not running.
func (tc *TaskContext) ExecuteCommand(c processor.Command) bool {
	return tc.eng.QueueCommand(c) != 0
}

// QueueCommand submits c to this context's engine, returning a non-zero id
// if accepted, zero otherwise.
func (tc *TaskContext) QueueCommand(c processor.Command) uint64 {
	return tc.eng.QueueCommand(c)
}

// Commands returns the read-mostly command factory catalog.
func (tc *TaskContext) Commands() CommandFactory { return tc.commands }

// Methods returns the read-mostly method factory catalog.
func (tc *TaskContext) Methods() MethodFactory { return tc.methods }

// Data returns the read-mostly data source factory catalog.
func (tc *TaskContext) Data() DataSourceFactory { return tc.data }

// Attributes returns the attribute catalog.
func (tc *TaskContext) Attributes() AttributeFactory { return tc.attrs }

// Events returns the event catalog.
func (tc *TaskContext) Events() EventService { return tc.events }
