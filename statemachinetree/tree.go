// Package statemachinetree provides a small, hierarchical state machine
// implementation of processor.StateMachineTree, suitable for tests, demos,
// and any caller that doesn't already have its own generated state
// machine. The processor package itself never imports this package — state
// machines are always external collaborators handed to a Processor through
// the StateMachineTree interface.
package statemachinetree

import (
	"sync"

	"github.com/ctrlstack/taskcore/processor"
)

// Edge is a guarded transition from one named state to another. When nil,
// the edge is unconditional.
type Edge struct {
	To   string
	When func() bool
}

// Tree is a concrete, in-memory hierarchical state machine. A Tree with no
// parent is a root and the only kind loadable directly into a Processor;
// children are registered via AddChild and loaded recursively alongside
// their root.
type Tree struct {
	mu sync.Mutex

	name     string
	parent   *Tree
	children []*Tree

	edges   map[string][]Edge
	initial string
	final   string
	cur     string
}

// New creates a root Tree named name with the given initial and final
// state names. States themselves are implicit: any name referenced by
// AddEdge, initial, or final becomes part of the automaton.
func New(name, initial, final string) *Tree {
	return &Tree{
		name:    name,
		edges:   make(map[string][]Edge),
		initial: initial,
		final:   final,
	}
}

// AddChild links child under t, setting child's parent back-reference. A
// child already linked elsewhere is re-parented.
func (t *Tree) AddChild(child *Tree) {
	child.parent = t
	t.children = append(t.children, child)
}

// AddEdge registers a guarded transition from "from" to "to", evaluated in
// registration order by RequestNextState. A nil when is always satisfied.
func (t *Tree) AddEdge(from, to string, when func() bool) {
	t.edges[from] = append(t.edges[from], Edge{To: to, When: when})
}

// Activate resets the tree to its initial, not-yet-entered representation.
// CurrentState reads "" until RequestInitialState or a start-driven
// RequestNextState establishes a current state.
func (t *Tree) Activate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur = ""
}

// Deactivate clears the current state, mirroring Activate.
func (t *Tree) Deactivate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur = ""
}

// RequestInitialState enters the designated start state.
func (t *Tree) RequestInitialState() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur = t.initial
}

// RequestFinalState enters the designated end state.
func (t *Tree) RequestFinalState() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cur = t.final
}

// RequestNextState evaluates t.cur's outgoing edges in registration order
// and follows the first satisfied one, returning the resulting current
// state. If no edge is satisfied (or t.cur has none), the state is
// unchanged — the Processor reads this as fixpoint. When no current state
// has been established yet (after Activate), it enters the initial state.
func (t *Tree) RequestNextState() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cur == "" {
		t.cur = t.initial
		return t.cur
	}
	for _, edge := range t.edges[t.cur] {
		if edge.When == nil || edge.When() {
			t.cur = edge.To
			break
		}
	}
	return t.cur
}

// CurrentState observes without mutation.
func (t *Tree) CurrentState() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur
}

// GetParent returns the parent tree, or a nil processor.StateMachineTree
// (not merely a nil *Tree) if this is a root.
func (t *Tree) GetParent() processor.StateMachineTree {
	if t.parent == nil {
		return nil
	}
	return t.parent
}

// GetChildren returns the direct children of this tree node.
func (t *Tree) GetChildren() []processor.StateMachineTree {
	children := make([]processor.StateMachineTree, len(t.children))
	for i, c := range t.children {
		children[i] = c
	}
	return children
}

// GetName returns this tree node's unique name.
func (t *Tree) GetName() string { return t.name }

var _ processor.StateMachineTree = (*Tree)(nil)
