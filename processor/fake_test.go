package processor_test

import "github.com/ctrlstack/taskcore/processor"

// fakeProgram is a minimal Program collaborator that counts Execute/Reset
// calls, for asserting doStep's run and stepping passes.
type fakeProgram struct {
	name       string
	execCount  int
	resetCount int
}

func newFakeProgram(name string) *fakeProgram {
	return &fakeProgram{name: name}
}

func (f *fakeProgram) Name() string { return f.name }
func (f *fakeProgram) Reset()       { f.resetCount++ }
func (f *fakeProgram) Execute()     { f.execCount++ }

// fakeCommand counts Execute calls and never fails.
type fakeCommand struct {
	execCount int
}

func (f *fakeCommand) Execute() { f.execCount++ }

// fakeTree is a test StateMachineTree with a small linear chain of named
// states: it transitions from each state to the next in sequence once per
// RequestNextState call, stopping at the last state.
type fakeTree struct {
	name     string
	parent   processor.StateMachineTree
	children []processor.StateMachineTree
	states   []string
	cur      int

	activateCount         int
	deactivateCount       int
	requestInitialCount   int
	requestFinalCount     int
	requestNextStateCalls int
}

// newFakeTree builds a root with the given chain of state names; cur starts
// at 0 (states[0]).
func newFakeTree(name string, states []string) *fakeTree {
	return &fakeTree{name: name, states: states}
}

func (t *fakeTree) Activate()   { t.activateCount++ }
func (t *fakeTree) Deactivate() { t.deactivateCount++ }

func (t *fakeTree) RequestInitialState() {
	t.requestInitialCount++
	t.cur = 0
}

func (t *fakeTree) RequestFinalState() {
	t.requestFinalCount++
	t.cur = len(t.states) - 1
}

// RequestNextState advances to the next state in the chain once, then
// holds at the final state on subsequent calls (fixpoint).
func (t *fakeTree) RequestNextState() string {
	t.requestNextStateCalls++
	if t.cur < len(t.states)-1 {
		t.cur++
	}
	return t.states[t.cur]
}

func (t *fakeTree) CurrentState() string { return t.states[t.cur] }

func (t *fakeTree) GetParent() processor.StateMachineTree { return t.parent }

func (t *fakeTree) GetChildren() []processor.StateMachineTree { return t.children }

func (t *fakeTree) GetName() string { return t.name }

// addChild links child under t, setting child's parent back-reference.
func (t *fakeTree) addChild(child *fakeTree) {
	child.parent = t
	t.children = append(t.children, child)
}
