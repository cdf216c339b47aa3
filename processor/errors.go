package processor

import "errors"

// Sentinel errors returned by Processor precondition checks. Callers
// compare with errors.Is.
var (
	// ErrDuplicateName is returned when loading a state machine whose
	// subtree repeats a name or uses a name already loaded in the
	// Processor. LoadProgram reports a duplicate by returning false.
	ErrDuplicateName = errors.New("processor: duplicate name")

	// ErrNotFound is returned by unloadStateMachine/deleteStateMachine for
	// a name that is not currently loaded. Program operations report an
	// unknown name by returning false.
	ErrNotFound = errors.New("processor: not found")

	// ErrNotRoot is returned when loadStateMachine, unloadStateMachine or
	// deleteStateMachine is called on a node that is not a tree root.
	ErrNotRoot = errors.New("processor: not a root state machine")

	// ErrSubtreeNotInactive is returned when unload or delete is
	// attempted on a state machine subtree that has a node outside
	// StateInactive.
	ErrSubtreeNotInactive = errors.New("processor: subtree is not fully inactive")

	// ErrChildNotLoaded is returned when unloadStateMachine or
	// deleteStateMachine finds a node of the root's subtree that is not
	// loaded into this Processor.
	ErrChildNotLoaded = errors.New("processor: child state machine not loaded in this processor")

	// ErrStillRunning describes an entry that is running or stepping. No
	// Processor operation returns it: DeleteProgram and ResetProgram
	// report that condition by returning false.
	ErrStillRunning = errors.New("processor: still running or stepping")

	// ErrMailboxFull is returned by queueCommand when the single-slot
	// mailbox already holds an unconsumed command.
	ErrMailboxFull = errors.New("processor: command mailbox full")
)

// LoadFailure reports why loadStateMachine was rejected.
// The zero value is not meaningful; construct via newLoadFailure.
type LoadFailure struct {
	Name string
	Op   string
	Err  error
}

func newLoadFailure(op, name string, err error) *LoadFailure {
	return &LoadFailure{Name: name, Op: op, Err: err}
}

func (f *LoadFailure) Error() string {
	return "processor: " + f.Op + " " + f.Name + ": " + f.Err.Error()
}

func (f *LoadFailure) Unwrap() error { return f.Err }

// UnloadFailure reports why unloadStateMachine or deleteStateMachine was
// rejected.
type UnloadFailure struct {
	Name string
	Op   string
	Err  error
}

func newUnloadFailure(op, name string, err error) *UnloadFailure {
	return &UnloadFailure{Name: name, Op: op, Err: err}
}

func (f *UnloadFailure) Error() string {
	return "processor: " + f.Op + " " + f.Name + ": " + f.Err.Error()
}

func (f *UnloadFailure) Unwrap() error { return f.Err }
