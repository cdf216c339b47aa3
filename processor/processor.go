// Package processor implements the real-time scheduling core: a registry
// and per-tick driver for loaded programs, hierarchical state machines, and
// a single-slot external command mailbox.
//
// A Processor is meant to be stepped by exactly one goroutine (the
// "real-time thread"). Every other exported method is safe to call
// concurrently from other goroutines. Most of them only touch list
// bookkeeping and the deferred action slot; the exceptions call into
// collaborators on the caller's goroutine: LoadProgram and ResetProgram
// call Program.Reset, ActivateStateMachine and DeactivateStateMachine call
// the tree's Activate/Deactivate, and the state-machine load/unload
// operations walk the tree through its structural queries.
package processor

import (
	"context"
	"sync"
	"time"

	"github.com/ctrlstack/taskcore/emit"
)

// Processor is the scheduler for programs, state machines, and external
// commands inside one execution engine.
type Processor struct {
	cfg     processorConfig
	metrics *PrometheusMetrics

	programMu    sync.Mutex
	programs     []*ProgramInfo
	programIndex map[string]*ProgramInfo

	stateMu    sync.Mutex
	states     []*StateInfo
	stateIndex map[string]*StateInfo

	mailboxMu sync.Mutex
	mailbox   Command
}

// New constructs a Processor with empty program and state-machine
// registries.
func New(opts ...Option) (*Processor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	return &Processor{
		cfg:          cfg,
		metrics:      cfg.metrics,
		programIndex: make(map[string]*ProgramInfo),
		stateIndex:   make(map[string]*StateInfo),
	}, nil
}

// ---- Program management ----

// LoadProgram registers p under its own Name, calling p.Reset(). It returns
// false without mutating the Processor if the name is already in use.
func (p *Processor) LoadProgram(prog Program) bool {
	p.programMu.Lock()
	defer p.programMu.Unlock()

	name := prog.Name()
	if _, exists := p.programIndex[name]; exists {
		return false
	}
	prog.Reset()
	pi := &ProgramInfo{name: name, program: prog}
	p.programs = append(p.programs, pi)
	p.programIndex[name] = pi
	return true
}

// StartProgram sets the named program's running flag, so it executes every
// tick from the next doStep onward.
func (p *Processor) StartProgram(name string) bool {
	p.programMu.Lock()
	defer p.programMu.Unlock()
	pi, ok := p.programIndex[name]
	if !ok {
		return false
	}
	pi.running = true
	return true
}

// StopProgram clears the named program's running flag.
func (p *Processor) StopProgram(name string) bool {
	p.programMu.Lock()
	defer p.programMu.Unlock()
	pi, ok := p.programIndex[name]
	if !ok {
		return false
	}
	pi.running = false
	return true
}

// StartStepping schedules the named program for exactly one more Execute
// call on the next doStep, regardless of its running flag. The flag is
// cleared automatically once consumed.
func (p *Processor) StartStepping(name string) bool {
	return p.setStepping(name)
}

// NextStep is an alias of StartStepping: both install the same one-shot
// stepping request.
func (p *Processor) NextStep(name string) bool {
	return p.setStepping(name)
}

func (p *Processor) setStepping(name string) bool {
	p.programMu.Lock()
	defer p.programMu.Unlock()
	pi, ok := p.programIndex[name]
	if !ok {
		return false
	}
	pi.stepping = true
	return true
}

// IsProgramRunning observes the named program's running flag.
func (p *Processor) IsProgramRunning(name string) bool {
	p.programMu.Lock()
	defer p.programMu.Unlock()
	pi, ok := p.programIndex[name]
	return ok && pi.running
}

// IsProgramStepping observes the named program's stepping flag.
func (p *Processor) IsProgramStepping(name string) bool {
	p.programMu.Lock()
	defer p.programMu.Unlock()
	pi, ok := p.programIndex[name]
	return ok && pi.stepping
}

// ResetProgram calls the named program's Reset, allowed only when it is
// neither running nor stepping.
func (p *Processor) ResetProgram(name string) bool {
	p.programMu.Lock()
	defer p.programMu.Unlock()
	pi, ok := p.programIndex[name]
	if !ok || pi.running || pi.stepping {
		return false
	}
	pi.program.Reset()
	return true
}

// DeleteProgram unloads the named program, allowed only when it is neither
// running nor stepping.
func (p *Processor) DeleteProgram(name string) bool {
	p.programMu.Lock()
	defer p.programMu.Unlock()
	pi, ok := p.programIndex[name]
	if !ok || pi.running || pi.stepping {
		return false
	}
	delete(p.programIndex, name)
	for i, entry := range p.programs {
		if entry == pi {
			p.programs = append(p.programs[:i], p.programs[i+1:]...)
			break
		}
	}
	return true
}

// GetProgramList enumerates loaded program names in load order.
func (p *Processor) GetProgramList() []string {
	p.programMu.Lock()
	defer p.programMu.Unlock()
	names := make([]string, len(p.programs))
	for i, pi := range p.programs {
		names[i] = pi.name
	}
	return names
}

// ---- State machine management ----

// postOrder walks root's subtree and returns its nodes with every child
// ahead of its parent (leaves first).
func postOrder(root StateMachineTree) []StateMachineTree {
	var out []StateMachineTree
	for _, child := range root.GetChildren() {
		out = append(out, postOrder(child)...)
	}
	return append(out, root)
}

// LoadStateMachine registers root and its entire subtree. root must be a
// tree root (GetParent() == nil); every name in the subtree must be unique
// both within the subtree and against names already loaded in this
// Processor. The check runs to completion before anything is inserted, so
// a failure leaves the Processor unchanged.
func (p *Processor) LoadStateMachine(root StateMachineTree) error {
	if root.GetParent() != nil {
		return newLoadFailure("loadStateMachine", root.GetName(), ErrNotRoot)
	}

	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	order := postOrder(root)
	seen := make(map[string]bool, len(order))
	for _, node := range order {
		name := node.GetName()
		if seen[name] {
			return newLoadFailure("loadStateMachine", name, ErrDuplicateName)
		}
		seen[name] = true
		if _, exists := p.stateIndex[name]; exists {
			return newLoadFailure("loadStateMachine", name, ErrDuplicateName)
		}
	}

	for _, node := range order {
		si := &StateInfo{name: node.GetName(), tree: node, gstate: StateInactive, stepping: true}
		p.states = append(p.states, si)
		p.stateIndex[si.name] = si
	}
	return nil
}

// unloadSubtree implements the shared precondition checks and removal
// sequence for UnloadStateMachine and DeleteStateMachine: name must be a
// loaded root, every node in its subtree must be loaded in this Processor,
// and the whole subtree must be inactive.
func (p *Processor) unloadSubtree(op, name string) error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	si, ok := p.stateIndex[name]
	if !ok {
		return newUnloadFailure(op, name, ErrNotFound)
	}
	if si.tree.GetParent() != nil {
		return newUnloadFailure(op, name, ErrNotRoot)
	}

	order := postOrder(si.tree)
	for _, node := range order {
		child, loaded := p.stateIndex[node.GetName()]
		if !loaded {
			return newUnloadFailure(op, name, ErrChildNotLoaded)
		}
		if child.gstate != StateInactive {
			return newUnloadFailure(op, name, ErrSubtreeNotInactive)
		}
	}

	for _, node := range order {
		childName := node.GetName()
		delete(p.stateIndex, childName)
		for i, entry := range p.states {
			if entry.name == childName {
				p.states = append(p.states[:i], p.states[i+1:]...)
				break
			}
		}
	}
	return nil
}

// UnloadStateMachine removes name and its subtree (leaves first). name must
// be a loaded root whose entire subtree is inactive and fully loaded in
// this Processor.
func (p *Processor) UnloadStateMachine(name string) error {
	return p.unloadSubtree("unloadStateMachine", name)
}

// DeleteStateMachine removes name and its subtree under the same
// preconditions as UnloadStateMachine. Go's garbage collector reclaims the
// underlying StateMachineTree once the Processor's last reference is
// dropped; there is no separate destroy step.
func (p *Processor) DeleteStateMachine(name string) error {
	return p.unloadSubtree("deleteStateMachine", name)
}

// ActivateStateMachine transitions name from inactive to active
// immediately (no deferral through the action slot), allowed only from
// inactive.
func (p *Processor) ActivateStateMachine(name string) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	si, ok := p.stateIndex[name]
	if !ok || si.gstate != StateInactive {
		return false
	}
	si.tree.Activate()
	si.gstate = StateActive
	return true
}

// DeactivateStateMachine transitions name from stopped to inactive
// immediately, allowed only from stopped.
func (p *Processor) DeactivateStateMachine(name string) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	si, ok := p.stateIndex[name]
	if !ok || si.gstate != StateStopped {
		return false
	}
	si.tree.Deactivate()
	si.gstate = StateInactive
	return true
}

// StartStateMachine schedules the start action, allowed only from active.
// The transition to running and the first drive of the machine happen on
// the next doStep.
func (p *Processor) StartStateMachine(name string) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	si, ok := p.stateIndex[name]
	if !ok || si.gstate != StateActive {
		return false
	}
	si.action = actionStart
	return true
}

// PauseStateMachine schedules the pause action, allowed only from running.
func (p *Processor) PauseStateMachine(name string) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	si, ok := p.stateIndex[name]
	if !ok || si.gstate != StateRunning {
		return false
	}
	si.action = actionPause
	return true
}

// StopStateMachine schedules the stop action, allowed from paused, active,
// or running.
func (p *Processor) StopStateMachine(name string) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	si, ok := p.stateIndex[name]
	if !ok {
		return false
	}
	switch si.gstate {
	case StatePaused, StateActive, StateRunning:
		si.action = actionStop
		return true
	default:
		return false
	}
}

// ResetStateMachine schedules the reset action, allowed only from stopped.
func (p *Processor) ResetStateMachine(name string) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	si, ok := p.stateIndex[name]
	if !ok || si.gstate != StateStopped {
		return false
	}
	si.action = actionReset
	return true
}

// SteppedStateMachine sets the named machine to advance one transition per
// tick.
func (p *Processor) SteppedStateMachine(name string) bool {
	return p.setStateMachineStepping(name, true)
}

// ContinuousStateMachine sets the named machine to drive to fixpoint per
// tick.
func (p *Processor) ContinuousStateMachine(name string) bool {
	return p.setStateMachineStepping(name, false)
}

func (p *Processor) setStateMachineStepping(name string, stepping bool) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	si, ok := p.stateIndex[name]
	if !ok {
		return false
	}
	si.stepping = stepping
	return true
}

// IsStateMachineRunning observes whether name is in the running gstate.
func (p *Processor) IsStateMachineRunning(name string) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	si, ok := p.stateIndex[name]
	return ok && si.gstate == StateRunning
}

// IsStateMachineStepped observes the named machine's stepping flag.
func (p *Processor) IsStateMachineStepped(name string) bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	si, ok := p.stateIndex[name]
	return ok && si.stepping
}

// GetStateMachineList enumerates loaded state machine names in load order.
func (p *Processor) GetStateMachineList() []string {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	names := make([]string, len(p.states))
	for i, si := range p.states {
		names[i] = si.name
	}
	return names
}

// ---- External command mailbox ----

// QueueCommand accepts c into the single-slot mailbox if it is empty.
// Returns ErrMailboxFull without touching the mailbox otherwise.
func (p *Processor) QueueCommand(c Command) error {
	p.mailboxMu.Lock()
	defer p.mailboxMu.Unlock()
	if p.mailbox != nil {
		p.metrics.incCommandsRejected("mailbox_full")
		return ErrMailboxFull
	}
	p.mailbox = c
	p.metrics.setMailboxOccupied(true)
	return nil
}

// IsCommandProcessed reports whether the mailbox no longer holds c — true
// once c has been executed and cleared, or if it was never accepted.
func (p *Processor) IsCommandProcessed(c Command) bool {
	p.mailboxMu.Lock()
	defer p.mailboxMu.Unlock()
	return p.mailbox != c
}

// AbandonCommand clears the mailbox iff it still holds c exactly, acting as
// the cancellation primitive for a command not yet dispatched. It is a
// no-op once doStep has begun executing c.
func (p *Processor) AbandonCommand(c Command) bool {
	p.mailboxMu.Lock()
	defer p.mailboxMu.Unlock()
	if p.mailbox == c {
		p.mailbox = nil
		p.metrics.setMailboxOccupied(false)
		return true
	}
	return false
}

// ---- Per-tick execution ----

// DoStep runs one tick: state-machine actions, then the pending external
// command (if any), then the program run and stepping passes — all in
// load order.
//
// ctx is passed to the optional per-program watchdog configured via
// WithDefaultProgramTimeout; with that timeout set, DoStep waits for each
// program's Execute at most that long. The pending command always runs to
// completion synchronously: WithDefaultCommandTimeout only flags an
// overrun and does not shorten the wait.
func (p *Processor) DoStep(ctx context.Context) {
	start := time.Now()
	p.stepStateMachines(ctx)
	p.stepCommand(ctx)
	p.stepPrograms(ctx)
	p.metrics.recordStep(time.Since(start))
}

func (p *Processor) stepStateMachines(ctx context.Context) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	running := 0
	for _, si := range p.states {
		p.invokeAction(si)
		if si.gstate == StateRunning {
			running++
		}
	}
	p.metrics.setRunningStateMachines(running)
}

func (p *Processor) invokeAction(si *StateInfo) {
	switch si.action {
	case actionNone:
		return
	case actionStart:
		si.gstate = StateRunning
		runStateMachine(si)
		si.action = actionRun
	case actionRun:
		runStateMachine(si)
	case actionPause:
		si.gstate = StatePaused
		si.action = actionNone
	case actionStop:
		si.tree.RequestFinalState()
		si.gstate = StateStopped
		si.action = actionNone
	case actionReset:
		si.tree.RequestInitialState()
		si.gstate = StateActive
		si.action = actionNone
	}
}

// runStateMachine advances si by one transition if stepping, or drives
// requestNextState to fixpoint (two successive calls returning the same
// state) otherwise.
func runStateMachine(si *StateInfo) {
	if si.stepping {
		si.tree.RequestNextState()
		return
	}
	prev := si.tree.CurrentState()
	for {
		next := si.tree.RequestNextState()
		if next == prev {
			return
		}
		prev = next
	}
}

func (p *Processor) stepCommand(ctx context.Context) {
	p.mailboxMu.Lock()
	cmd := p.mailbox
	p.mailboxMu.Unlock()
	if cmd == nil {
		return
	}

	_ = executeCommandWithTimeout(ctx, cmd, p.cfg.defaultCommandTimeout)

	p.mailboxMu.Lock()
	if p.mailbox == cmd {
		p.mailbox = nil
		p.metrics.setMailboxOccupied(false)
	}
	p.mailboxMu.Unlock()

	p.metrics.incCommandsProcessed()
	p.cfg.emitter.Emit(emit.Event{EntryName: "command", Msg: "executed"})
}

func (p *Processor) stepPrograms(ctx context.Context) {
	p.programMu.Lock()
	defer p.programMu.Unlock()

	running, idle := 0, 0
	for _, pi := range p.programs {
		if pi.running {
			_ = executeProgramWithTimeout(ctx, pi.program, p.cfg.defaultProgramTimeout)
			running++
		} else {
			idle++
		}
	}
	for _, pi := range p.programs {
		if pi.stepping {
			_ = executeProgramWithTimeout(ctx, pi.program, p.cfg.defaultProgramTimeout)
			pi.stepping = false
		}
	}
	p.metrics.setInflightPrograms(running, idle)
}
