// Package engine provides the per-task step driver: a thin facade binding
// one processor.Processor to a periodic activity, plus command submission
// that can be rejected while the activity is not running.
package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ctrlstack/taskcore/emit"
	"github.com/ctrlstack/taskcore/processor"
)

// Engine wraps one Processor with a running flag and a serial-id generator
// for queued commands. A single Engine may be shared by multiple peer task
// contexts (a "parent" engine); sharing tasks are then serialized on the
// same Step call and the same command mailbox, which is the intended
// behavior — see the package-level doc on Processor's single-writer
// mailbox.
type Engine struct {
	proc    *processor.Processor
	emitter emit.Emitter

	mu      sync.RWMutex
	running bool

	nextID atomic.Uint64
}

// New wraps proc in an Engine. The engine starts stopped; call Start before
// Step or QueueCommand will have any effect.
func New(proc *processor.Processor, opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{proc: proc, emitter: cfg.emitter}
}

// Processor returns the underlying Processor, for callers (typically a
// TaskContext) that need direct access to load/start/stop operations.
func (e *Engine) Processor() *processor.Processor { return e.proc }

// Start marks the engine running. Step and QueueCommand are no-ops /
// rejecting while stopped.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
}

// Stop marks the engine stopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// IsRunning reports whether the engine is accepting Step/QueueCommand
// calls.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Step drives one tick of the underlying Processor if the engine is
// running; otherwise it is a no-op. The caller — a periodic activity
// external to this package — is responsible for invoking Step at a fixed
// rate; the engine neither creates nor owns that thread.
func (e *Engine) Step(ctx context.Context) {
	if !e.IsRunning() {
		return
	}
	e.proc.DoStep(ctx)
	e.emitter.Emit(emit.Event{EntryName: "engine.step", Msg: "tick"})
}

// QueueCommand submits c to the Processor's mailbox and returns a non-zero
// serial id on acceptance, or zero if the engine is stopped or the mailbox
// is already occupied. The id has no meaning beyond non-zero-on-success;
// callers track completion via processor.Processor.IsCommandProcessed.
func (e *Engine) QueueCommand(c processor.Command) uint64 {
	if !e.IsRunning() {
		return 0
	}
	if err := e.proc.QueueCommand(c); err != nil {
		return 0
	}
	return e.nextID.Add(1)
}
