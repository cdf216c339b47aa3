package processor

import (
	"context"
	"time"
)

// executeProgramWithTimeout runs prog.Execute, optionally bounding it with a
// goroutine-based watchdog when timeout > 0.
//
// Program.Execute takes no context: the Processor's real-time contract
// requires programs to return promptly on their own. The timeout here is a
// diagnostic backstop, not a cancellation mechanism — a program that
// ignores its own non-blocking contract cannot be preempted, so exceeding
// the bound is reported to the caller but the goroutine is abandoned to
// finish (or hang) on its own.
func executeProgramWithTimeout(ctx context.Context, prog Program, timeout time.Duration) error {
	if timeout <= 0 {
		prog.Execute()
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		prog.Execute()
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		return nil
	case <-timeoutCtx.Done():
		return &deadlineExceededError{name: prog.Name(), timeout: timeout}
	}
}

// executeCommandWithTimeout runs cmd.Execute synchronously on the calling
// (real-time) goroutine, regardless of timeout, and reports a diagnostic
// error if it ran past the bound.
//
// Unlike executeProgramWithTimeout, this never spawns a watchdog goroutine:
// the mailbox invariant requires Execute to be invoked exactly once strictly
// before isCommandProcessed(c) can observe true, and stepCommand clears the
// mailbox right after this call returns. A goroutine-based watchdog here
// would let the mailbox clear (and a new command be queued) while the old
// Execute is still running, silently breaking that guarantee. timeout is
// therefore purely diagnostic for commands: it bounds nothing, it only
// flags calls that ran long.
func executeCommandWithTimeout(_ context.Context, cmd Command, timeout time.Duration) error {
	start := time.Now()
	cmd.Execute()
	if timeout > 0 {
		if elapsed := time.Since(start); elapsed > timeout {
			return &deadlineExceededError{name: "command", timeout: timeout}
		}
	}
	return nil
}

// deadlineExceededError reports a diagnostic timeout breach on a program or
// command step. It does not imply the underlying goroutine was stopped.
type deadlineExceededError struct {
	name    string
	timeout time.Duration
}

func (e *deadlineExceededError) Error() string {
	return e.name + " exceeded step timeout of " + e.timeout.String()
}
