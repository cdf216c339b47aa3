package processor

// Command is a deferred, one-shot unit of work submitted by a peer thread
// and executed on the owning Processor's real-time step.
//
// Execute must be non-blocking and bounded: the Processor does not
// interpret success or failure, and treats the command as consumed once
// Execute returns, regardless of outcome.
//
// Commands are compared by identity (pointer equality) for
// isCommandProcessed / abandonCommand, so implementations should be
// reference types.
type Command interface {
	// Execute performs the deferred action. It may succeed or fail
	// internally; the Processor does not interpret the result.
	Execute()
}
