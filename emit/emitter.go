// Package emit provides event emission and observability for the processor,
// execution engine, and task context components.
package emit

import "context"

// Emitter receives and processes observability events from an ExecutionEngine.
//
// Emitters enable pluggable observability backends:
// - Logging: stdout, files.
// - Distributed tracing: OpenTelemetry.
// - Metrics: Prometheus (via processor.PrometheusMetrics, not this interface).
//
// Implementations must be:
// - Non-blocking: never slow down the real-time step.
// - Thread-safe: Emit may be called from the engine's thread while Flush is
//   called from a control-plane goroutine.
// - Resilient: never panic.
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Emit must not block the calling (real-time) thread for unbounded time
	// and must not panic.
	Emit(event Event)

	// EmitBatch sends multiple events in a single operation.
	//
	// Implementations should process events in order and must not panic on
	// partial failures.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush ensures all buffered events are sent to the backend.
	//
	// Call before process shutdown, or in tests to make emitted events
	// observable deterministically.
	Flush(ctx context.Context) error
}
