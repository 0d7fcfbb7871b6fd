package emit

import "context"

// Emitter receives and processes observability events from the engine.
//
// Implementations should be:
//   - Non-blocking: avoid slowing down compilation.
//   - Thread-safe: events arrive concurrently from compilation tasks.
//   - Resilient: handle backend failures gracefully and never panic.
type Emitter interface {
	// Emit sends one event to the configured backend. Emit must not block
	// compilation; slow backends should buffer or drop with internal
	// logging. Emit must not panic.
	Emit(event Event)

	// EmitBatch sends multiple events in a single operation. Events are
	// ordered by creation time; implementations should preserve that order
	// and handle partial failures gracefully. Returns an error only on
	// catastrophic failures.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush ensures all buffered events are delivered. Call before
	// shutdown, at round completion, or in tests that assert on emission.
	// Safe to call multiple times.
	Flush(ctx context.Context) error
}
