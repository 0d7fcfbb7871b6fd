// Package emit provides event emission and observability for the
// compilation engine.
package emit

// Event represents an observability event emitted during compilation or
// change processing.
//
// The engine emits events for:
//   - compile round start/complete
//   - each scene change fed to a change processor
//   - a change-processing batch that uncompiled anything (one event)
//   - diagnostics
//
// No events are emitted per node creation, connection or cache claim.
//
// Events are emitted to an Emitter which can log them, convert them to
// OpenTelemetry spans, or buffer them for assertions in tests.
type Event struct {
	// Round identifies the compilation round that emitted this event.
	// Empty for change-processing events outside any round.
	Round string

	// Path is the scene path the event is anchored at, if any.
	Path string

	// NodeID identifies the network node involved, if any.
	NodeID uint64

	// Msg is a short machine-oriented event name, e.g. "round_start",
	// "scene_change", "uncompiled", "diagnostic".
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "computation": computation name
	//   - "duration_ms": round duration in milliseconds
	//   - "severity", "detail": diagnostic payload
	//   - "reasons": edit reasons of a scene change
	Meta map[string]any
}
