package emit

import "context"

// NullEmitter discards all events. It is the default emitter: observability
// is strictly opt-in.
type NullEmitter struct{}

// NewNullEmitter returns an emitter that discards everything.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

// Emit discards the event.
func (*NullEmitter) Emit(Event) {}

// EmitBatch discards the events.
func (*NullEmitter) EmitBatch(context.Context, []Event) error { return nil }

// Flush does nothing.
func (*NullEmitter) Flush(context.Context) error { return nil }
