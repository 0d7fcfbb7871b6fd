package emit

import (
	"context"
	"sync"
)

// BufferedEmitter collects events in memory.
//
// Tests use it to assert on engine behavior; tools use it to batch events
// toward a slower downstream emitter via Drain.
type BufferedEmitter struct {
	mu     sync.Mutex
	events []Event
}

// NewBufferedEmitter returns an empty buffer.
func NewBufferedEmitter() *BufferedEmitter { return &BufferedEmitter{} }

// Emit appends the event to the buffer.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

// EmitBatch appends the events to the buffer in order.
func (b *BufferedEmitter) EmitBatch(ctx context.Context, events []Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
	return nil
}

// Flush is a no-op; use Drain to hand the buffer off.
func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// Events returns a copy of the buffered events in emission order.
func (b *BufferedEmitter) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// Drain returns the buffered events and empties the buffer.
func (b *BufferedEmitter) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.events
	b.events = nil
	return events
}

// CountByMsg returns how many buffered events carry the given Msg.
func (b *BufferedEmitter) CountByMsg(msg string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, event := range b.events {
		if event.Msg == msg {
			count++
		}
	}
	return count
}
