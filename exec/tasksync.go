package exec

import (
	"sync"
	"sync/atomic"
)

// claimResult is the outcome of claiming an output key for processing.
type claimResult uint8

const (
	// claimDone: the key is already produced; the caller reads the cache.
	claimDone claimResult = iota

	// claimWait: another task is producing the key. The successor's
	// reference count has been incremented and it will be notified once
	// the producer marks the key done.
	claimWait

	// claimClaimed: the caller wins and is on the hook for producing the
	// value and eventually calling markDone.
	claimClaimed
)

// Per-key production states.
const (
	taskStateUnclaimed uint32 = iota
	taskStateClaimed
	taskStateDone
)

// taskSync synchronizes output-key production within one round of
// compilation.
//
// Tasks claim output keys for processing; depending on the result they are
// on the hook for producing the key, or are parked on a lock-free waiter
// list and respawned when the producing task marks the key done. The
// lifetime of a taskSync is one compilation round.
type taskSync struct {
	entries sync.Map // OutputKeyIdentity -> *syncEntry
}

// syncEntry is the per-key state: a CAS-driven state byte and the head of
// the waiter list. Entries begin life unclaimed with no waiters.
type syncEntry struct {
	state   atomic.Uint32
	waiters atomic.Pointer[waiterNode]
}

type waiterNode struct {
	task *task
	next *waiterNode
}

// closedWaiters marks a waiter list that has been closed by markDone; a
// claim that races with close observes the key as already done.
var closedWaiters = &waiterNode{}

// claim attempts to claim key for processing on behalf of successor.
//
// On claimWait, successor's reference count has been raised; the producer's
// markDone lowers it again, respawning successor when it reaches zero.
func (ts *taskSync) claim(key OutputKeyIdentity, successor *task) claimResult {
	// Add the key to the map. If another task got here first, it is
	// expected and safe for the key to already have an entry.
	value, _ := ts.entries.LoadOrStore(key, &syncEntry{})
	entry := value.(*syncEntry)

	// If the task associated with this output is already done, we're done.
	state := entry.state.Load()
	if state == taskStateDone {
		return claimDone
	}

	// If the key has not been claimed yet, attempt to claim it.
	if state == taskStateUnclaimed &&
		entry.state.CompareAndSwap(taskStateUnclaimed, taskStateClaimed) {
		return claimClaimed
	}

	// The key has already been claimed (or another task claimed it just
	// before we could). Wait on completion; if the waiter list closed just
	// as we were about to wait, the task completed and we can consider it
	// done.
	if entry.waitOn(successor) {
		return claimWait
	}
	return claimDone
}

// waitOn parks successor on the entry's waiter list. Returns false if the
// list was already closed.
func (e *syncEntry) waitOn(successor *task) bool {
	// Guard the successor before publishing it; the transient reference is
	// dropped again if the list turns out to be closed. The successor is
	// the currently-executing task, whose own stage guard keeps the count
	// positive, so the drop can never respawn it here.
	successor.refs.Add(1)
	node := &waiterNode{task: successor}
	for {
		head := e.waiters.Load()
		if head == closedWaiters {
			successor.refs.Add(-1)
			return false
		}
		node.next = head
		if e.waiters.CompareAndSwap(head, node) {
			return true
		}
	}
}

// markDone marks the key's producing task done and notifies all waiting
// tasks by decrementing their reference counts, respawning any that reach
// zero.
//
// The producer must have previously claimed the key; the cache write for
// the key must happen before markDone so waiters observe it.
func (ts *taskSync) markDone(key OutputKeyIdentity) {
	value, ok := ts.entries.Load(key)
	if !ok {
		return
	}
	entry := value.(*syncEntry)

	// We expect to transition from the claimed state.
	entry.state.Store(taskStateDone)

	// Atomically close the waiter list and notify every parked task.
	head := entry.waiters.Swap(closedWaiters)
	for node := head; node != nil && node != closedWaiters; node = node.next {
		node.task.release()
	}
}
