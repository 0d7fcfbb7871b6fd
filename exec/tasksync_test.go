package exec

import (
	"sync"
	"testing"
)

// parkedTask returns a task whose reference count is held high enough that
// notifications can never respawn it, so task sync can be exercised without
// an arena.
func parkedTask() *task {
	t := &task{}
	t.refs.Store(1 << 16)
	return t
}

func TestClaimExactlyOneProducer(t *testing.T) {
	var ts taskSync
	key := testIdentity("/A")

	const n = 16
	results := make([]claimResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ts.claim(key, parkedTask())
		}(i)
	}
	wg.Wait()

	claimed := 0
	for _, result := range results {
		if result == claimClaimed {
			claimed++
		}
		if result == claimDone {
			t.Error("no claim can observe done before markDone")
		}
	}
	if claimed != 1 {
		t.Fatalf("%d claimants won, want exactly 1", claimed)
	}
}

func TestMarkDoneNotifiesWaiters(t *testing.T) {
	var ts taskSync
	key := testIdentity("/A")

	producer := parkedTask()
	if got := ts.claim(key, producer); got != claimClaimed {
		t.Fatalf("first claim = %v, want claimed", got)
	}

	waiters := make([]*task, 4)
	for i := range waiters {
		waiters[i] = parkedTask()
		if got := ts.claim(key, waiters[i]); got != claimWait {
			t.Fatalf("claim %d = %v, want wait", i, got)
		}
	}

	before := waiters[0].refs.Load()
	ts.markDone(key)

	for i, w := range waiters {
		if got := w.refs.Load(); got != before-1 {
			t.Errorf("waiter %d refs = %d, want %d (notified once)", i, got, before-1)
		}
	}

	// Claims racing with or after close observe done.
	if got := ts.claim(key, parkedTask()); got != claimDone {
		t.Errorf("claim after markDone = %v, want done", got)
	}
}

func TestClaimAfterDoneNeedsNoNotification(t *testing.T) {
	var ts taskSync
	key := testIdentity("/A")

	ts.claim(key, parkedTask())
	ts.markDone(key)

	late := parkedTask()
	before := late.refs.Load()
	if got := ts.claim(key, late); got != claimDone {
		t.Fatalf("late claim = %v, want done", got)
	}
	if late.refs.Load() != before {
		t.Error("a done claim must not touch the successor's reference count")
	}
}
