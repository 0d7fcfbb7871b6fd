package exec

import (
	"runtime"
	"sync"
)

// arena is the isolated work pool that runs one round of compilation.
//
// Tasks spawned into the arena are executed by a fixed set of workers;
// waiters inside the arena never pick up unrelated work, and tasks spawned
// to honor dependencies land in the same arena. The arena drains when the
// root task's reference count reaches zero.
type arena struct {
	state *compilationState

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*task
	stopped bool

	root *task
	done chan struct{}
	wg   sync.WaitGroup
}

func newArena(state *compilationState, workers int) *arena {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	a := &arena{
		state: state,
		done:  make(chan struct{}),
	}
	a.cond = sync.NewCond(&a.mu)
	a.root = &task{arena: a}
	// The root holds a guard until every top-level task is spawned, so an
	// early finisher cannot drain the arena prematurely.
	a.root.refs.Add(1)

	a.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go a.worker()
	}
	return a
}

// spawnTopLevel spawns impl as a child of the arena's root task.
func (a *arena) spawnTopLevel(impl taskImpl) {
	spawnChild(a, a.root, impl)
}

// wait releases the root guard, blocks until all tasks have completed, and
// stops the workers.
func (a *arena) wait() {
	a.root.release()
	<-a.done

	a.mu.Lock()
	a.stopped = true
	a.cond.Broadcast()
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *arena) enqueue(t *task) {
	a.mu.Lock()
	a.queue = append(a.queue, t)
	a.cond.Signal()
	a.mu.Unlock()
}

func (a *arena) worker() {
	defer a.wg.Done()
	for {
		a.mu.Lock()
		for len(a.queue) == 0 && !a.stopped {
			a.cond.Wait()
		}
		if a.stopped && len(a.queue) == 0 {
			a.mu.Unlock()
			return
		}
		n := len(a.queue) - 1
		t := a.queue[n]
		a.queue = a.queue[:n]
		a.mu.Unlock()

		t.execute()
	}
}
