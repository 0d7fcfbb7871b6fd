package exec

import (
	"fmt"
	"sync/atomic"

	"github.com/rstelzleni/execgraph/scene"
)

// taskImpl is implemented by the four compilation task types. compile is
// re-invoked on every respawn; taskStages resumes it at the pending stage.
type taskImpl interface {
	compile(state *compilationState, stages *taskStages)
}

// task is the reference-counted unit of work driving compilation.
//
// A task's work is a sequence of stage closures. Between stages the task may
// publish subtasks; if any were published the task suspends — its reference
// count stays raised until every subtask finishes — and on respawn resumes
// at the next stage. If a stage publishes nothing, control falls through to
// the next stage synchronously.
type task struct {
	arena  *arena
	parent *task
	impl   taskImpl

	// stage is the index of the next stage to run.
	stage int

	// refs counts reasons the task cannot yet complete or resume: one guard
	// while a stage executes, one per outstanding subtask, one per pending
	// task-sync wait. The transition to zero respawns a suspended task, or
	// signals completion for the root.
	refs atomic.Int32
}

// spawnChild constructs a task for impl as a child of parent and schedules
// it in the arena.
func spawnChild(a *arena, parent *task, impl taskImpl) {
	if parent != nil {
		parent.refs.Add(1)
	}
	a.enqueue(&task{arena: a, parent: parent, impl: impl})
}

// release drops one reference. At zero, a suspended task is respawned; the
// root task instead signals that the arena has drained.
func (t *task) release() {
	if t.refs.Add(-1) == 0 {
		if t.impl == nil {
			close(t.arena.done)
			return
		}
		t.arena.enqueue(t)
	}
}

// execute runs the task until it suspends or completes.
func (t *task) execute() {
	stages := &taskStages{task: t}
	t.impl.compile(t.arena.state, stages)
	if !stages.suspended {
		t.complete()
	}
}

// complete finishes the task, releasing its parent.
func (t *task) complete() {
	if t.parent != nil {
		t.parent.release()
	}
}

// taskStages sequences a task's stage closures.
type taskStages struct {
	task      *task
	suspended bool
}

// invoke runs the callables in order, each denoting a task stage, resuming
// at the task's pending stage.
//
// The stage advance discipline:
//  1. raise the task's reference count so concurrently-finishing subtasks
//     cannot respawn it mid-stage;
//  2. run the stage closure, which may publish subtasks or claim keys;
//  3. advance the stage counter;
//  4. if dependencies were established, drop the guard; the outstanding
//     subtasks and waits keep the count raised, and the last one to finish
//     respawns the task (if all have already finished, continue inline);
//  5. otherwise drop the guard and fall through to the next stage.
func (ts *taskStages) invoke(stages ...func(*taskDependencies)) {
	t := ts.task
	for i := t.stage; i < len(stages); i++ {
		t.refs.Add(1)
		deps := &taskDependencies{task: t}
		ts.runStage(stages[i], deps)
		t.stage++

		if deps.hasDependencies {
			if t.refs.Add(-1) == 0 {
				// Every subtask already finished; continue inline.
				continue
			}
			ts.suspended = true
			return
		}
		t.refs.Add(-1)
	}
}

// runStage invokes one stage closure, converting a panic into a
// coding-error diagnostic. Failures never cross task boundaries.
func (ts *taskStages) runStage(stage func(*taskDependencies), deps *taskDependencies) {
	defer func() {
		if r := recover(); r != nil {
			ts.task.arena.state.reportCodingError(
				fmt.Sprintf("panic in compilation task: %v", r))
		}
	}()
	stage(deps)
}

// taskDependencies manages the dependencies established during one stage.
type taskDependencies struct {
	task            *task
	hasDependencies bool
}

// newSubtask constructs and schedules impl as a subtask of the calling
// task. The calling task resumes at its next stage once all of its subtasks
// have finished.
func (d *taskDependencies) newSubtask(impl taskImpl) {
	d.hasDependencies = true
	spawnChild(d.task.arena, d.task, impl)
}

// claimSubtask claims the output key through task sync. If another task is
// already producing the key, the calling task establishes a dependency on
// it and resumes at its next stage once the producer marks the key done.
func (d *taskDependencies) claimSubtask(key OutputKeyIdentity) claimResult {
	result := d.task.arena.state.outputTasks.claim(key, d.task)
	if result == claimWait {
		d.hasDependencies = true
	}
	return result
}

// markDone marks the task identified by key complete. Must be called after
// the task has published its results.
func markDone(state *compilationState, key OutputKeyIdentity) {
	state.outputTasks.markDone(key)
}

// emptyJournal is handed to node constructors that have no scene
// dependencies of their own.
var emptyJournal = scene.NewJournal()
