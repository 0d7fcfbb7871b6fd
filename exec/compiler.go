package exec

import (
	"time"

	"github.com/google/uuid"

	"github.com/rstelzleni/execgraph/emit"
	"github.com/rstelzleni/execgraph/network"
)

// compiler drives one round of compilation: it spawns a leaf task per
// requested value key (plus a recompilation task per input disconnected by
// earlier change processing) into an isolated arena and waits for the task
// graph to drain.
type compiler struct {
	system *System
}

// compile processes the requested value keys and returns one masked output
// per key, in request order. Keys that failed to compile yield null masked
// outputs at the corresponding index.
func (c *compiler) compile(valueKeys []ValueKey) []network.MaskedOutput {
	sys := c.system
	started := time.Now()

	state := &compilationState{
		round:    uuid.NewString(),
		stage:    sys.stage,
		registry: sys.registry,
		program:  sys.program,
		emitter:  sys.emitter,
		sink:     sys.opts.DiagnosticSink,
		metrics:  sys.opts.Metrics,
	}

	sys.emitter.Emit(emit.Event{
		Round: state.round,
		Msg:   "round_start",
		Meta:  map[string]any{"value_keys": len(valueKeys)},
	})

	leafOutputs := make([]network.MaskedOutput, len(valueKeys))

	a := newArena(state, sys.opts.Workers)

	// Inputs disconnected by earlier uncompilation re-enter the task graph
	// alongside the fresh requests.
	for _, input := range sys.program.takeDisconnectedInputs() {
		a.spawnTopLevel(newInputRecompilationTask(input))
	}
	for i := range valueKeys {
		a.spawnTopLevel(newLeafCompilationTask(valueKeys[i], &leafOutputs[i]))
	}
	a.wait()

	sys.opts.Metrics.setNetworkNodes(sys.program.network.NodeCount())
	sys.opts.Metrics.roundCompleted(
		float64(time.Since(started)) / float64(time.Millisecond))
	sys.emitter.Emit(emit.Event{
		Round: state.round,
		Msg:   "round_complete",
		Meta: map[string]any{
			"duration_ms": time.Since(started).Milliseconds(),
			"nodes":       sys.program.network.NodeCount(),
		},
	})
	return leafOutputs
}
