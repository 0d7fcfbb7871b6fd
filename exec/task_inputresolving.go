package exec

import (
	"fmt"

	"github.com/rstelzleni/execgraph/diag"
	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

// inputResolvingTask resolves one input key to its source output keys and
// ensures each source output is compiled, claiming uncompiled keys through
// task sync.
type inputResolvingTask struct {
	inputKey InputKey
	origin   scene.Object

	// resultOutputs receives one masked output per resolved output key,
	// null where a source failed to compile.
	resultOutputs *[]network.MaskedOutput

	journal    *scene.Journal
	outputKeys []OutputKey
}

func newInputResolvingTask(
	inputKey InputKey,
	origin scene.Object,
	resultOutputs *[]network.MaskedOutput,
	journal *scene.Journal,
) *inputResolvingTask {
	return &inputResolvingTask{
		inputKey:      inputKey,
		origin:        origin,
		resultOutputs: resultOutputs,
		journal:       journal,
	}
}

func (t *inputResolvingTask) compile(
	state *compilationState, stages *taskStages,
) {
	stages.invoke(
		// Generate the output keys to compile from the input key, and
		// create new subtasks for any outputs that still need compiling.
		func(deps *taskDependencies) {
			if t.inputKey.ProviderResolution.DynamicTraversal ==
				TraversalRelationshipTargetedObjects {
				state.reportf(diag.SeverityError,
					t.origin.Path(nil),
					t.inputKey.ComputationName,
					fmt.Sprintf("input %q: %v",
						t.inputKey.InputName, ErrUnsupportedTraversal))
				return
			}

			t.outputKeys = resolveInput(
				state.stage, state.registry, t.origin, t.inputKey, t.journal)
			*t.resultOutputs = make([]network.MaskedOutput, len(t.outputKeys))

			// For every output key, make sure it's either already
			// available or a task has been kicked off to produce it.
			for i := range t.outputKeys {
				identity := t.outputKeys[i].Identity()
				if output, ok := state.program.GetCompiledOutput(identity); ok {
					(*t.resultOutputs)[i] = output
					state.metrics.cacheHit()
					continue
				}

				switch deps.claimSubtask(identity) {
				case claimClaimed:
					// Run the task that produces the output.
					state.metrics.claimResolved("claimed")
					deps.newSubtask(newOutputProvidingTask(
						t.outputKeys[i], &(*t.resultOutputs)[i]))
				case claimWait:
					// A dependency on the producing task was established;
					// the result is read from the cache in the next stage.
					state.metrics.claimResolved("wait")
				case claimDone:
					state.metrics.claimResolved("done")
				}
			}
		},

		// Compiled outputs are now all available from the compiled-output
		// cache.
		func(deps *taskDependencies) {
			for i := range t.outputKeys {
				result := &(*t.resultOutputs)[i]
				if !result.IsNull() {
					continue
				}

				output, ok := state.program.GetCompiledOutput(
					t.outputKeys[i].Identity())
				if !ok || output.IsNull() {
					// Null outputs are tolerable only for optional inputs.
					if !t.inputKey.Optional {
						state.reportf(diag.SeverityError,
							t.origin.Path(nil),
							t.inputKey.ComputationName,
							fmt.Sprintf("input %q: %v",
								t.inputKey.InputName, ErrRequiredInputUnfilled))
					}
					continue
				}
				*result = output
			}
		},
	)
}
