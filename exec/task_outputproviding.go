package exec

import (
	"fmt"

	"github.com/rstelzleni/execgraph/diag"
	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

// outputProvidingTask compiles the node that provides one claimed output
// key: it resolves the computation's inputs, invokes the definition's node
// factory, connects the inputs, publishes the compiled output, and marks
// the claim done.
type outputProvidingTask struct {
	outputKey OutputKey

	// resultOutput receives the compiled output for the calling task.
	resultOutput *network.MaskedOutput

	nodeJournal   *scene.Journal
	inputKeys     *InputKeyVector
	inputSources  [][]network.MaskedOutput
	inputJournals []*scene.Journal
}

func newOutputProvidingTask(
	outputKey OutputKey, resultOutput *network.MaskedOutput,
) *outputProvidingTask {
	return &outputProvidingTask{
		outputKey:    outputKey,
		resultOutput: resultOutput,
		nodeJournal:  scene.NewJournal(),
	}
}

func (t *outputProvidingTask) compile(
	state *compilationState, stages *taskStages,
) {
	definition := t.outputKey.Definition

	stages.invoke(
		// Make sure input dependencies are fulfilled.
		func(deps *taskDependencies) {
			// The node compiled by this task must be uncompiled when the
			// provider object is resynced. The resync entry is added
			// explicitly because the definition lookup that would imply it
			// already happened in the input-resolving task.
			t.nodeJournal.Add(
				t.outputKey.Provider.Path(nil), scene.ResyncedObject)

			t.inputKeys = definition.InputKeys(t.outputKey.Provider, t.nodeJournal)

			keys := t.inputKeys.Get()
			t.inputSources = make([][]network.MaskedOutput, len(keys))
			t.inputJournals = make([]*scene.Journal, len(keys))
			for i := range keys {
				t.inputJournals[i] = scene.NewJournal()
				deps.newSubtask(newInputResolvingTask(
					keys[i],
					t.outputKey.Provider,
					&t.inputSources[i],
					t.inputJournals[i],
				))
			}
		},

		// Compile and connect the node.
		func(deps *taskDependencies) {
			identity := t.outputKey.Identity()

			node := definition.CompileNode(
				t.outputKey.Provider, t.nodeJournal, state.program)
			if node == nil {
				state.reportf(diag.SeverityError,
					identity.ProviderPath,
					definition.ComputationName(),
					fmt.Sprintf("node factory failed for output key %q",
						identity.DebugName()))
				// Publish the absence so other claimants observe a memo
				// rather than recompiling, then release them.
				state.program.SetCompiledOutput(identity, network.MaskedOutput{})
				markDone(state, identity)
				return
			}

			node.SetDebugNameCallback(identity.DebugName)

			// Recompilation of a disconnected input needs the provider and
			// input keys again; record them while both are at hand.
			state.program.setNodeRecompilationInfo(
				node, t.outputKey.Provider, t.inputKeys)

			// Connect inputs in definition order.
			keys := t.inputKeys.Get()
			for i := range keys {
				state.program.Connect(
					t.inputJournals[i],
					t.inputSources[i],
					node,
					keys[i].InputName,
				)
			}

			// Return the compiled output to the calling task, then publish
			// it to the compiled-output cache, then release the claim. The
			// ordering guarantees dependents observe the cache write.
			compiled := network.MaskedOutput{
				Output: node.Output(),
				Mask:   network.AllOnes(1),
			}
			*t.resultOutput = compiled
			state.program.SetCompiledOutput(identity, compiled)
			state.metrics.nodeCreated()
			markDone(state, identity)
		},
	)
}
