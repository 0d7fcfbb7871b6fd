package exec

import (
	"fmt"

	"github.com/rstelzleni/execgraph/diag"
	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

// leafCompilationTask compiles one requested value key: it resolves and
// compiles the source output, then creates a leaf node anchored on it.
type leafCompilationTask struct {
	valueKey  ValueKey
	debugName string

	// leafOutput receives the compiled source output for the request.
	leafOutput *network.MaskedOutput

	resultOutputs []network.MaskedOutput
	journal       *scene.Journal
}

func newLeafCompilationTask(
	valueKey ValueKey, leafOutput *network.MaskedOutput,
) *leafCompilationTask {
	return &leafCompilationTask{
		valueKey: valueKey,
		// Value keys are not durable across scene changes, so the debug
		// name is collected eagerly.
		debugName:  valueKey.DebugName(),
		leafOutput: leafOutput,
		journal:    scene.NewJournal(),
	}
}

// makeLeafInputKey turns a value key into the synthetic input key of the
// leaf node: the computation at the provider itself, any result type.
func makeLeafInputKey(valueKey ValueKey) InputKey {
	return InputKey{
		InputName:       leafInputName,
		ComputationName: valueKey.ComputationName,
		ResultType:      scene.UnknownType,
		ProviderResolution: ProviderResolution{
			LocalTraversal:   selfTraversal,
			DynamicTraversal: TraversalLocal,
		},
		Optional: false,
	}
}

// selfTraversal is the reflexive local traversal.
const selfTraversal = "."

func (t *leafCompilationTask) compile(
	state *compilationState, stages *taskStages,
) {
	stages.invoke(
		// Turn the value key into an input key and run an input-resolving
		// subtask to compile the source output that the leaf node will be
		// connected to.
		func(deps *taskDependencies) {
			deps.newSubtask(newInputResolvingTask(
				makeLeafInputKey(t.valueKey),
				t.valueKey.Provider,
				&t.resultOutputs,
				t.journal,
			))
		},

		// Compile and connect the leaf node.
		func(deps *taskDependencies) {
			if len(t.resultOutputs) != 1 {
				state.reportf(diag.SeverityError,
					t.valueKey.Provider.Path(nil),
					t.valueKey.ComputationName,
					fmt.Sprintf(
						"expected exactly one output for value key %q; got %d: %v",
						t.debugName, len(t.resultOutputs), ErrLeafSourceCount))
				return
			}
			source := t.resultOutputs[0]
			if source.IsNull() {
				state.reportf(diag.SeverityError,
					t.valueKey.Provider.Path(nil),
					t.valueKey.ComputationName,
					fmt.Sprintf("value key %q compiled to a null output: %v",
						t.debugName, ErrLeafSourceCount))
				return
			}

			// Return the compiled source output as the requested leaf
			// output.
			*t.leafOutput = source

			// Repeated requests for the same value key share one leaf node.
			leafNode, created := state.program.GetOrCreateLeafNode(
				emptyJournal, t.debugName, source)
			if !created {
				return
			}
			leafNode.SetDebugName(t.debugName)

			// Record how to re-resolve the leaf's input after
			// uncompilation disconnects it.
			state.program.setNodeRecompilationInfo(
				leafNode,
				t.valueKey.Provider,
				NewInputKeyVector(makeLeafInputKey(t.valueKey)))

			state.program.Connect(
				t.journal,
				[]network.MaskedOutput{source},
				leafNode,
				leafInputName,
			)
		},
	)
}
