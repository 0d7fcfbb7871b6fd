package exec

import (
	"fmt"

	"github.com/rstelzleni/execgraph/diag"
	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

// inputRecompilationTask reconnects one input that uncompilation
// disconnected. It re-resolves the input from the owning node's
// recompilation info and connects the new sources.
type inputRecompilationTask struct {
	input *network.Input

	resultOutputs []network.MaskedOutput
	journal       *scene.Journal
}

func newInputRecompilationTask(input *network.Input) *inputRecompilationTask {
	return &inputRecompilationTask{
		input:   input,
		journal: scene.NewJournal(),
	}
}

func (t *inputRecompilationTask) compile(
	state *compilationState, stages *taskStages,
) {
	stages.invoke(
		// Re-resolve the input's dependencies from the node's
		// recompilation info.
		func(deps *taskDependencies) {
			node := t.input.Node()

			// The node may have been deleted by a later rule in the same
			// change round; a stale input needs no recompilation.
			if state.program.network.NodeByID(node.ID()) != node {
				return
			}

			info := state.program.nodeRecompilationInfo(node)
			if info == nil {
				state.reportCodingError(fmt.Sprintf(
					"unable to recompile input %q: no recompilation info for the node",
					t.input.DebugName()))
				return
			}

			inputKey := info.inputKeys.Find(t.input.Name())
			if inputKey == nil {
				state.reportCodingError(fmt.Sprintf(
					"unable to recompile input %q: no input key found",
					t.input.DebugName()))
				return
			}

			deps.newSubtask(newInputResolvingTask(
				*inputKey, info.provider, &t.resultOutputs, t.journal))
		},

		// Reconnect the recompiled outputs to this input.
		func(deps *taskDependencies) {
			node := t.input.Node()
			if state.program.network.NodeByID(node.ID()) != node {
				return
			}

			// Leaf node inputs require exactly one source output.
			if node.Kind() == network.KindLeaf && len(t.resultOutputs) != 1 {
				state.reportf(diag.SeverityError,
					"", "",
					fmt.Sprintf(
						"recompilation of leaf input %q expected exactly 1 output; got %d: %v",
						t.input.DebugName(), len(t.resultOutputs), ErrLeafSourceCount))
				return
			}

			state.program.Connect(
				t.journal, t.resultOutputs, node, t.input.Name())
		},
	)
}
