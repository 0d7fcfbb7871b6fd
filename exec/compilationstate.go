package exec

import (
	"context"
	"time"

	"github.com/rstelzleni/execgraph/diag"
	"github.com/rstelzleni/execgraph/emit"
	"github.com/rstelzleni/execgraph/scene"
)

// compilationState is the data shared between all compilation tasks of one
// round. One instance is constructed at the beginning of a round and passed
// by reference to every task, keeping the tasks themselves small.
type compilationState struct {
	round    string
	stage    scene.Stage
	registry *DefinitionRegistry
	program  *Program

	outputTasks taskSync

	emitter emit.Emitter
	sink    diag.Sink
	metrics *PrometheusMetrics
}

// reportf records a compilation failure for the given scene path and
// computation. Failures are diagnostics, not errors: the offending subtree
// yields null masked outputs and the request surfaces null for its value
// key.
func (cs *compilationState) reportf(
	severity diag.Severity, path scene.Path, computation, msg string,
) {
	cs.metrics.diagnosticRecorded(string(severity))
	if cs.emitter != nil {
		cs.emitter.Emit(emit.Event{
			Round: cs.round,
			Path:  string(path),
			Msg:   "diagnostic",
			Meta: map[string]any{
				"severity":    string(severity),
				"computation": computation,
				"detail":      msg,
			},
		})
	}
	if cs.sink != nil {
		// Sink failures must not fail compilation; they are reported
		// through the emitter only.
		err := cs.sink.Record(context.Background(), diag.Diagnostic{
			Round:       cs.round,
			Severity:    severity,
			Path:        string(path),
			Computation: computation,
			Msg:         msg,
			Time:        time.Now(),
		})
		if err != nil && cs.emitter != nil {
			cs.emitter.Emit(emit.Event{
				Round: cs.round,
				Msg:   "diagnostic_sink_error",
				Meta:  map[string]any{"error": err.Error()},
			})
		}
	}
}

// reportCodingError records a programmer error observed inside the task
// graph.
func (cs *compilationState) reportCodingError(msg string) {
	cs.reportf(diag.SeverityCodingError, "", "", msg)
}
