package exec

import (
	"github.com/rstelzleni/execgraph/diag"
	"github.com/rstelzleni/execgraph/emit"
)

// Options configures a System. Zero values are valid: the system uses a
// process-wide registry, one worker per CPU, and no observability.
type Options struct {
	// Registry supplies computation definitions. Defaults to
	// DefaultRegistry().
	Registry *DefinitionRegistry

	// Workers bounds the number of compilation workers per round.
	// Defaults to runtime.NumCPU().
	Workers int

	// Emitter receives observability events. Defaults to a NullEmitter.
	Emitter emit.Emitter

	// Metrics enables Prometheus metrics collection. If nil, metrics are
	// not collected. Create with NewPrometheusMetrics.
	Metrics *PrometheusMetrics

	// DiagnosticSink retains compilation diagnostics. If nil, diagnostics
	// are only emitted as events.
	DiagnosticSink diag.Sink
}
