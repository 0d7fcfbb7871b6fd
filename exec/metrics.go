package exec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics for monitoring
// the engine in production.
//
// Metrics exposed (all namespaced "execgraph_"):
//   - network_nodes (gauge): live nodes in the compiled network.
//   - compile_round_ms (histogram): wall-clock duration per compile round.
//   - nodes_created_total (counter): nodes created by compilation.
//   - cache_hits_total (counter): compiled-output cache hits.
//   - claims_total (counter, label outcome): output-key claim outcomes
//     (claimed / wait / done).
//   - uncompiled_nodes_total (counter): nodes deleted by uncompilation.
//   - uncompiled_inputs_total (counter): inputs disconnected by
//     uncompilation.
//   - diagnostics_total (counter, label severity): recorded diagnostics.
//
// All methods are nil-safe so instrumentation points need no guards.
type PrometheusMetrics struct {
	networkNodes     prometheus.Gauge
	compileRound     prometheus.Histogram
	nodesCreated     prometheus.Counter
	cacheHits        prometheus.Counter
	claims           *prometheus.CounterVec
	uncompiledNodes  prometheus.Counter
	uncompiledInputs prometheus.Counter
	diagnostics      *prometheus.CounterVec
}

// NewPrometheusMetrics creates and registers the engine metrics with the
// given registry (prometheus.DefaultRegisterer if nil).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		networkNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "execgraph",
			Name:      "network_nodes",
			Help:      "Live nodes in the compiled network.",
		}),
		compileRound: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "execgraph",
			Name:      "compile_round_ms",
			Help:      "Compile round duration in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}),
		nodesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "execgraph",
			Name:      "nodes_created_total",
			Help:      "Nodes created by compilation.",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "execgraph",
			Name:      "cache_hits_total",
			Help:      "Compiled-output cache hits.",
		}),
		claims: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "execgraph",
			Name:      "claims_total",
			Help:      "Output-key claim outcomes.",
		}, []string{"outcome"}),
		uncompiledNodes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "execgraph",
			Name:      "uncompiled_nodes_total",
			Help:      "Nodes deleted by uncompilation.",
		}),
		uncompiledInputs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "execgraph",
			Name:      "uncompiled_inputs_total",
			Help:      "Inputs disconnected by uncompilation.",
		}),
		diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "execgraph",
			Name:      "diagnostics_total",
			Help:      "Recorded diagnostics by severity.",
		}, []string{"severity"}),
	}
}

func (m *PrometheusMetrics) setNetworkNodes(count int) {
	if m == nil {
		return
	}
	m.networkNodes.Set(float64(count))
}

func (m *PrometheusMetrics) roundCompleted(durationMS float64) {
	if m == nil {
		return
	}
	m.compileRound.Observe(durationMS)
}

func (m *PrometheusMetrics) nodeCreated() {
	if m == nil {
		return
	}
	m.nodesCreated.Inc()
}

func (m *PrometheusMetrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *PrometheusMetrics) claimResolved(outcome string) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) nodeUncompiled() {
	if m == nil {
		return
	}
	m.uncompiledNodes.Inc()
}

func (m *PrometheusMetrics) inputUncompiled() {
	if m == nil {
		return
	}
	m.uncompiledInputs.Inc()
}

func (m *PrometheusMetrics) diagnosticRecorded(severity string) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(severity).Inc()
}
