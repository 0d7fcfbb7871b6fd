package network

import "fmt"

// Evaluator is a minimal memoized pull evaluator.
//
// It exists so tests and tools can observe the values a compiled network
// produces; it makes no attempt at parallelism or incremental re-use across
// rounds. Each Evaluate call pulls the requested output, evaluating each
// transitive source at most once per evaluator.
type Evaluator struct {
	network *Network
	time    any
	values  map[NodeID]any
}

// NewEvaluator returns an evaluator over net with no memoized values.
func (net *Network) NewEvaluator() *Evaluator {
	return &Evaluator{network: net, values: make(map[NodeID]any)}
}

// SetTime sets the value produced by time input nodes.
func (e *Evaluator) SetTime(time any) { e.time = time }

// Evaluate computes the value of the given masked output.
func (e *Evaluator) Evaluate(mo MaskedOutput) (any, error) {
	if mo.IsNull() {
		return nil, fmt.Errorf("evaluate: null masked output")
	}
	return e.evaluateNode(mo.Output.Node())
}

func (e *Evaluator) evaluateNode(node *Node) (any, error) {
	if value, ok := e.values[node.id]; ok {
		return value, nil
	}
	if node.callback == nil {
		return nil, fmt.Errorf("evaluate: node %s has no callback", node.DebugName())
	}
	value, err := node.callback(&EvalContext{evaluator: e, node: node})
	if err != nil {
		return nil, err
	}
	e.values[node.id] = value
	return value, nil
}

// EvalContext gives a node callback access to its input values during one
// evaluation. Callbacks must not retain the context.
type EvalContext struct {
	evaluator *Evaluator
	node      *Node
}

// Time returns the evaluator's current time value.
func (ec *EvalContext) Time() any { return ec.evaluator.time }

// InputValues evaluates and returns the values feeding the named input, in
// connection order. An input with no connections yields an empty slice.
func (ec *EvalContext) InputValues(name string) ([]any, error) {
	input := ec.node.Input(name)
	if input == nil {
		return nil, nil
	}
	conns := input.Connections()
	values := make([]any, 0, len(conns))
	for _, conn := range conns {
		value, err := ec.evaluator.evaluateNode(conn.Source.Node())
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}
