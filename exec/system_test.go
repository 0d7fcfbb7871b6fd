package exec

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rstelzleni/execgraph/diag"
	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

// newTestSystem builds a system over its own registry and an in-memory
// diagnostic sink.
func newTestSystem(
	t *testing.T, st *scene.MemStage, registry *DefinitionRegistry,
) (*System, *diag.MemorySink) {
	t.Helper()
	if registry == nil {
		registry = NewDefinitionRegistry()
	}
	sink := diag.NewMemorySink()
	sys := NewSystem(st, Options{Registry: registry, DiagnosticSink: sink})
	return sys, sink
}

func mustRegister(
	t *testing.T, r *DefinitionRegistry, schema string, reg ComputationRegistration,
) {
	t.Helper()
	if err := r.RegisterPrimComputation(schema, reg); err != nil {
		t.Fatalf("RegisterPrimComputation(%s, %s): %v", schema, reg.Name, err)
	}
}

// Scenario: the builtin time computation compiles to the program's
// singleton time input node, and repeated requests create nothing new.
func TestBuiltinTimeSingleton(t *testing.T) {
	st := scene.NewMemStage()
	st.DefinePrim("/Prim", "Custom")

	sys, _ := newTestSystem(t, st, nil)
	prim := st.PrimAtPath("/Prim", nil)

	outputs := sys.Compile(context.Background(),
		[]ValueKey{{Provider: prim, ComputationName: ComputeTime}})
	if len(outputs) != 1 || outputs[0].IsNull() {
		t.Fatalf("compile returned %v", outputs)
	}
	if outputs[0].Output.Node() != sys.Program().TimeInputNode() {
		t.Error("time computation must be provided by the singleton time input node")
	}

	nodesAfterFirst := sys.Program().Network().NodeCount()

	again := sys.Compile(context.Background(),
		[]ValueKey{{Provider: prim, ComputationName: ComputeTime}})
	if again[0].Output != outputs[0].Output {
		t.Error("second request must return the same output")
	}
	if got := sys.Program().Network().NodeCount(); got != nodesAfterFirst {
		t.Errorf("second identical request created nodes: %d -> %d",
			nodesAfterFirst, got)
	}
}

// Scenario: the builtin attribute-value computation yields an
// attribute-input node whose evaluated value is the authored value and
// whose time input connects directly to the singleton time node.
func TestAttributeValueComputation(t *testing.T) {
	st := scene.NewMemStage()
	st.DefinePrim("/Prim1", "Scope")
	st.SetAttribute("/Prim1", "attr1", "int", 1)

	sys, _ := newTestSystem(t, st, nil)
	attr := st.AttributeAtPath("/Prim1.attr1", nil)

	outputs := sys.Compile(context.Background(),
		[]ValueKey{{Provider: attr, ComputationName: ComputeValue}})
	if len(outputs) != 1 || outputs[0].IsNull() {
		t.Fatalf("compile returned %v", outputs)
	}

	valueNode := outputs[0].Output.Node()
	if valueNode.Kind() != network.KindAttributeInput {
		t.Errorf("node kind = %v, want KindAttributeInput", valueNode.Kind())
	}

	timeInput := valueNode.Input(timeInputName)
	if timeInput == nil {
		t.Fatal("attribute node must have a time input")
	}
	conns := timeInput.Connections()
	if len(conns) != 1 ||
		conns[0].Source.Node() != sys.Program().TimeInputNode() {
		t.Error("time input must connect directly to the singleton time node")
	}

	ev := sys.Program().Network().NewEvaluator()
	ev.SetTime(0.0)
	value, err := ev.Evaluate(outputs[0])
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if value != 1 {
		t.Errorf("evaluated value = %v, want 1", value)
	}
}

// Scenario: recursive resync removes exactly the nodes whose construction
// depended on the resynced subtree, and recompiling reuses the survivor.
func TestRecursiveResync(t *testing.T) {
	st := scene.NewMemStage()
	st.DefinePrim("/A", "Rig")
	st.DefinePrim("/A/B", "Rig")
	st.DefinePrim("/C", "Rig")

	registry := NewDefinitionRegistry()
	mustRegister(t, registry, "Rig", ComputationRegistration{
		Name:       "foo",
		ResultType: "int",
		Callback:   intConst(7),
	})

	sys, _ := newTestSystem(t, st, registry)
	keys := []ValueKey{
		{Provider: st.PrimAtPath("/A", nil), ComputationName: "foo"},
		{Provider: st.PrimAtPath("/A/B", nil), ComputationName: "foo"},
		{Provider: st.PrimAtPath("/C", nil), ComputationName: "foo"},
	}

	outputs := sys.Compile(context.Background(), keys)
	for i, out := range outputs {
		if out.IsNull() {
			t.Fatalf("output %d is null", i)
		}
	}
	nodeC := outputs[2].Output.Node()
	idA := outputs[0].Output.Node().ID()
	idB := outputs[1].Output.Node().ID()

	st.RemovePrim("/A")
	st.DefinePrim("/A", "Rig")
	st.DefinePrim("/A/B", "Rig")
	cp := sys.NewChangeProcessor()
	cp.DidResync("/A")
	if err := cp.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	net := sys.Program().Network()
	if net.NodeByID(idA) != nil || net.NodeByID(idB) != nil {
		t.Error("nodes under /A must be uncompiled after the resync")
	}
	if net.NodeByID(nodeC.ID()) != nodeC {
		t.Error("the node for /C must survive")
	}

	rebuilt := sys.Compile(context.Background(), keys)
	for i, out := range rebuilt {
		if out.IsNull() {
			t.Fatalf("rebuilt output %d is null", i)
		}
	}
	if rebuilt[2].Output.Node() != nodeC {
		t.Error("recompiling must reuse the node for /C")
	}
	if rebuilt[0].Output.Node().ID() == idA {
		t.Error("the node for /A must be a fresh compile")
	}
}

// Scenario: concurrent identical requests converge on one node per
// distinct output key.
func TestConcurrentCompileConvergence(t *testing.T) {
	const n = 16

	st := scene.NewMemStage()
	st.DefinePrim("/P", "Rig")

	registry := NewDefinitionRegistry()
	mustRegister(t, registry, "Rig", ComputationRegistration{
		Name:       "foo",
		ResultType: "int",
		Callback:   intConst(7),
	})

	sys, _ := newTestSystem(t, st, registry)
	prim := st.PrimAtPath("/P", nil)

	// One batch of N identical keys exercises in-round claim racing.
	batch := make([]ValueKey, n)
	for i := range batch {
		batch[i] = ValueKey{Provider: prim, ComputationName: "foo"}
	}
	outputs := sys.Compile(context.Background(), batch)
	first := outputs[0]
	for i, out := range outputs {
		if out.Output != first.Output {
			t.Fatalf("output %d differs from output 0", i)
		}
	}
	// One computation node plus one shared leaf node.
	wantNodes := sys.Program().Network().NodeCount()

	// N parallel rounds must not create anything further.
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sys.Compile(context.Background(),
				[]ValueKey{{Provider: prim, ComputationName: "foo"}})
		}()
	}
	wg.Wait()

	if got := sys.Program().Network().NodeCount(); got != wantNodes {
		t.Errorf("node count after parallel rounds = %d, want %d", got, wantNodes)
	}
}

// Scenario: a change whose reasons do not intersect a rule's reasons must
// not fire the rule; a later matching change must.
func TestEditReasonFiltering(t *testing.T) {
	st := scene.NewMemStage()
	st.DefinePrim("/P", "Rig")

	registry := NewDefinitionRegistry()
	mustRegister(t, registry, "Rig", ComputationRegistration{
		Name:       "foo",
		ResultType: "int",
		Callback:   intConst(7),
	})

	sys, _ := newTestSystem(t, st, registry)
	prim := st.PrimAtPath("/P", nil)
	outputs := sys.Compile(context.Background(),
		[]ValueKey{{Provider: prim, ComputationName: "foo"}})
	nodeID := outputs[0].Output.Node().ID()

	cp := sys.NewChangeProcessor()
	cp.DidChangeInfoOnly("/P", []string{FieldProperties})
	if err := cp.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sys.Program().Network().NodeByID(nodeID) == nil {
		t.Fatal("ChangedPropertyList must not delete a node journaled for resync only")
	}

	cp = sys.NewChangeProcessor()
	cp.DidResync("/P")
	if err := cp.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sys.Program().Network().NodeByID(nodeID) != nil {
		t.Fatal("ResyncedObject must delete the node")
	}
}

// Applying the same scene change twice uncompiles targets the first time
// and is a no-op the second time.
func TestRepeatedChangeIsNoOp(t *testing.T) {
	st := scene.NewMemStage()
	st.DefinePrim("/P", "Rig")

	registry := NewDefinitionRegistry()
	mustRegister(t, registry, "Rig", ComputationRegistration{
		Name: "foo", ResultType: "int", Callback: intConst(7),
	})

	sys, _ := newTestSystem(t, st, registry)
	prim := st.PrimAtPath("/P", nil)
	sys.Compile(context.Background(),
		[]ValueKey{{Provider: prim, ComputationName: "foo"}})

	for round := 0; round < 2; round++ {
		cp := sys.NewChangeProcessor()
		cp.DidResync("/P")
		if err := cp.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if round == 0 && cp.uncompiler.didUncompile == false {
			t.Error("first change must uncompile")
		}
		if round == 1 && cp.uncompiler.didUncompile {
			t.Error("second identical change must be a no-op")
		}
	}
}

func TestIdempotentRecompile(t *testing.T) {
	st := scene.NewMemStage()
	st.DefinePrim("/Prim1", "Scope")
	st.SetAttribute("/Prim1", "attr1", "int", 1)

	sys, _ := newTestSystem(t, st, nil)
	keys := []ValueKey{{
		Provider:        st.AttributeAtPath("/Prim1.attr1", nil),
		ComputationName: ComputeValue,
	}}

	first := sys.Compile(context.Background(), keys)
	nodes := sys.Program().Network().NodeCount()
	second := sys.Compile(context.Background(), keys)

	if first[0].Output != second[0].Output {
		t.Error("recompiling the same request must return equal outputs")
	}
	if got := sys.Program().Network().NodeCount(); got != nodes {
		t.Errorf("second compilation created nodes: %d -> %d", nodes, got)
	}
}

// A request that resolves to zero sources yields a null output and a
// diagnostic.
func TestLeafZeroSources(t *testing.T) {
	st := scene.NewMemStage()
	st.DefinePrim("/P", "Scope")

	sys, sink := newTestSystem(t, st, nil)
	outputs := sys.Compile(context.Background(), []ValueKey{{
		Provider:        st.PrimAtPath("/P", nil),
		ComputationName: "unknownComputation",
	}})

	if len(outputs) != 1 || !outputs[0].IsNull() {
		t.Fatalf("expected one null output; got %v", outputs)
	}

	found := false
	for _, round := range allRounds(t, sink) {
		for _, d := range round {
			if d.Severity == diag.SeverityError {
				found = true
			}
		}
	}
	if !found {
		t.Error("a failed leaf request must record an error diagnostic")
	}
}

// Uncompiling an input (not its node) queues it for recompilation, and the
// next request reconnects it.
func TestInputRecompilation(t *testing.T) {
	st := scene.NewMemStage()
	st.DefinePrim("/P", "Rig")
	st.SetAttribute("/P", "attr1", "int", 5)

	registry := NewDefinitionRegistry()
	mustRegister(t, registry, "Rig", ComputationRegistration{
		Name:       "double",
		ResultType: "int",
		Callback: func(ec *network.EvalContext) (any, error) {
			values, err := ec.InputValues("x")
			if err != nil {
				return nil, err
			}
			if len(values) != 1 {
				return nil, errors.New("missing input x")
			}
			return values[0].(int) * 2, nil
		},
		InputKeys: []InputKey{{
			InputName:       "x",
			ComputationName: ComputeValue,
			ResultType:      "int",
			ProviderResolution: ProviderResolution{
				LocalTraversal:   "attr1",
				DynamicTraversal: TraversalLocal,
			},
		}},
	})

	sys, _ := newTestSystem(t, st, registry)
	prim := st.PrimAtPath("/P", nil)
	keys := []ValueKey{{Provider: prim, ComputationName: "double"}}

	outputs := sys.Compile(context.Background(), keys)
	if outputs[0].IsNull() {
		t.Fatal("initial compile failed")
	}
	doubleNode := outputs[0].Output.Node()

	ev := sys.Program().Network().NewEvaluator()
	if value, err := ev.Evaluate(outputs[0]); err != nil || value != 10 {
		t.Fatalf("Evaluate = %v, %v; want 10", value, err)
	}

	// Resync the attribute: the attribute-input node and the connection
	// into "x" go away; the double node itself survives.
	st.SetAttribute("/P", "attr1", "int", 21)
	cp := sys.NewChangeProcessor()
	cp.DidResync("/P.attr1")
	if err := cp.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if sys.Program().Network().NodeByID(doubleNode.ID()) != doubleNode {
		t.Fatal("the consuming node must survive an input-only uncompile")
	}
	if got := len(doubleNode.Input("x").Connections()); got != 0 {
		t.Fatalf("input x should be disconnected; has %d connections", got)
	}

	// The next request recompiles the disconnected input.
	rebuilt := sys.Compile(context.Background(), keys)
	if rebuilt[0].Output.Node() != doubleNode {
		t.Error("recompilation must reuse the surviving node")
	}
	if got := len(doubleNode.Input("x").Connections()); got != 1 {
		t.Fatalf("input x should be reconnected; has %d connections", got)
	}

	ev = sys.Program().Network().NewEvaluator()
	if value, err := ev.Evaluate(rebuilt[0]); err != nil || value != 42 {
		t.Fatalf("Evaluate after recompilation = %v, %v; want 42", value, err)
	}
}

// Optional inputs may remain unfilled without failing the computation.
func TestOptionalInputMayRemainUnfilled(t *testing.T) {
	st := scene.NewMemStage()
	st.DefinePrim("/P", "Rig")

	makeCallback := func() network.EvalFunc {
		return func(ec *network.EvalContext) (any, error) {
			values, err := ec.InputValues("x")
			if err != nil {
				return nil, err
			}
			if len(values) == 0 {
				return -1, nil
			}
			return values[0], nil
		}
	}
	// The computation wants the value of an attribute that does not exist,
	// and tolerates the absence.
	registry := NewDefinitionRegistry()
	mustRegister(t, registry, "Rig", ComputationRegistration{
		Name: "lenient", ResultType: "int",
		Callback: makeCallback(),
		InputKeys: []InputKey{{
			InputName:       "x",
			ComputationName: ComputeValue,
			ResultType:      "int",
			ProviderResolution: ProviderResolution{
				LocalTraversal:   "missing",
				DynamicTraversal: TraversalLocal,
			},
			Optional: true,
		}},
	})

	sys, sink := newTestSystem(t, st, registry)
	prim := st.PrimAtPath("/P", nil)

	outputs := sys.Compile(context.Background(),
		[]ValueKey{{Provider: prim, ComputationName: "lenient"}})
	if outputs[0].IsNull() {
		t.Fatal("an unfilled optional input must not fail the computation")
	}
	if len(allDiagnostics(t, sink)) != 0 {
		t.Errorf("optional input produced diagnostics: %v", allDiagnostics(t, sink))
	}

	ev := sys.Program().Network().NewEvaluator()
	if value, err := ev.Evaluate(outputs[0]); err != nil || value != -1 {
		t.Errorf("Evaluate = %v, %v; want -1", value, err)
	}
}

// allDiagnostics flattens every recorded diagnostic.
func allDiagnostics(t *testing.T, sink *diag.MemorySink) []diag.Diagnostic {
	t.Helper()
	var result []diag.Diagnostic
	for _, ds := range sink.All() {
		result = append(result, ds...)
	}
	return result
}

// allRounds collects every recorded diagnostic, grouped by round.
func allRounds(t *testing.T, sink *diag.MemorySink) map[string][]diag.Diagnostic {
	t.Helper()
	return sink.All()
}
