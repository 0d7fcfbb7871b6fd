// Package exec implements the compilation core of the incremental dataflow
// execution engine.
//
// Client code asks a System for named computations anchored at scene objects
// (value keys). The compiler lazily builds a connected dataflow network whose
// outputs produce the requested values, working in parallel: a staged task
// graph resolves each computation's inputs against the scene, claims output
// keys so at most one task compiles each output, and records every scene
// read in journals. The journals become uncompilation rules, so that when
// the scene changes, the uncompiler can surgically delete exactly the nodes
// and connections the change invalidates and queue the orphaned inputs for
// recompilation on the next request.
//
// The package deliberately does not evaluate computations (see the network
// package's minimal evaluator), does not persist state, and never mutates
// the scene.
package exec
