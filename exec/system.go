package exec

import (
	"context"
	"sync"

	"github.com/rstelzleni/execgraph/emit"
	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

// System is the per-execution-system façade: it owns the program and
// serializes rounds of compilation and change processing against it.
//
// Compilation within a round is parallel; rounds themselves, and all change
// processing, are mutually exclusive.
type System struct {
	mu sync.Mutex

	stage    scene.Stage
	opts     Options
	registry *DefinitionRegistry
	emitter  emit.Emitter
	program  *Program
}

// NewSystem returns a system compiling against stage.
func NewSystem(stage scene.Stage, opts Options) *System {
	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	return &System{
		stage:    stage,
		opts:     opts,
		registry: registry,
		emitter:  emitter,
		program:  NewProgram(),
	}
}

// Compile processes a batch of value keys and returns one masked output per
// key, in request order; nulls mark keys that failed to compile. The
// context bounds nothing today — compilation runs to completion — but is
// part of the surface so embedders do not change signatures when it does.
func (s *System) Compile(
	ctx context.Context, valueKeys []ValueKey,
) []network.MaskedOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &compiler{system: s}
	return c.compile(valueKeys)
}

// Program exposes the owned program for inspection.
func (s *System) Program() *Program { return s.program }

// InvalidateAll discards the compiled network and starts over. Used when
// scene changes are too broad to process incrementally.
func (s *System) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.program = NewProgram()
}
