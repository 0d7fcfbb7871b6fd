package exec

import (
	"github.com/rstelzleni/execgraph/emit"
	"github.com/rstelzleni/execgraph/scene"
)

// Changed-field names understood by ChangeProcessor.DidChangeInfoOnly.
const (
	// FieldProperties marks a change to a prim's property list.
	FieldProperties = "properties"

	// FieldTargetPaths marks a change to a relationship's target list.
	FieldTargetPaths = "targetPaths"

	// FieldDefaultValue marks a change to an attribute's authored value.
	// Authored-value changes invalidate computed values, not network
	// structure.
	FieldDefaultValue = "default"
)

// ChangeProcessor applies one batch of scene-change notifications to a
// system.
//
// Construct one processor per notification batch, feed it every change, and
// Close it to finalize the round. Each change is uncompiled as it is fed in,
// and inputs disconnected by uncompilation are queued at that point for
// recompilation on the next request. Closing refreshes value-resolution
// state for changed attributes and releases the system's round lock.
//
// Change processing is single-threaded and must not overlap compilation.
type ChangeProcessor struct {
	system     *System
	uncompiler *uncompiler

	// changedValuePaths accumulates attributes whose authored values
	// changed, for batch post-processing.
	changedValuePaths []scene.Path
}

// NewChangeProcessor returns a processor applying changes to the system.
//
// The processor holds the system's round lock from construction until
// Close, so no compilation can overlap change processing.
func (s *System) NewChangeProcessor() *ChangeProcessor {
	s.mu.Lock()
	return &ChangeProcessor{
		system:     s,
		uncompiler: newUncompiler(s.program, s.opts.Metrics),
	}
}

// DidResync notes that the object at path was resynced. Resyncs are
// recursive: rules for path and every descendant fire.
func (cp *ChangeProcessor) DidResync(path scene.Path) {
	cp.process(path, scene.ResyncedObject)
}

// DidChangeInfoOnly notes a non-structural change at path. Changed fields
// outside the known enumeration are ignored.
func (cp *ChangeProcessor) DidChangeInfoOnly(path scene.Path, changedFields []string) {
	reasons := scene.None
	for _, field := range changedFields {
		switch field {
		case FieldProperties:
			reasons |= scene.ChangedPropertyList
		case FieldTargetPaths:
			reasons |= scene.ChangedTargetPaths
		case FieldDefaultValue:
			if path.IsPropertyPath() {
				cp.changedValuePaths = append(cp.changedValuePaths, path)
			}
		}
	}
	cp.process(path, reasons)
}

func (cp *ChangeProcessor) process(path scene.Path, reasons scene.EditReason) {
	if reasons == scene.None {
		return
	}
	cp.system.emitter.Emit(emit.Event{
		Path: string(path),
		Msg:  "scene_change",
		Meta: map[string]any{"reasons": reasons.String()},
	})
	cp.uncompiler.uncompileForSceneChange(path, reasons)
}

// Close finalizes the round and releases the system's round lock. Must be
// called exactly once.
func (cp *ChangeProcessor) Close() error {
	defer cp.system.mu.Unlock()
	if cp.uncompiler.didUncompile {
		cp.system.emitter.Emit(emit.Event{Msg: "uncompiled"})
	}

	// Refresh value-resolution state for attributes whose authored values
	// changed. Conservative resync semantics handle everything structural;
	// this is the seam for finer-grained notification.
	for _, path := range cp.changedValuePaths {
		attr := cp.system.stage.AttributeAtPath(path, nil)
		if attr != nil && attr.IsValid(nil) {
			attr.Query().Refresh()
		}
	}
	return nil
}
