package exec

import (
	"github.com/rstelzleni/execgraph/scene"
)

// uncompiler deletes portions of the compiled network in response to scene
// changes.
//
// It runs single-threaded after compilation quiesces: it looks up the
// relevant rule sets, garbage-collects rules whose targets are gone, skips
// rules whose reasons do not apply, and applies the rest — deleting nodes
// or disconnecting inputs — while recording which inputs need
// recompilation on the next request.
type uncompiler struct {
	program      *Program
	metrics      *PrometheusMetrics
	didUncompile bool
}

func newUncompiler(program *Program, metrics *PrometheusMetrics) *uncompiler {
	return &uncompiler{program: program, metrics: metrics}
}

// uncompileForSceneChange tears down everything the change at path with the
// given reasons invalidates. Resyncs are recursive: rules for path and all
// descendant paths are processed, and their rule sets removed from the
// table.
func (u *uncompiler) uncompileForSceneChange(
	path scene.Path, reasons scene.EditReason,
) {
	if reasons == scene.None {
		return
	}

	if reasons.Intersects(scene.ResyncedObject) {
		entries := u.program.uncompilation.extractForRecursiveResync(path)
		for _, entry := range entries {
			u.processRuleSet(entry.path, reasons, entry.ruleSet)
		}
		return
	}

	// For non-resync changes, only the changed path's rule set applies.
	entry := u.program.uncompilation.find(path)
	if entry.ruleSet == nil {
		return
	}
	u.processRuleSet(entry.path, reasons, entry.ruleSet)
}

// processRuleSet walks one rule set for a changed path. Triggered rules are
// applied and erased; rules with dead targets are garbage-collected unless
// the whole set is being discarded by a recursive resync; rules whose
// reasons do not apply are kept.
func (u *uncompiler) processRuleSet(
	path scene.Path, reasons scene.EditReason, set *uncompilationRuleSet,
) {
	isResync := reasons.Intersects(scene.ResyncedObject)

	i := 0
	for i < len(set.rules) {
		rule := set.rules[i]

		if !u.isValidTarget(rule.target) {
			if isResync {
				// The entire rule set is already being discarded; don't
				// bother erasing the individual rule.
				i++
			} else {
				set.rules = append(set.rules[:i], set.rules[i+1:]...)
			}
			continue
		}

		// Skip rules whose edit reasons are not applicable to this change.
		if !rule.reasons.Intersects(reasons) {
			i++
			continue
		}

		u.applyTarget(rule.target)
		u.didUncompile = true

		// The rule has triggered and is no longer valid.
		set.rules = append(set.rules[:i], set.rules[i+1:]...)
	}
}

// isValidTarget reports whether the rule's target still names a live
// network object. Rules for another path may already have uncompiled the
// same object.
func (u *uncompiler) isValidTarget(target uncompilationTarget) bool {
	switch t := target.(type) {
	case nodeUncompilationTarget:
		return u.program.network.NodeByID(t.nodeID) != nil

	case inputUncompilationTarget:
		if !t.isValid() {
			return false
		}
		if u.program.network.NodeByID(t.nodeID()) == nil {
			// The node no longer exists. Invalidating the target here lets
			// other rules for the same input skip the existence check.
			t.invalidate()
			return false
		}
		return true
	}
	return false
}

// applyTarget uncompiles the network object named by the target.
func (u *uncompiler) applyTarget(target uncompilationTarget) {
	switch t := target.(type) {
	case nodeUncompilationTarget:
		node := u.program.network.NodeByID(t.nodeID)
		u.program.disconnectAndDeleteNode(node)
		u.metrics.nodeUncompiled()

	case inputUncompilationTarget:
		node := u.program.network.NodeByID(t.nodeID())
		input := node.Input(t.inputName())
		if input != nil {
			u.program.disconnectInput(input)
			u.metrics.inputUncompiled()
		}

		// Invalidate remaining rules for the same input so they don't
		// trigger on future scene changes. Recompiling the input creates a
		// new set of rules, which this does not invalidate.
		t.invalidate()
	}
}
