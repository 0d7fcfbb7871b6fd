package exec

import (
	"sort"
	"strings"
	"sync"

	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

// uncompilationTable maps scene paths to uncompilation rule sets.
//
// Compilation tasks concurrently append rules for newly-compiled nodes and
// inputs; change processing reads, extracts, and erases single-threaded.
// For any path p, the rules found for p are a superset of the rules that
// ought to fire on an edit at p: stale rules are permitted and are
// garbage-collected when encountered.
//
// The table is ordered: alongside the path-to-rule-set map it maintains a
// sorted index of paths, so that a recursive resync can locate the first
// affected entry with a binary-search lower bound and then walk descendants
// contiguously, instead of scanning the whole table. The search and scan
// touch O(log n + descendants) entries; removing the extracted paths then
// compacts the index by copying the entries that follow the run.
//
// Rule sets are shared: a recursive resync extracts a set from the table
// while the uncompiler still holds a reference to process it.
type uncompilationTable struct {
	mu   sync.RWMutex
	sets map[scene.Path]*uncompilationRuleSet

	// paths holds the keys of sets in ascending order. All descendants of
	// a path p share p as a string prefix, so they occupy a contiguous
	// run beginning at the lower bound of p; the run is filtered with the
	// component-aware HasPrefix to drop name collisions like /AB under /A.
	paths []scene.Path
}

// tableEntry is the result of a lookup: a path and its rule set (nil when
// absent).
type tableEntry struct {
	path    scene.Path
	ruleSet *uncompilationRuleSet
}

func newUncompilationTable() *uncompilationTable {
	return &uncompilationTable{sets: make(map[scene.Path]*uncompilationRuleSet)}
}

// addRulesForNode inserts rules tearing down the node with the given id for
// any scene change matching an entry in journal.
//
// May be called concurrently with itself and addRulesForInput.
func (t *uncompilationTable) addRulesForNode(
	nodeID network.NodeID, journal *scene.Journal,
) {
	journal.Range(func(path scene.Path, reasons scene.EditReason) bool {
		t.findOrInsert(path).append(uncompilationRule{
			target:  nodeUncompilationTarget{nodeID: nodeID},
			reasons: reasons,
		})
		return true
	})
}

// addRulesForInput inserts rules disconnecting the named input on the node
// with the given id for any scene change matching an entry in journal. The
// inserted rules share one target identity, so uncompiling the input once
// short-circuits the rest.
//
// May be called concurrently with itself and addRulesForNode.
func (t *uncompilationTable) addRulesForInput(
	nodeID network.NodeID, inputName string, journal *scene.Journal,
) {
	target := newInputUncompilationTarget(nodeID, inputName)
	journal.Range(func(path scene.Path, reasons scene.EditReason) bool {
		t.findOrInsert(path).append(uncompilationRule{
			target:  target,
			reasons: reasons,
		})
		return true
	})
}

// find locates the rule set for path. The returned entry's rule set is nil
// when no rules exist for the path.
func (t *uncompilationTable) find(path scene.Path) tableEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return tableEntry{path: path, ruleSet: t.sets[path]}
}

// extractForRecursiveResync locates and removes all rule sets whose path
// has the given path as a prefix, returning them in ascending path order.
//
// A recursive resync effectively deletes objects from the scene; the table
// responds by removing the rule sets for those objects. The affected
// entries are found with a lower-bound search into the sorted path index
// and a contiguous range scan from there.
//
// Not safe to call concurrently with any other method.
func (t *uncompilationTable) extractForRecursiveResync(
	path scene.Path,
) []tableEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	lo := sort.Search(len(t.paths), func(i int) bool {
		return t.paths[i] >= path
	})

	var result []tableEntry
	kept := t.paths[:lo]
	i := lo
	for ; i < len(t.paths); i++ {
		p := t.paths[i]
		if !strings.HasPrefix(string(p), string(path)) {
			// Past the contiguous run; no descendant can follow.
			break
		}
		if p.HasPrefix(path) {
			result = append(result, tableEntry{path: p, ruleSet: t.sets[p]})
			delete(t.sets, p)
		} else {
			kept = append(kept, p)
		}
	}
	t.paths = append(kept, t.paths[i:]...)
	return result
}

// findOrInsert locates an existing rule set for path, or inserts a new
// empty one, keeping the sorted path index in step. Two tasks racing to
// create the same path's set share one.
func (t *uncompilationTable) findOrInsert(path scene.Path) *uncompilationRuleSet {
	t.mu.RLock()
	set := t.sets[path]
	t.mu.RUnlock()
	if set != nil {
		return set
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if set := t.sets[path]; set != nil {
		return set
	}
	set = &uncompilationRuleSet{}
	t.sets[path] = set

	i := sort.Search(len(t.paths), func(i int) bool {
		return t.paths[i] >= path
	})
	t.paths = append(t.paths, "")
	copy(t.paths[i+1:], t.paths[i:])
	t.paths[i] = path
	return set
}
