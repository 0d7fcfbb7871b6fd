package exec

import (
	"sync"
	"testing"

	"github.com/rstelzleni/execgraph/network"
	"github.com/rstelzleni/execgraph/scene"
)

func journalOf(entries map[scene.Path]scene.EditReason) *scene.Journal {
	j := scene.NewJournal()
	for path, reasons := range entries {
		j.Add(path, reasons)
	}
	return j
}

func TestAddRulesForNode(t *testing.T) {
	table := newUncompilationTable()
	table.addRulesForNode(1, journalOf(map[scene.Path]scene.EditReason{
		"/A":   scene.ResyncedObject,
		"/A/B": scene.ResyncedObject | scene.ChangedPropertyList,
	}))

	entry := table.find("/A")
	if entry.ruleSet == nil || entry.ruleSet.size() != 1 {
		t.Fatalf("expected one rule at /A")
	}
	rule := entry.ruleSet.rules[0]
	target, ok := rule.target.(nodeUncompilationTarget)
	if !ok || target.nodeID != 1 {
		t.Errorf("rule target = %#v, want node 1", rule.target)
	}
	if rule.reasons != scene.ResyncedObject {
		t.Errorf("rule reasons = %v, want ResyncedObject", rule.reasons)
	}

	if table.find("/Missing").ruleSet != nil {
		t.Error("absent path must return a nil rule set")
	}
}

func TestAddRulesForInputSharesIdentity(t *testing.T) {
	table := newUncompilationTable()
	table.addRulesForInput(2, "x", journalOf(map[scene.Path]scene.EditReason{
		"/A": scene.ResyncedObject,
		"/B": scene.ChangedTargetPaths,
	}))

	ruleA := table.find("/A").ruleSet.rules[0]
	ruleB := table.find("/B").ruleSet.rules[0]
	targetA := ruleA.target.(inputUncompilationTarget)
	targetB := ruleB.target.(inputUncompilationTarget)

	if targetA.identity != targetB.identity {
		t.Fatal("rules for one input must share one target identity")
	}
	if !targetA.isValid() {
		t.Fatal("fresh targets are valid")
	}
	targetA.invalidate()
	if targetB.isValid() {
		t.Error("invalidation must short-circuit every rule for the input")
	}
}

func TestConcurrentRuleInsertion(t *testing.T) {
	table := newUncompilationTable()

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			j := journalOf(map[scene.Path]scene.EditReason{
				"/Shared": scene.ResyncedObject,
			})
			if i%2 == 0 {
				table.addRulesForNode(network.NodeID(i), j)
			} else {
				table.addRulesForInput(network.NodeID(i), "in", j)
			}
		}(i)
	}
	wg.Wait()

	if got := table.find("/Shared").ruleSet.size(); got != n {
		t.Errorf("rule set size = %d, want %d", got, n)
	}
}

func TestExtractForRecursiveResync(t *testing.T) {
	table := newUncompilationTable()
	for _, path := range []scene.Path{"/A", "/A/B", "/A/B.attr", "/AB", "/C"} {
		table.addRulesForNode(1, journalOf(map[scene.Path]scene.EditReason{
			path: scene.ResyncedObject,
		}))
	}

	entries := table.extractForRecursiveResync("/A")
	got := make([]scene.Path, len(entries))
	for i, entry := range entries {
		got[i] = entry.path
	}
	want := []scene.Path{"/A", "/A/B", "/A/B.attr"}
	// Entries come back path-ordered so processing is deterministic.
	if len(got) != len(want) {
		t.Fatalf("extracted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("extracted %v, want %v", got, want)
		}
	}

	// Extraction removes the rule sets; /AB is a name collision, not a
	// descendant, and must remain.
	if table.find("/A").ruleSet != nil || table.find("/A/B").ruleSet != nil {
		t.Error("extracted rule sets must be removed from the table")
	}
	if table.find("/AB").ruleSet == nil || table.find("/C").ruleSet == nil {
		t.Error("unrelated rule sets must remain")
	}
}

// The sorted path index stays consistent across extraction: re-inserted
// paths are found again, both directly and by a later range scan.
func TestExtractThenReinsert(t *testing.T) {
	table := newUncompilationTable()
	for _, path := range []scene.Path{"/A", "/A/B", "/C"} {
		table.addRulesForNode(1, journalOf(map[scene.Path]scene.EditReason{
			path: scene.ResyncedObject,
		}))
	}

	if got := len(table.extractForRecursiveResync("/A")); got != 2 {
		t.Fatalf("extracted %d entries, want 2", got)
	}
	if table.find("/A").ruleSet != nil {
		t.Fatal("extracted rule set must be gone")
	}

	table.addRulesForNode(2, journalOf(map[scene.Path]scene.EditReason{
		"/A/B": scene.ResyncedObject,
	}))
	if table.find("/A/B").ruleSet == nil {
		t.Fatal("re-inserted path must be found")
	}

	entries := table.extractForRecursiveResync("/A")
	if len(entries) != 1 || entries[0].path != "/A/B" {
		t.Fatalf("second extraction = %v, want exactly /A/B", entries)
	}
	if table.find("/C").ruleSet == nil {
		t.Error("/C must survive both extractions")
	}
}

// Recursive resync at the absolute root extracts every rule set.
func TestRecursiveResyncAtRootExtractsEverything(t *testing.T) {
	table := newUncompilationTable()
	paths := []scene.Path{"/A", "/B/C", "/D.attr"}
	for _, path := range paths {
		table.addRulesForNode(1, journalOf(map[scene.Path]scene.EditReason{
			path: scene.ResyncedObject,
		}))
	}

	entries := table.extractForRecursiveResync(scene.AbsoluteRoot)
	if len(entries) != len(paths) {
		t.Fatalf("extracted %d entries, want %d", len(entries), len(paths))
	}
	for _, path := range paths {
		if table.find(path).ruleSet != nil {
			t.Errorf("rule set %q must be gone", path)
		}
	}
}
