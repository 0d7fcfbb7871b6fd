package exec

import (
	"strings"
	"sync"

	"github.com/rstelzleni/execgraph/scene"
)

// uncompilationRule pairs a target with the edit reasons under which it
// must be torn down. A rule applies to a change when the change's reasons
// intersect the rule's.
type uncompilationRule struct {
	target  uncompilationTarget
	reasons scene.EditReason
}

func (r uncompilationRule) description() string {
	return r.target.description() + " on " + r.reasons.String()
}

// uncompilationRuleSet is the multiset of rules associated with one scene
// path.
//
// Appends may run concurrently with each other during compilation;
// iteration and erasure run single-threaded during uncompilation. The set
// may contain duplicates, trading deduplication for contention-free
// insertion.
type uncompilationRuleSet struct {
	mu    sync.Mutex
	rules []uncompilationRule
}

// append inserts a rule. Safe to call concurrently with other appends.
func (s *uncompilationRuleSet) append(rule uncompilationRule) {
	s.mu.Lock()
	s.rules = append(s.rules, rule)
	s.mu.Unlock()
}

// size returns the number of rules, including duplicates.
func (s *uncompilationRuleSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rules)
}

// description returns a string describing all rules in the set.
func (s *uncompilationRuleSet) description() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	parts := make([]string, len(s.rules))
	for i, rule := range s.rules {
		parts[i] = rule.description()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}
