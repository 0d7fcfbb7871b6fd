package scene

import "sort"

// Journal stores a collection of edit reasons associated with scene objects.
//
// Compilation uses a Journal to log all scene queries performed while
// compiling a node or forming connections in the network. A *Journal is
// passed to the journaled accessors of the scene interfaces, and those
// accessors add entries.
//
// Given the scene accesses made to produce a node, the resulting journal
// contains exactly the scene changes that would trigger uncompilation of
// that node; likewise for the accesses made to resolve a node's input
// connections.
//
// Journals are not safe for concurrent use. Each compilation task keeps its
// own journal; merging between tasks happens only through explicit Merge
// calls at designated seams.
type Journal struct {
	entries map[Path]EditReason
}

// NewJournal returns an empty journal.
func NewJournal() *Journal {
	return &Journal{entries: make(map[Path]EditReason)}
}

// Add unions reason into the entry for path, inserting the entry if absent.
//
// Adding an empty or relative path is a programmer error; the entry is
// dropped.
func (j *Journal) Add(path Path, reason EditReason) {
	if path.IsEmpty() || !path.IsAbsolute() {
		return
	}
	if j.entries == nil {
		j.entries = make(map[Path]EditReason)
	}
	j.entries[path] |= reason
}

// Merge unions every entry of other into j. Merging is commutative and
// idempotent per key.
func (j *Journal) Merge(other *Journal) {
	if other == nil {
		return
	}
	for path, reason := range other.entries {
		j.Add(path, reason)
	}
}

// Get returns the reasons recorded for path, or None.
func (j *Journal) Get(path Path) EditReason {
	return j.entries[path]
}

// Len returns the number of distinct paths in the journal.
func (j *Journal) Len() int { return len(j.entries) }

// Range calls fn for every (path, reason) entry, in unspecified order, until
// fn returns false.
func (j *Journal) Range(fn func(Path, EditReason) bool) {
	for path, reason := range j.entries {
		if !fn(path, reason) {
			return
		}
	}
}

// SortedPaths returns the journal's paths in lexicographic order. Intended
// for deterministic iteration in tests and debug output.
func (j *Journal) SortedPaths() []Path {
	paths := make([]Path, 0, len(j.entries))
	for path := range j.entries {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(a, b int) bool { return paths[a] < paths[b] })
	return paths
}
