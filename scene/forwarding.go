package scene

// ForwardTargets implements relationship-target forwarding over any Stage.
//
// Targets of rel that name another relationship are followed transitively.
// The target graph may contain cycles; forwarding terminates by tracking
// visited relationship paths, and each reachable target path is returned
// exactly once. Targets reached through a relationship are listed before
// that relationship's own path.
//
// Relationship implementations typically delegate their ForwardedTargets
// method here.
func ForwardTargets(stage Stage, rel Relationship, j *Journal) []Path {
	var result []Path
	visited := make(map[Path]bool)
	unique := make(map[Path]bool)
	forwardTargetsImpl(stage, rel, visited, unique, &result, j)
	return result
}

func forwardTargetsImpl(
	stage Stage,
	rel Relationship,
	visitedRels map[Path]bool,
	uniqueTargets map[Path]bool,
	result *[]Path,
	j *Journal,
) {
	for _, target := range rel.Targets(j) {
		if target.IsPropertyPath() {
			// Resolve forwarding if this target points at a relationship.
			forwarded := stage.RelationshipAtPath(target, j)
			if forwarded.IsValid(j) {
				relPath := forwarded.Path(j)
				if !visitedRels[relPath] {
					visitedRels[relPath] = true
					forwardTargetsImpl(
						stage, forwarded, visitedRels, uniqueTargets, result, j)
				}
			}
		}

		if !uniqueTargets[target] {
			uniqueTargets[target] = true
			*result = append(*result, target)
		}
	}
}
