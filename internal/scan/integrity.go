package scan

import (
	"fmt"
	"sort"

	"github.com/dusk-indust/strata/internal/graph"
)

// CheckIntegrity verifies the structural invariants a built graph must hold:
// every adjacency key names a known file, every edge target is a known file,
// and the forward and reverse maps describe the same edge multiset. A clean
// graph returns a nil slice. Issues are sorted for stable output.
func CheckIntegrity(g *graph.DependencyGraph) []string {
	var issues []string

	for path := range g.Dependencies {
		if _, ok := g.Files[path]; !ok {
			issues = append(issues, fmt.Sprintf("dependencies key %q is not a file node", path))
		}
	}
	for path := range g.Dependents {
		if _, ok := g.Files[path]; !ok {
			issues = append(issues, fmt.Sprintf("dependents key %q is not a file node", path))
		}
	}
	for path := range g.Files {
		if _, ok := g.Dependencies[path]; !ok {
			issues = append(issues, fmt.Sprintf("file %q missing from dependencies map", path))
		}
		if _, ok := g.Dependents[path]; !ok {
			issues = append(issues, fmt.Sprintf("file %q missing from dependents map", path))
		}
	}

	forward := edgeCounts(g.Dependencies)
	reverse := make(map[[2]string]int, len(forward))
	for target, sources := range g.Dependents {
		for _, source := range sources {
			reverse[[2]string{source, target}]++
		}
	}

	for edge, n := range forward {
		if _, ok := g.Files[edge[1]]; !ok {
			issues = append(issues, fmt.Sprintf("edge %s -> %s targets an unknown file", edge[0], edge[1]))
		}
		if reverse[edge] != n {
			issues = append(issues, fmt.Sprintf("edge %s -> %s: forward count %d, reverse count %d", edge[0], edge[1], n, reverse[edge]))
		}
	}
	for edge, n := range reverse {
		if _, ok := forward[edge]; !ok {
			issues = append(issues, fmt.Sprintf("edge %s -> %s present in dependents only (count %d)", edge[0], edge[1], n))
		}
	}

	sort.Strings(issues)
	return issues
}

func edgeCounts(adj map[string][]string) map[[2]string]int {
	counts := make(map[[2]string]int)
	for source, targets := range adj {
		for _, target := range targets {
			counts[[2]string{source, target}]++
		}
	}
	return counts
}
