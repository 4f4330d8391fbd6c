// Package export renders scan results as Mermaid diagrams and JSON reports.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/strata/internal/cluster"
	"github.com/dusk-indust/strata/internal/graph"
)

// GenerateMermaid produces a Mermaid flowchart of the dependency graph.
// Files are grouped into cluster subgraphs titled with the cluster's layer;
// edges are deduplicated, since repeated arrows between the same pair add
// nothing to a diagram.
func GenerateMermaid(g *graph.DependencyGraph, clusters []cluster.Cluster) string {
	// Node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(path string) string {
		if id, ok := nodeIDs[path]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[path] = id
		return id
	}

	clustered := make(map[string]bool)
	for _, c := range clusters {
		for _, f := range c.Files {
			clustered[f] = true
		}
	}

	var sb strings.Builder
	sb.WriteString("flowchart LR\n")

	for _, c := range clusters {
		if len(c.Files) == 0 {
			continue
		}
		sorted := make([]string, len(c.Files))
		copy(sorted, c.Files)
		sort.Strings(sorted)

		title := c.Name
		if c.Layer != "" {
			title = fmt.Sprintf("%s (%s)", c.Name, c.Layer)
		}
		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%.60s\"]\n", getID(c.ID+"_cluster"), title))
		for _, f := range sorted {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(f), shortPath(f)))
		}
		sb.WriteString("  end\n")
	}

	// Files outside every cluster still get nodes.
	loose := make([]string, 0)
	for path := range g.Files {
		if !clustered[path] {
			loose = append(loose, path)
		}
	}
	sort.Strings(loose)
	for _, f := range loose {
		sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", getID(f), shortPath(f)))
	}

	sources := make([]string, 0, len(g.Dependencies))
	for s := range g.Dependencies {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	seen := make(map[string]bool)
	for _, source := range sources {
		targets := make([]string, len(g.Dependencies[source]))
		copy(targets, g.Dependencies[source])
		sort.Strings(targets)
		for _, target := range targets {
			key := source + " -> " + target
			if seen[key] {
				continue
			}
			seen[key] = true
			sb.WriteString(fmt.Sprintf("  %s --> %s\n", getID(source), getID(target)))
		}
	}

	return sb.String()
}

// shortPath returns the last 2 path segments for readability.
func shortPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
