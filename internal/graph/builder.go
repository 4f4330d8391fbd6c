package graph

import (
	"path/filepath"

	"github.com/dusk-indust/strata/internal/resolve"
)

// Builder turns per-file facts into a DependencyGraph. Resolution failures
// are silent: a project may legitimately import something outside the scanned
// set, so a specifier that maps to no known file contributes no edge.
type Builder struct {
	repoRoot string
	resolver *resolve.Resolver
}

// NewBuilder creates a Builder for one scan. The resolver must be built from
// the same file list the parsed facts describe.
func NewBuilder(repoRoot string, resolver *resolve.Resolver) *Builder {
	return &Builder{repoRoot: repoRoot, resolver: resolver}
}

// Build constructs the graph in one deterministic pass over parsed, in input
// order. Every file is seeded with empty adjacency lists first, so files
// without edges still appear as keys. Edge lists keep multiplicity: two
// imports of the same target are two entries.
func (b *Builder) Build(parsed []*ParsedFile) *DependencyGraph {
	g := NewDependencyGraph()

	keys := make([]string, len(parsed))
	for i, pf := range parsed {
		key := b.relKey(pf.Path)
		keys[i] = key
		g.Files[key] = &FileNode{
			Path:        key,
			Language:    pf.Language,
			Exports:     pf.Exports,
			LinesOfCode: pf.LinesOfCode,
		}
		g.Dependencies[key] = []string{}
		g.Dependents[key] = []string{}
	}

	for i, pf := range parsed {
		b.wireFile(g, keys[i], pf)
	}
	return g
}

// wireFile resolves one file's specifiers, appends edges, and corrects the
// syntactic import split. The extractor classifies by specifier shape alone:
// alias imports and module-path Go imports land on the external side until
// the resolver has a say.
func (b *Builder) wireFile(g *DependencyGraph, key string, pf *ParsedFile) {
	node := g.Files[key]

	for _, spec := range pf.Imports.Internal {
		node.Imports.Internal = append(node.Imports.Internal, spec)
		if !resolvedLanguage(pf.Language) {
			continue
		}
		if target := b.resolver.ResolveImport(spec, key); target != "" {
			b.addEdge(g, key, target)
		}
	}

	for _, spec := range pf.Imports.External {
		if !resolvedLanguage(pf.Language) {
			node.Imports.External = append(node.Imports.External, spec)
			continue
		}

		if target := b.resolver.ResolveImport(spec, key); target != "" {
			node.Imports.Internal = append(node.Imports.Internal, spec)
			b.addEdge(g, key, target)
			continue
		}

		// Unresolved, but shaped like something internal: an alias pattern
		// matched or the specifier sits under the module path. Internal but
		// dangling, not external.
		if b.resolver.IsAliasImport(spec, key) || b.resolver.IsModuleImport(spec) {
			node.Imports.Internal = append(node.Imports.Internal, spec)
			continue
		}
		node.Imports.External = append(node.Imports.External, spec)
	}
}

func (b *Builder) addEdge(g *DependencyGraph, source, target string) {
	g.Dependencies[source] = append(g.Dependencies[source], target)
	if _, known := g.Files[target]; known {
		g.Dependents[target] = append(g.Dependents[target], source)
	}
}

// relKey normalizes a parsed path to the repo-relative forward-slash form
// every downstream structure keys on. Paths already relative pass through.
func (b *Builder) relKey(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(b.repoRoot, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func resolvedLanguage(lang Language) bool {
	for _, l := range ResolvedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
