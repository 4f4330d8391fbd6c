package cluster

import (
	"path"
	"sort"
	"strings"

	"github.com/dusk-indust/strata/internal/graph"
)

// Layer classifies what architectural stratum a cluster belongs to.
type Layer string

const (
	LayerFrontend       Layer = "frontend"
	LayerBackend        Layer = "backend"
	LayerShared         Layer = "shared"
	LayerInfrastructure Layer = "infrastructure"
	LayerFullstack      Layer = "fullstack"
	LayerSmell          Layer = "smell"
)

// KnownLayers enumerates every valid Layer value, for boundary validation.
var KnownLayers = []Layer{
	LayerFrontend,
	LayerBackend,
	LayerShared,
	LayerInfrastructure,
	LayerFullstack,
	LayerSmell,
}

// LayerDetection records how a layer classification was reached.
type LayerDetection struct {
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Signals    []string `json:"signals,omitempty" yaml:"signals,omitempty"`
}

// Cluster is a folder-scoped grouping of files. Files, Layer,
// LayerDetection, ExternalDependencies, and CompositionHash are recomputed
// every scan; ID, PurposeHint, EntryPoints, and Metadata survive rescans when
// the identity matcher accepts a match against a persisted cluster.
type Cluster struct {
	ID                   string            `json:"id" yaml:"id"`
	Name                 string            `json:"name" yaml:"name"`
	Files                []string          `json:"files" yaml:"files"`
	ExternalDependencies []string          `json:"externalDependencies,omitempty" yaml:"external_dependencies,omitempty"`
	Layer                Layer             `json:"layer" yaml:"layer"`
	LayerDetection       LayerDetection    `json:"layerDetection" yaml:"layer_detection"`
	PurposeHint          string            `json:"purposeHint,omitempty" yaml:"purpose_hint,omitempty"`
	EntryPoints          []string          `json:"entryPoints,omitempty" yaml:"entry_points,omitempty"`
	CompositionHash      string            `json:"compositionHash" yaml:"composition_hash"`
	Metadata             map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Options tune the folder-grouping granularity.
type Options struct {
	// MaxDepth is the directory depth clusters are cut at: deeper folders
	// fold into their depth-MaxDepth ancestor.
	MaxDepth int
	// MinFiles is the smallest population a folder keeps its own cluster
	// with; smaller folders roll up into their parent.
	MinFiles int
}

// DefaultOptions returns the grouping granularity used when the caller has
// no opinion.
func DefaultOptions() Options {
	return Options{MaxDepth: 2, MinFiles: 2}
}

// GroupByFolders partitions the graph's files into folder clusters.
//
// Algorithm:
//  1. Bucket every file by its directory, truncated to MaxDepth segments.
//  2. Roll buckets smaller than MinFiles into their parent, deepest first,
//     until the bucket sticks or reaches the repository root.
//  3. Emit one cluster per bucket: the folder names the cluster, external
//     dependencies are the sorted union over members, entry points are
//     detected from conventional file stems, and the provisional ID is
//     derived from the folder name so an unmatched cluster keeps the same
//     ID on the next scan of an unchanged tree.
//
// Output is sorted by name; member lists are sorted. Layer classification
// and the composition hash are filled in for every cluster.
func GroupByFolders(g *graph.DependencyGraph, opts Options) []Cluster {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultOptions().MaxDepth
	}
	if opts.MinFiles <= 0 {
		opts.MinFiles = DefaultOptions().MinFiles
	}

	paths := make([]string, 0, len(g.Files))
	for p := range g.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	buckets := make(map[string][]string)
	for _, p := range paths {
		dir := truncateDir(path.Dir(p), opts.MaxDepth)
		buckets[dir] = append(buckets[dir], p)
	}

	rollUpSmall(buckets, opts.MinFiles)

	dirs := make([]string, 0, len(buckets))
	for dir := range buckets {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	clusters := make([]Cluster, 0, len(dirs))
	for _, dir := range dirs {
		files := buckets[dir]
		sort.Strings(files)

		externals := unionExternals(g, files)
		layer, detection := ClassifyLayer(files, externals)

		name := dir
		if name == "." {
			name = "root"
		}

		clusters = append(clusters, Cluster{
			ID:                   ProvisionalID(name),
			Name:                 name,
			Files:                files,
			ExternalDependencies: externals,
			Layer:                layer,
			LayerDetection:       detection,
			EntryPoints:          detectEntryPoints(files, dir),
			CompositionHash:      CompositionHash(files),
		})
	}
	return clusters
}

// truncateDir cuts a directory path to at most depth segments.
func truncateDir(dir string, depth int) string {
	if dir == "." || dir == "" {
		return "."
	}
	segs := strings.Split(dir, "/")
	if len(segs) <= depth {
		return dir
	}
	return strings.Join(segs[:depth], "/")
}

// parentDir returns the bucket one segment up, with "." as the final root.
func parentDir(dir string) string {
	idx := strings.LastIndex(dir, "/")
	if idx < 0 {
		return "."
	}
	return dir[:idx]
}

// rollUpSmall merges buckets below the population floor into their parents,
// deepest first so a parent can accumulate enough children to stick. The
// root bucket never rolls up.
func rollUpSmall(buckets map[string][]string, minFiles int) {
	dirs := make([]string, 0, len(buckets))
	for dir := range buckets {
		dirs = append(dirs, dir)
	}
	// Deepest first; lexical order within a depth keeps the pass stable.
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := strings.Count(dirs[i], "/"), strings.Count(dirs[j], "/")
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})

	for _, dir := range dirs {
		if dir == "." {
			continue
		}
		files := buckets[dir]
		if len(files) >= minFiles {
			continue
		}
		parent := parentDir(dir)
		buckets[parent] = append(buckets[parent], files...)
		delete(buckets, dir)
	}
}

// unionExternals returns the sorted set union of member files' external
// import specifiers.
func unionExternals(g *graph.DependencyGraph, files []string) []string {
	seen := make(map[string]bool)
	for _, f := range files {
		node, ok := g.Files[f]
		if !ok {
			continue
		}
		for _, spec := range node.Imports.External {
			seen[spec] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for spec := range seen {
		out = append(out, spec)
	}
	sort.Strings(out)
	return out
}

// detectEntryPoints flags member files with conventional entry stems. Only
// files directly in the cluster folder count; nested index files belong to
// their own subfolder's story.
func detectEntryPoints(files []string, dir string) []string {
	var out []string
	for _, f := range files {
		if path.Dir(f) != dir {
			continue
		}
		base := path.Base(f)
		stem := strings.TrimSuffix(base, path.Ext(base))
		if stem == "index" || stem == "main" {
			out = append(out, f)
		}
	}
	return out
}
