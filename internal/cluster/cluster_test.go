package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/strata/internal/graph"
)

// buildGraph seeds a DependencyGraph with the given files and per-file
// external imports.
func buildGraph(t *testing.T, files map[string][]string) *graph.DependencyGraph {
	t.Helper()
	g := graph.NewDependencyGraph()
	for p, externals := range files {
		g.Files[p] = &graph.FileNode{
			Path:     p,
			Language: graph.LangTypeScript,
			Imports:  graph.ImportSet{External: externals},
		}
		g.Dependencies[p] = []string{}
		g.Dependents[p] = []string{}
	}
	return g
}

func TestGroupByFoldersPartition(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"src/auth/login.ts": nil,
		"src/auth/token.ts": nil,
		"src/api/routes.ts": nil,
		"src/api/server.ts": nil,
	})

	clusters := GroupByFolders(g, Options{MaxDepth: 2, MinFiles: 2})
	require.Len(t, clusters, 2)

	assert.Equal(t, "src/api", clusters[0].Name)
	assert.Equal(t, []string{"src/api/routes.ts", "src/api/server.ts"}, clusters[0].Files)
	assert.Equal(t, "src/auth", clusters[1].Name)
	assert.Equal(t, []string{"src/auth/login.ts", "src/auth/token.ts"}, clusters[1].Files)
}

func TestGroupByFoldersMaxDepthTruncation(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"src/features/auth/login.ts":   nil,
		"src/features/auth/session.ts": nil,
		"src/features/cart/cart.ts":    nil,
		"src/features/cart/items.ts":   nil,
	})

	clusters := GroupByFolders(g, Options{MaxDepth: 2, MinFiles: 2})
	require.Len(t, clusters, 1)
	assert.Equal(t, "src/features", clusters[0].Name)
	assert.Len(t, clusters[0].Files, 4)
}

func TestGroupByFoldersRollsUpSmallFolders(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"src/app.ts":       nil,
		"src/main.ts":      nil,
		"src/tiny/only.ts": nil,
	})

	clusters := GroupByFolders(g, Options{MaxDepth: 3, MinFiles: 2})
	require.Len(t, clusters, 1)
	assert.Equal(t, "src", clusters[0].Name)
	assert.Contains(t, clusters[0].Files, "src/tiny/only.ts")
}

func TestGroupByFoldersRootCluster(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"main.go":  nil,
		"tools.go": nil,
	})

	clusters := GroupByFolders(g, DefaultOptions())
	require.Len(t, clusters, 1)
	assert.Equal(t, "root", clusters[0].Name)
	assert.Equal(t, ProvisionalID("root"), clusters[0].ID)
}

func TestGroupByFoldersExternalUnion(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"src/api/a.ts": {"express", "zod"},
		"src/api/b.ts": {"zod", "pg"},
	})

	clusters := GroupByFolders(g, DefaultOptions())
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"express", "pg", "zod"}, clusters[0].ExternalDependencies)
}

func TestGroupByFoldersEntryPoints(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"src/core/index.ts":        nil,
		"src/core/engine.ts":       nil,
		"src/core/nested/index.ts": nil,
	})

	clusters := GroupByFolders(g, Options{MaxDepth: 2, MinFiles: 2})
	require.Len(t, clusters, 1)
	// Only the index directly in the cluster folder counts as an entry point.
	assert.Equal(t, []string{"src/core/index.ts"}, clusters[0].EntryPoints)
}

func TestGroupByFoldersDeterministic(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"src/a/x.ts": {"react"},
		"src/a/y.ts": nil,
		"src/b/x.ts": {"express"},
		"src/b/y.ts": nil,
	})

	first := GroupByFolders(g, DefaultOptions())
	second := GroupByFolders(g, DefaultOptions())
	assert.Equal(t, first, second)
}

func TestCompositionHashIgnoresOrder(t *testing.T) {
	a := CompositionHash([]string{"a.ts", "b.ts", "c.ts"})
	b := CompositionHash([]string{"c.ts", "a.ts", "b.ts"})
	if a != b {
		t.Fatalf("hash should be order-independent: %s vs %s", a, b)
	}
	if a == CompositionHash([]string{"a.ts", "b.ts"}) {
		t.Fatal("different file sets must hash differently")
	}
}
