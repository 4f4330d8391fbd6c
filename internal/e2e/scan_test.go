//go:build e2e

package e2e

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dusk-indust/strata/internal/cluster"
	"github.com/dusk-indust/strata/internal/extract"
	"github.com/dusk-indust/strata/internal/persist"
	"github.com/dusk-indust/strata/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyFixture copies one testdata fixture tree into a fresh temp directory,
// so scans can persist cluster records without dirtying testdata.
func copyFixture(t *testing.T, name string) string {
	t.Helper()

	src := filepath.Join("..", "..", "testdata", "fixtures", name)
	dst := t.TempDir()

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)
	return dst
}

func runScan(t *testing.T, root string, opts scan.Options) *scan.Result {
	t.Helper()

	parser := extract.NewTreeSitterParser()
	defer parser.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := scan.NewScanner(root, parser, opts, nil).Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func clusterByName(clusters []cluster.Cluster, name string) *cluster.Cluster {
	for i := range clusters {
		if clusters[i].Name == name {
			return &clusters[i]
		}
	}
	return nil
}

func TestScan_TypeScriptProject(t *testing.T) {
	root := copyFixture(t, "ts_project")
	result := runScan(t, root, scan.Options{Persist: true})

	assert.True(t, result.Profile.HasModuleConfig)
	assert.Equal(t, 6, result.Stats.TotalFiles)
	assert.Equal(t, 7, result.Stats.TotalDependencies,
		"re-export and alias duplicate keep multiplicity")

	deps := result.Graph.Dependencies
	assert.Contains(t, deps["src/index.ts"], "src/service.ts")
	assert.Contains(t, deps["src/index.ts"], "src/utils/format.ts",
		"@app/* alias from the root tsconfig")
	assert.Contains(t, deps["src/index.ts"], "src/models/user.ts",
		"@models/* alias inherited through extends")
	assert.Contains(t, deps["src/service.ts"], "src/models/user.ts")
	assert.Contains(t, deps["src/legacy/logger.js"], "src/legacy/util.js",
		"require() in legacy JS resolves like an import")

	// lodash never resolves to a file, so it stays an external of the
	// importing cluster rather than becoming an edge.
	require.Len(t, result.Clusters, 2)
	src := clusterByName(result.Clusters, "src")
	require.NotNil(t, src, "single-file folders roll up into src")
	assert.Len(t, src.Files, 4)
	assert.Contains(t, src.ExternalDependencies, "lodash/groupBy")

	legacy := clusterByName(result.Clusters, "src/legacy")
	require.NotNil(t, legacy)
	assert.ElementsMatch(t, []string{"src/legacy/logger.js", "src/legacy/util.js"}, legacy.Files)

	// First scan of a fresh tree: nothing to match, record written.
	assert.Empty(t, result.Match.Matches)
	assert.Empty(t, result.Match.Orphaned)
	assert.True(t, result.Saved)

	saved, err := persist.Load(persist.DefaultPath(root))
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestScan_RescanKeepsClusterIdentity(t *testing.T) {
	root := copyFixture(t, "ts_project")

	first := runScan(t, root, scan.Options{Persist: true})
	require.Len(t, first.Clusters, 2)
	idsByName := map[string]string{}
	for _, c := range first.Clusters {
		idsByName[c.Name] = c.ID
	}

	// Grow the legacy folder; its file set now overlaps 2/3 with the record.
	extra := filepath.Join(root, "src", "legacy", "metrics.js")
	require.NoError(t, os.WriteFile(extra, []byte("const { pad } = require(\"./util\");\nmodule.exports = { pad };\n"), 0o644))

	second := runScan(t, root, scan.Options{Persist: true})
	require.Len(t, second.Clusters, 2)
	assert.Len(t, second.Match.Matches, 2)
	assert.Empty(t, second.Match.Orphaned)

	for _, c := range second.Clusters {
		assert.Equal(t, idsByName[c.Name], c.ID, "cluster %q should keep its ID", c.Name)
	}

	legacy := clusterByName(second.Clusters, "src/legacy")
	require.NotNil(t, legacy)
	assert.Len(t, legacy.Files, 3)
}

func TestScan_UnchangedRescanDoesNotRewriteRecord(t *testing.T) {
	root := copyFixture(t, "ts_project")

	first := runScan(t, root, scan.Options{Persist: true})
	require.True(t, first.Saved)

	recordPath := persist.DefaultPath(root)
	before, err := os.Stat(recordPath)
	require.NoError(t, err)

	second := runScan(t, root, scan.Options{Persist: true})
	assert.False(t, second.Saved)

	after, err := os.Stat(recordPath)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestScan_GoProject(t *testing.T) {
	root := copyFixture(t, "go_project")
	result := runScan(t, root, scan.Options{
		Cluster: cluster.Options{MaxDepth: 2, MinFiles: 1},
	})

	assert.Equal(t, "example.com/userapi", result.Profile.GoModulePath)
	assert.Equal(t, 3, result.Stats.TotalFiles)
	assert.Equal(t, 3, result.Stats.TotalDependencies)

	deps := result.Graph.Dependencies
	assert.Contains(t, deps["main.go"], "model/model.go")
	assert.Contains(t, deps["main.go"], "store/store.go")
	assert.Contains(t, deps["store/store.go"], "model/model.go")

	require.Len(t, result.Clusters, 3)
	for _, name := range []string{"root", "model", "store"} {
		assert.NotNil(t, clusterByName(result.Clusters, name), "missing cluster %q", name)
	}
}

func TestScan_GraphIntegrity(t *testing.T) {
	for _, fixture := range []string{"ts_project", "go_project", "py_project", "rs_project"} {
		t.Run(fixture, func(t *testing.T) {
			root := copyFixture(t, fixture)
			result := runScan(t, root, scan.Options{})
			assert.Empty(t, scan.CheckIntegrity(result.Graph))
		})
	}
}
