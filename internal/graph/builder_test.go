package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/strata/internal/resolve"
)

func writeProjectFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func tsFile(path string, internal, external []string) *ParsedFile {
	return &ParsedFile{
		Path:     path,
		Language: LangTypeScript,
		Imports:  ImportSet{Internal: internal, External: external},
	}
}

func TestBuildRelativeEdges(t *testing.T) {
	root := t.TempDir()
	files := []string{"src/a.ts", "src/b.ts", "src/c.ts"}
	r := resolve.NewResolver(root, files)

	parsed := []*ParsedFile{
		tsFile("src/a.ts", []string{"./b", "./missing"}, nil),
		tsFile("src/b.ts", []string{"./c"}, nil),
		tsFile("src/c.ts", nil, nil),
	}

	g := NewBuilder(root, r).Build(parsed)

	require.Len(t, g.Files, 3)
	assert.Equal(t, []string{"src/b.ts"}, g.Dependencies["src/a.ts"])
	assert.Equal(t, []string{"src/c.ts"}, g.Dependencies["src/b.ts"])
	assert.Equal(t, []string{"src/a.ts"}, g.Dependents["src/b.ts"])
	assert.Equal(t, []string{"src/b.ts"}, g.Dependents["src/c.ts"])

	// Files without edges still appear as adjacency keys.
	deps, ok := g.Dependencies["src/c.ts"]
	require.True(t, ok)
	assert.Empty(t, deps)

	// The unresolvable "./missing" stays on the internal list with no edge.
	assert.Contains(t, g.Files["src/a.ts"].Imports.Internal, "./missing")
}

func TestBuildPreservesEdgeMultiplicity(t *testing.T) {
	root := t.TempDir()
	r := resolve.NewResolver(root, []string{"src/a.ts", "src/b.ts"})

	// Import + re-export of the same target: two specifiers, two edges.
	parsed := []*ParsedFile{
		tsFile("src/a.ts", []string{"./b", "./b"}, nil),
		tsFile("src/b.ts", nil, nil),
	}

	g := NewBuilder(root, r).Build(parsed)

	assert.Equal(t, []string{"src/b.ts", "src/b.ts"}, g.Dependencies["src/a.ts"])
	assert.Equal(t, []string{"src/a.ts", "src/a.ts"}, g.Dependents["src/b.ts"])
}

func TestBuildReclassifiesAliasImports(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, filepath.Join(root, "tsconfig.json"), `{
  "compilerOptions": {
    "baseUrl": ".",
    "paths": {
      "@app/*": ["src/*"]
    }
  }
}`)

	files := []string{"src/main.ts", "src/utils/log.ts"}
	r := resolve.NewResolver(root, files)

	parsed := []*ParsedFile{
		// The extractor files alias imports as external; the builder corrects
		// the split once the alias table has been consulted.
		tsFile("src/main.ts", nil, []string{"@app/utils/log", "@app/utils/missing", "lodash"}),
		tsFile("src/utils/log.ts", nil, nil),
	}

	g := NewBuilder(root, r).Build(parsed)

	assert.Equal(t, []string{"src/utils/log.ts"}, g.Dependencies["src/main.ts"])
	assert.Equal(t, []string{"src/main.ts"}, g.Dependents["src/utils/log.ts"])

	main := g.Files["src/main.ts"]
	assert.Equal(t, []string{"@app/utils/log", "@app/utils/missing"}, main.Imports.Internal,
		"a matched pattern without a file is internal-unresolved, not external")
	assert.Equal(t, []string{"lodash"}, main.Imports.External)
}

func TestBuildReclassifiesGoModuleImports(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, filepath.Join(root, "go.mod"), "module example.com/userapi\n\ngo 1.22\n")

	files := []string{"main.go", "model/model.go", "store/store.go"}
	r := resolve.NewResolver(root, files)

	parsed := []*ParsedFile{
		{
			Path:     "main.go",
			Language: LangGo,
			Imports: ImportSet{External: []string{
				"fmt",
				"example.com/userapi/model",
				"example.com/userapi/store",
				"example.com/userapi/generated",
			}},
		},
		{
			Path:     "model/model.go",
			Language: LangGo,
		},
		{
			Path:     "store/store.go",
			Language: LangGo,
			Imports:  ImportSet{External: []string{"example.com/userapi/model", "sync"}},
		},
	}

	g := NewBuilder(root, r).Build(parsed)

	assert.Equal(t, []string{"model/model.go", "store/store.go"}, g.Dependencies["main.go"])
	assert.Equal(t, []string{"main.go", "store/store.go"}, g.Dependents["model/model.go"])

	main := g.Files["main.go"]
	// The generated package is under the module path but outside the scan:
	// internal but dangling, no edge.
	assert.Equal(t, []string{
		"example.com/userapi/model",
		"example.com/userapi/store",
		"example.com/userapi/generated",
	}, main.Imports.Internal)
	assert.Equal(t, []string{"fmt"}, main.Imports.External)
}

func TestBuildNodeOnlyLanguages(t *testing.T) {
	root := t.TempDir()
	r := resolve.NewResolver(root, []string{"models.py", "service.py"})

	parsed := []*ParsedFile{
		{
			Path:     "service.py",
			Language: LangPython,
			Imports:  ImportSet{Internal: []string{".models"}, External: []string{"uuid"}},
		},
		{
			Path:     "models.py",
			Language: LangPython,
		},
	}

	g := NewBuilder(root, r).Build(parsed)

	assert.Empty(t, g.Dependencies["service.py"], "Python imports never become edges")
	assert.Equal(t, []string{".models"}, g.Files["service.py"].Imports.Internal)
	assert.Equal(t, []string{"uuid"}, g.Files["service.py"].Imports.External)
}

func TestBuildNormalizesAbsolutePaths(t *testing.T) {
	root := t.TempDir()
	r := resolve.NewResolver(root, []string{"src/a.ts", "src/b.ts"})

	parsed := []*ParsedFile{
		tsFile(filepath.Join(root, "src", "a.ts"), []string{"./b"}, nil),
		tsFile(filepath.Join(root, "src", "b.ts"), nil, nil),
	}

	g := NewBuilder(root, r).Build(parsed)

	require.Contains(t, g.Files, "src/a.ts")
	require.Contains(t, g.Files, "src/b.ts")
	assert.Equal(t, []string{"src/b.ts"}, g.Dependencies["src/a.ts"])
}

func TestGraphStats(t *testing.T) {
	root := t.TempDir()
	r := resolve.NewResolver(root, []string{"src/a.ts", "src/b.ts"})

	parsed := []*ParsedFile{
		{
			Path:     "src/a.ts",
			Language: LangTypeScript,
			Exports:  []Export{{Name: "main", Kind: ExportKindFunction}},
			Imports:  ImportSet{Internal: []string{"./b", "./b"}},
		},
		{
			Path:     "src/b.ts",
			Language: LangTypeScript,
			Exports: []Export{
				{Name: "helper", Kind: ExportKindFunction},
				{Name: "VERSION", Kind: ExportKindConst},
			},
		},
	}

	g := NewBuilder(root, r).Build(parsed)
	stats := g.Stats()

	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 2, stats.TotalDependencies, "multiplicity counts")
	assert.Equal(t, 3, stats.TotalExports)
	assert.InDelta(t, 1.0, stats.AvgDependencies, 1e-9)
}
