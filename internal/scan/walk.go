package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/strata/internal/graph"
)

// extToLanguage maps file extensions to the language that parses them.
var extToLanguage = map[string]graph.Language{
	".go":  graph.LangGo,
	".ts":  graph.LangTypeScript,
	".tsx": graph.LangTypeScript,
	".js":  graph.LangJavaScript,
	".jsx": graph.LangJavaScript,
	".mjs": graph.LangJavaScript,
	".py":  graph.LangPython,
	".rs":  graph.LangRust,
}

// defaultIgnoreDirs are directory names skipped by every walk unless the
// configuration says otherwise.
var defaultIgnoreDirs = []string{
	"node_modules", "dist", "build", "vendor", "target", ".strata",
}

// SourceFile is one file collected by the walk.
type SourceFile struct {
	// AbsPath is the on-disk location used for reading.
	AbsPath string
	// RelPath is the repo-relative forward-slash key used everywhere else.
	RelPath string
	// Language is derived from the file extension.
	Language graph.Language
}

// Walk collects the source files under root, in deterministic lexical order.
// Hidden directories, .git, and the ignore list are skipped. Files with
// unrecognized extensions are skipped silently. A walk error on a path that
// was supposed to be readable aborts: the scan's completeness depends on
// seeing the whole tree.
func Walk(root string, extraIgnore []string) ([]SourceFile, error) {
	ignore := make(map[string]bool, len(defaultIgnoreDirs)+len(extraIgnore))
	for _, d := range defaultIgnoreDirs {
		ignore[d] = true
	}
	for _, d := range extraIgnore {
		ignore[d] = true
	}

	var files []SourceFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scan: walk %s: %w", path, err)
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if ignore[name] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		lang, ok := extToLanguage[filepath.Ext(name)]
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("scan: relativize %s: %w", path, err)
		}
		files = append(files, SourceFile{
			AbsPath:  path,
			RelPath:  filepath.ToSlash(rel),
			Language: lang,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// RelPaths projects the walk result to its repo-relative keys.
func RelPaths(files []SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}
