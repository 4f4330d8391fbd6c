package resolve

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// tsExtensions is the fixed probe order for TS/JS path stems: source,
// typed-source, generated, generated-typed.
var tsExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs"}

// tsSourceExtensions are probed against a stem whose generated-source suffix
// was stripped (specifiers that reference compiled output by convention).
var tsSourceExtensions = []string{".ts", ".tsx"}

// Resolver maps import specifiers to repo-relative file paths. It is built
// once per scan from the set of known files and consults only that set: no
// filesystem probing happens at resolution time. TS/JS specifiers resolve by
// extension and index probing (with alias support via the config cache); Go
// specifiers resolve through a module-path directory index.
type Resolver struct {
	repoRoot     string
	fileSet      map[string]bool
	dirIndex     map[string]string // directory → representative Go file
	goModulePath string
	aliases      *ConfigCache
}

// NewResolver builds a Resolver from the repository root and the known
// repo-relative file paths. The Go directory index holds the first non-test
// Go file encountered per directory, deterministic in the input ordering.
func NewResolver(repoRoot string, knownFiles []string) *Resolver {
	r := &Resolver{
		repoRoot: repoRoot,
		fileSet:  make(map[string]bool, len(knownFiles)),
		dirIndex: make(map[string]string),
		aliases:  NewConfigCache(repoRoot),
	}

	for _, f := range knownFiles {
		r.fileSet[f] = true
		if strings.HasSuffix(f, ".go") && !strings.HasSuffix(f, "_test.go") {
			dir := path.Dir(f)
			if _, ok := r.dirIndex[dir]; !ok {
				r.dirIndex[dir] = f
			}
		}
	}

	r.scanGoMod()
	return r
}

// GoModulePath returns the module path declared by the repository's go.mod,
// or "" when none was found.
func (r *Resolver) GoModulePath() string {
	return r.goModulePath
}

// KnownFile reports whether a repo-relative path is part of the scan.
func (r *Resolver) KnownFile(rel string) bool {
	return r.fileSet[rel]
}

// ResolveImport maps specifier, imported from the repo-relative file
// fromFile, to a repo-relative path. Relative specifiers probe the TS/JS
// candidate order; absolute specifiers try the Go directory index, then the
// alias table nearest fromFile. Returns "" when nothing known matches;
// resolution misses are not errors.
func (r *Resolver) ResolveImport(specifier, fromFile string) string {
	if specifier == "" {
		return ""
	}

	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		stem := path.Join(path.Dir(fromFile), specifier)
		if resolved, ok := r.probe(stem, hasGeneratedSuffix(specifier)); ok {
			return resolved
		}
		return ""
	}

	if resolved, ok := r.resolveGo(specifier); ok {
		return resolved
	}

	return r.ResolveAliasImport(specifier, fromFile)
}

// ResolveAliasImport matches specifier against the effective alias entries of
// the config nearest fromFile. On a pattern match each target is tried in
// declared order against the known file set; the first existing candidate
// wins. Returns "" when no pattern produces a known file.
func (r *Resolver) ResolveAliasImport(specifier, fromFile string) string {
	generated := hasGeneratedSuffix(specifier)
	for _, entry := range r.aliasEntriesFor(fromFile) {
		middle, ok := entry.Match(specifier)
		if !ok {
			continue
		}
		for _, target := range entry.Targets {
			stem := path.Clean(substituteStar(target, middle))
			if resolved, ok := r.probe(stem, generated); ok {
				return resolved
			}
		}
	}
	return ""
}

// IsAliasImport reports whether specifier matches any alias pattern for the
// config nearest fromFile, regardless of whether a concrete file exists. A
// true result with a failed resolution means "internal but unresolved", not
// "external".
func (r *Resolver) IsAliasImport(specifier, fromFile string) bool {
	for _, entry := range r.aliasEntriesFor(fromFile) {
		if _, ok := entry.Match(specifier); ok {
			return true
		}
	}
	return false
}

// IsModuleImport reports whether specifier addresses a package under the
// repository's Go module path.
func (r *Resolver) IsModuleImport(specifier string) bool {
	if r.goModulePath == "" {
		return false
	}
	return specifier == r.goModulePath || strings.HasPrefix(specifier, r.goModulePath+"/")
}

// resolveGo maps a Go import path to the representative file of its package
// directory. Go imports are package-addressed, so the answer is a direct
// index lookup; stdlib and external module paths never resolve.
func (r *Resolver) resolveGo(specifier string) (string, bool) {
	if !r.IsModuleImport(specifier) {
		return "", false
	}
	relDir := strings.TrimPrefix(specifier, r.goModulePath)
	relDir = strings.TrimPrefix(relDir, "/")
	if relDir == "" {
		relDir = "."
	}
	f, ok := r.dirIndex[relDir]
	return f, ok
}

// aliasEntriesFor returns the effective alias entries governing a
// repo-relative file, or nil when no module config is in scope.
func (r *Resolver) aliasEntriesFor(fromFile string) []AliasEntry {
	abs := filepath.Join(r.repoRoot, filepath.FromSlash(fromFile))
	configPath := r.aliases.FindNearestConfig(abs)
	if configPath == "" {
		return nil
	}
	return r.aliases.LoadAliasEntries(configPath)
}

// probe checks candidates for a path stem in the fixed order: the stem
// itself; stem plus each extension; stem plus /index plus each extension;
// and, when the originating specifier carried a generated-source suffix, the
// stem with that suffix stripped plus each typed-source extension. The first
// candidate present in the known file set wins. No filesystem I/O.
func (r *Resolver) probe(stem string, generatedSuffix bool) (string, bool) {
	if r.fileSet[stem] {
		return stem, true
	}
	for _, ext := range tsExtensions {
		if candidate := stem + ext; r.fileSet[candidate] {
			return candidate, true
		}
	}
	for _, ext := range tsExtensions {
		if candidate := stem + "/index" + ext; r.fileSet[candidate] {
			return candidate, true
		}
	}
	if generatedSuffix && strings.HasSuffix(stem, ".js") {
		base := strings.TrimSuffix(stem, ".js")
		for _, ext := range tsSourceExtensions {
			if candidate := base + ext; r.fileSet[candidate] {
				return candidate, true
			}
		}
	}
	return "", false
}

func hasGeneratedSuffix(specifier string) bool {
	return strings.HasSuffix(specifier, ".js")
}

// scanGoMod reads the module path from the repository root's go.mod, if any.
func (r *Resolver) scanGoMod() {
	f, err := os.Open(filepath.Join(r.repoRoot, "go.mod"))
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "module ") {
			r.goModulePath = strings.TrimSpace(strings.TrimPrefix(line, "module"))
			return
		}
	}
}
