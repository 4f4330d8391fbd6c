package graph

// --- Enums ---

// Language identifies a programming language for parsing and resolution.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
)

// ResolvedLanguages are languages whose import specifiers are resolved to
// graph edges. Other supported languages contribute nodes (LOC, exports) only.
var ResolvedLanguages = []Language{LangGo, LangTypeScript, LangJavaScript}

// ExportKind classifies an exported symbol.
type ExportKind string

const (
	ExportKindFunction  ExportKind = "function"
	ExportKindClass     ExportKind = "class"
	ExportKindInterface ExportKind = "interface"
	ExportKindType      ExportKind = "type"
	ExportKindEnum      ExportKind = "enum"
	ExportKindConst     ExportKind = "const"
	ExportKindVariable  ExportKind = "variable"
)

// --- Models ---

// Export is a single exported symbol of a source file.
type Export struct {
	Name      string     `json:"name"`
	Kind      ExportKind `json:"kind"`
	IsDefault bool       `json:"isDefault"`
}

// ImportSet splits a file's import specifiers by origin. Internal specifiers
// point (or appear to point) inside the scanned tree; external specifiers
// reference third-party packages and are tracked but never produce edges.
type ImportSet struct {
	Internal []string `json:"internal"`
	External []string `json:"external"`
}

// ParsedFile holds the per-file facts produced by the extractor. Path is
// absolute; the graph builder normalizes it to a repo-relative key.
type ParsedFile struct {
	Path        string    `json:"path"`
	Language    Language  `json:"language"`
	Exports     []Export  `json:"exports"`
	Imports     ImportSet `json:"imports"`
	LinesOfCode int       `json:"linesOfCode"`
}

// FileNode is a graph-resident file. Path is repo-relative with forward
// slashes. The import split is the extractor's, corrected by the builder for
// alias imports and module-path-prefixed Go imports.
type FileNode struct {
	Path        string    `json:"path"`
	Language    Language  `json:"language"`
	Exports     []Export  `json:"exports"`
	Imports     ImportSet `json:"imports"`
	LinesOfCode int       `json:"linesOfCode"`
}

// DependencyGraph is the project-wide file graph. Every key in Dependencies
// and Dependents also exists in Files. An edge a → b in Dependencies[a]
// implies a appears in Dependents[b]. Edge lists preserve multiplicity: two
// import statements resolving to the same target produce two entries.
type DependencyGraph struct {
	Files        map[string]*FileNode `json:"files"`
	Dependencies map[string][]string  `json:"dependencies"`
	Dependents   map[string][]string  `json:"dependents"`
}

// NewDependencyGraph returns an empty graph with initialized maps.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		Files:        make(map[string]*FileNode),
		Dependencies: make(map[string][]string),
		Dependents:   make(map[string][]string),
	}
}

// GraphStats summarizes a dependency graph for reporting.
type GraphStats struct {
	TotalFiles        int     `json:"totalFiles"`
	TotalDependencies int     `json:"totalDependencies"`
	TotalExports      int     `json:"totalExports"`
	AvgDependencies   float64 `json:"avgDependencies"`
}

// Stats aggregates totals over the graph. TotalDependencies counts edges with
// multiplicity.
func (g *DependencyGraph) Stats() GraphStats {
	stats := GraphStats{TotalFiles: len(g.Files)}
	for _, deps := range g.Dependencies {
		stats.TotalDependencies += len(deps)
	}
	for _, f := range g.Files {
		stats.TotalExports += len(f.Exports)
	}
	if stats.TotalFiles > 0 {
		stats.AvgDependencies = float64(stats.TotalDependencies) / float64(stats.TotalFiles)
	}
	return stats
}
