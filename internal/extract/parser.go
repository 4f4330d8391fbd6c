package extract

import (
	"context"

	"github.com/dusk-indust/strata/internal/graph"
)

// Parser extracts per-file facts from source files.
// Implementations: TreeSitterParser (production), stub parsers in tests.
type Parser interface {
	// Parse extracts exports, import specifiers, and line counts from a
	// single source file. source is the file content. lang determines which
	// grammar to use. The returned Path is whatever path was passed in.
	Parse(ctx context.Context, path string, source []byte, lang graph.Language) (*graph.ParsedFile, error)

	// SupportedLanguages returns the languages this parser can handle.
	SupportedLanguages() []graph.Language

	// Close releases parser resources (tree-sitter C memory).
	Close() error
}
