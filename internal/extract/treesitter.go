package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/dusk-indust/strata/internal/graph"
)

// extractor pulls exports and import specifiers out of a parsed tree-sitter
// AST. Specifiers are split syntactically: relative-looking ones are
// internal, the rest external. The graph builder corrects the split for
// alias and module-path imports, where shape alone is not enough.
type extractor interface {
	Extract(root *tree_sitter.Node, source []byte) ([]graph.Export, graph.ImportSet)
}

// TreeSitterParser implements the Parser interface using tree-sitter
// grammars. Each Parse call owns its own tree-sitter parser and the grammar
// and extractor maps are read-only after construction, so concurrent Parse
// calls are safe.
type TreeSitterParser struct {
	languages  map[graph.Language]*tree_sitter.Language
	tsx        *tree_sitter.Language
	extractors map[graph.Language]extractor
}

// NewTreeSitterParser creates a TreeSitterParser with TypeScript, JavaScript,
// Go, Python, and Rust grammars registered. JavaScript parses with the
// TypeScript grammar (a superset); .tsx/.jsx files use the TSX grammar.
func NewTreeSitterParser() *TreeSitterParser {
	ts := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())

	langs := map[graph.Language]*tree_sitter.Language{
		graph.LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
		graph.LangTypeScript: ts,
		graph.LangJavaScript: ts,
		graph.LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		graph.LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
	}

	script := &scriptExtractor{}
	extractors := map[graph.Language]extractor{
		graph.LangGo:         &goExtractor{},
		graph.LangTypeScript: script,
		graph.LangJavaScript: script,
		graph.LangPython:     &pyExtractor{},
		graph.LangRust:       &rsExtractor{},
	}

	return &TreeSitterParser{
		languages:  langs,
		tsx:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		extractors: extractors,
	}
}

// Parse extracts exports, imports, and line counts from a single source file.
func (p *TreeSitterParser) Parse(_ context.Context, path string, source []byte, lang graph.Language) (*graph.ParsedFile, error) {
	tsLang, ok := p.languages[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	if needsJSXGrammar(path, lang) {
		tsLang = p.tsx
	}

	ext, ok := p.extractors[lang]
	if !ok {
		return nil, fmt.Errorf("no extractor for language: %s", lang)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	exports, imports := ext.Extract(tree.RootNode(), source)

	return &graph.ParsedFile{
		Path:        path,
		Language:    lang,
		Exports:     exports,
		Imports:     imports,
		LinesOfCode: countLines(source),
	}, nil
}

// SupportedLanguages returns the languages this parser can handle.
func (p *TreeSitterParser) SupportedLanguages() []graph.Language {
	langs := make([]graph.Language, 0, len(p.languages))
	for l := range p.languages {
		langs = append(langs, l)
	}
	return langs
}

// Close is a no-op because parsers are created per Parse call.
func (p *TreeSitterParser) Close() error {
	return nil
}

// needsJSXGrammar reports whether path must parse with the TSX grammar: JSX
// syntax is ambiguous under the plain TypeScript grammar.
func needsJSXGrammar(path string, lang graph.Language) bool {
	if lang != graph.LangTypeScript && lang != graph.LangJavaScript {
		return false
	}
	return strings.HasSuffix(path, ".tsx") || strings.HasSuffix(path, ".jsx")
}

// countLines counts the number of lines in source by counting newline bytes
// and adding one for the final line if the source is non-empty.
func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	return bytes.Count(source, []byte{'\n'}) + 1
}

// isRelativeSpecifier reports whether an import specifier addresses a file
// relative to the importer.
func isRelativeSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}
