package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/strata/internal/graph"
)

// goExtractor extracts exported top-level declarations and import specs from
// Go source files.
type goExtractor struct{}

func (e *goExtractor) Extract(root *tree_sitter.Node, source []byte) ([]graph.Export, graph.ImportSet) {
	var exports []graph.Export
	var imports graph.ImportSet

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, &exports, &imports)
	return exports, imports
}

func (e *goExtractor) walk(
	cursor *tree_sitter.TreeCursor,
	source []byte,
	exports *[]graph.Export,
	imports *graph.ImportSet,
) {
	node := cursor.Node()
	kind := node.Kind()

	switch kind {
	case "function_declaration":
		if sym := e.extractFunction(node, source); sym != nil {
			*exports = append(*exports, *sym)
		}

	case "type_declaration":
		*exports = append(*exports, e.extractTypeDeclaration(node, source)...)

	case "const_declaration":
		*exports = append(*exports, e.extractValueSpecs(node, source, "const_spec", graph.ExportKindConst)...)

	case "var_declaration":
		*exports = append(*exports, e.extractValueSpecs(node, source, "var_spec", graph.ExportKindVariable)...)

	case "import_spec":
		// Go has no relative import form: every spec starts external and the
		// graph builder reclassifies module-path imports as internal.
		if path := e.importPath(node, source); path != "" {
			imports.External = append(imports.External, path)
		}
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, exports, imports)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, exports, imports)
		}
		cursor.GotoParent()
	}
}

func (e *goExtractor) extractFunction(node *tree_sitter.Node, source []byte) *graph.Export {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	if !isGoExported(name) {
		return nil
	}
	return &graph.Export{Name: name, Kind: graph.ExportKindFunction}
}

func (e *goExtractor) extractTypeDeclaration(node *tree_sitter.Node, source []byte) []graph.Export {
	var result []graph.Export

	// type_declaration contains one or more type_spec children.
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "type_spec" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Utf8Text(source)
		if !isGoExported(name) {
			continue
		}

		symbolKind := graph.ExportKindType
		if typeNode := child.ChildByFieldName("type"); typeNode != nil && typeNode.Kind() == "interface_type" {
			symbolKind = graph.ExportKindInterface
		}
		result = append(result, graph.Export{Name: name, Kind: symbolKind})
	}
	return result
}

// extractValueSpecs collects exported names out of const/var declaration
// specs. A single spec may declare several names.
func (e *goExtractor) extractValueSpecs(
	node *tree_sitter.Node,
	source []byte,
	specKind string,
	symbolKind graph.ExportKind,
) []graph.Export {
	var result []graph.Export

	for i := uint(0); i < node.ChildCount(); i++ {
		spec := node.Child(i)
		if spec == nil || spec.Kind() != specKind {
			continue
		}
		for j := uint(0); j < spec.ChildCount(); j++ {
			child := spec.Child(j)
			if child == nil || child.Kind() != "identifier" {
				continue
			}
			name := child.Utf8Text(source)
			if isGoExported(name) {
				result = append(result, graph.Export{Name: name, Kind: symbolKind})
			}
		}
	}
	return result
}

func (e *goExtractor) importPath(node *tree_sitter.Node, source []byte) string {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		// Fall back to finding an interpreted_string_literal child.
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "interpreted_string_literal" {
				pathNode = child
				break
			}
		}
	}
	if pathNode == nil {
		return ""
	}
	return strings.Trim(pathNode.Utf8Text(source), "\"")
}

// isGoExported returns true if the first rune of name is an uppercase letter.
func isGoExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
