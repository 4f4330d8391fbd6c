package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/strata/internal/graph"
)

// rsExtractor extracts pub items and use declarations from Rust source
// files. Like Python, Rust imports are recorded but never resolved to edges.
type rsExtractor struct{}

func (e *rsExtractor) Extract(root *tree_sitter.Node, source []byte) ([]graph.Export, graph.ImportSet) {
	var exports []graph.Export
	var imports graph.ImportSet

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, &exports, &imports)
	return exports, imports
}

func (e *rsExtractor) walk(
	cursor *tree_sitter.TreeCursor,
	source []byte,
	exports *[]graph.Export,
	imports *graph.ImportSet,
) {
	node := cursor.Node()
	kind := node.Kind()

	switch kind {
	case "function_item":
		// Functions also appear inside impl blocks; only free functions at
		// the crate root are module exports.
		if isRustTopLevel(node) {
			if sym := e.extractPubItem(node, source, graph.ExportKindFunction); sym != nil {
				*exports = append(*exports, *sym)
			}
		}

	case "struct_item", "type_item":
		if sym := e.extractPubItem(node, source, graph.ExportKindType); sym != nil {
			*exports = append(*exports, *sym)
		}

	case "enum_item":
		if sym := e.extractPubItem(node, source, graph.ExportKindEnum); sym != nil {
			*exports = append(*exports, *sym)
		}

	case "trait_item":
		if sym := e.extractPubItem(node, source, graph.ExportKindInterface); sym != nil {
			*exports = append(*exports, *sym)
		}

	case "const_item", "static_item":
		if sym := e.extractPubItem(node, source, graph.ExportKindConst); sym != nil {
			*exports = append(*exports, *sym)
		}

	case "use_declaration":
		if spec := e.usePath(node, source); spec != "" {
			addRsImport(imports, spec)
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

// extractPubItem extracts an item with a "name" field child when it carries a
// visibility modifier.
func (e *rsExtractor) extractPubItem(node *tree_sitter.Node, source []byte, symbolKind graph.ExportKind) *graph.Export {
	if !isRustPub(node) {
		return nil
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return &graph.Export{Name: nameNode.Utf8Text(source), Kind: symbolKind}
}

func (e *rsExtractor) usePath(node *tree_sitter.Node, source []byte) string {
	// The use_declaration's argument is typically a scoped_identifier,
	// use_wildcard, or use_list. The full text is the import path.
	argNode := node.ChildByFieldName("argument")
	if argNode == nil {
		return ""
	}
	return argNode.Utf8Text(source)
}

// addRsImport splits on the crate convention: crate/self/super paths stay
// inside the compilation unit, everything else is an external crate.
func addRsImport(imports *graph.ImportSet, spec string) {
	switch {
	case strings.HasPrefix(spec, "crate::"),
		strings.HasPrefix(spec, "self::"),
		strings.HasPrefix(spec, "super::"):
		imports.Internal = append(imports.Internal, spec)
	default:
		imports.External = append(imports.External, spec)
	}
}

func isRustTopLevel(node *tree_sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.Kind() == "source_file"
}

// isRustPub checks if a node's first child is a visibility_modifier.
func isRustPub(node *tree_sitter.Node) bool {
	first := node.Child(0)
	if first == nil {
		return false
	}
	return first.Kind() == "visibility_modifier"
}
