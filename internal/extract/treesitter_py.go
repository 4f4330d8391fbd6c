package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/strata/internal/graph"
)

// pyExtractor extracts top-level definitions and import specifiers from
// Python source files. Python imports are recorded but never resolved to
// graph edges; the specifiers still feed per-file reporting.
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte) ([]graph.Export, graph.ImportSet) {
	var exports []graph.Export
	var imports graph.ImportSet

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, &exports, &imports)
	return exports, imports
}

func (e *pyExtractor) walk(
	cursor *tree_sitter.TreeCursor,
	source []byte,
	exports *[]graph.Export,
	imports *graph.ImportSet,
) {
	node := cursor.Node()
	kind := node.Kind()

	switch kind {
	case "function_definition":
		if isPyTopLevel(node) {
			if sym := e.extractDef(node, source, graph.ExportKindFunction); sym != nil {
				*exports = append(*exports, *sym)
			}
		}

	case "class_definition":
		if isPyTopLevel(node) {
			if sym := e.extractDef(node, source, graph.ExportKindClass); sym != nil {
				*exports = append(*exports, *sym)
			}
		}

	case "import_statement":
		// import_statement children: "import" keyword then dotted_name(s).
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "dotted_name" {
				addPyImport(imports, child.Utf8Text(source))
			}
		}

	case "import_from_statement":
		if module := e.fromImportModule(node, source); module != "" {
			addPyImport(imports, module)
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

func (e *pyExtractor) extractDef(node *tree_sitter.Node, source []byte, symbolKind graph.ExportKind) *graph.Export {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	if strings.HasPrefix(name, "_") {
		return nil
	}
	return &graph.Export{Name: name, Kind: symbolKind}
}

func (e *pyExtractor) fromImportModule(node *tree_sitter.Node, source []byte) string {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		// Fall back: look for a dotted_name child.
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "dotted_name" {
				moduleNode = child
				break
			}
		}
	}
	if moduleNode == nil {
		return ""
	}
	return moduleNode.Utf8Text(source)
}

// addPyImport splits on the Python convention: leading-dot modules are
// package-relative, everything else addresses an installed package.
func addPyImport(imports *graph.ImportSet, module string) {
	if module == "" {
		return
	}
	if strings.HasPrefix(module, ".") {
		imports.Internal = append(imports.Internal, module)
		return
	}
	imports.External = append(imports.External, module)
}

// isPyTopLevel returns true if the node is at the module top level.
// A top-level node has a parent that is "module", or a parent that is
// "decorated_definition" whose own parent is "module".
func isPyTopLevel(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "module" {
		return true
	}
	if parent.Kind() == "decorated_definition" {
		grandparent := parent.Parent()
		return grandparent != nil && grandparent.Kind() == "module"
	}
	return false
}
