package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/strata/internal/graph"
)

// scriptExtractor extracts exports and import specifiers from TypeScript and
// JavaScript source files (both parse with the TypeScript grammar).
type scriptExtractor struct{}

func (e *scriptExtractor) Extract(root *tree_sitter.Node, source []byte) ([]graph.Export, graph.ImportSet) {
	var exports []graph.Export
	var imports graph.ImportSet

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, &exports, &imports)
	return exports, imports
}

func (e *scriptExtractor) walk(
	cursor *tree_sitter.TreeCursor,
	source []byte,
	exports *[]graph.Export,
	imports *graph.ImportSet,
) {
	node := cursor.Node()
	kind := node.Kind()

	switch kind {
	case "import_statement":
		if spec := importSource(node, source); spec != "" {
			addScriptImport(imports, spec)
		}

	case "export_statement":
		e.handleExportStatement(node, source, exports, imports)

	case "function_declaration", "generator_function_declaration":
		if sym := e.extractNamedExport(node, source, graph.ExportKindFunction); sym != nil {
			*exports = append(*exports, *sym)
		}

	case "class_declaration":
		if sym := e.extractNamedExport(node, source, graph.ExportKindClass); sym != nil {
			*exports = append(*exports, *sym)
		}

	case "interface_declaration":
		if sym := e.extractNamedExport(node, source, graph.ExportKindInterface); sym != nil {
			*exports = append(*exports, *sym)
		}

	case "type_alias_declaration":
		if sym := e.extractNamedExport(node, source, graph.ExportKindType); sym != nil {
			*exports = append(*exports, *sym)
		}

	case "enum_declaration":
		if sym := e.extractNamedExport(node, source, graph.ExportKindEnum); sym != nil {
			*exports = append(*exports, *sym)
		}

	case "lexical_declaration", "variable_declaration":
		if isScriptExported(node) {
			*exports = append(*exports, e.extractDeclarators(node, source)...)
		}

	case "call_expression":
		if spec := callImportSource(node, source); spec != "" {
			addScriptImport(imports, spec)
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

// handleExportStatement covers the export forms the declaration walk cannot
// see: re-exports (which are also imports), export lists, and default-exported
// expressions.
func (e *scriptExtractor) handleExportStatement(
	node *tree_sitter.Node,
	source []byte,
	exports *[]graph.Export,
	imports *graph.ImportSet,
) {
	// "export ... from 'x'" re-exports: the specifier is an import edge; the
	// re-exported names are not locally declared symbols.
	if src := node.ChildByFieldName("source"); src != nil {
		if spec := trimQuotes(src.Utf8Text(source)); spec != "" {
			addScriptImport(imports, spec)
		}
		return
	}

	// "export { a, b as c }" lists of already-declared names.
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "export_clause" {
			continue
		}
		*exports = append(*exports, e.extractExportClause(child, source)...)
		return
	}

	// "export default <expression>": no declaration node for the walk to
	// visit. Declaration kinds fall through to their own handlers.
	if !exportIsDefault(node) {
		return
	}
	value := node.ChildByFieldName("value")
	if value == nil {
		return
	}

	name := "default"
	symbolKind := graph.ExportKindVariable
	switch value.Kind() {
	case "function_declaration", "class_declaration":
		return
	case "identifier":
		name = value.Utf8Text(source)
	case "arrow_function", "function_expression", "function", "generator_function":
		symbolKind = graph.ExportKindFunction
	case "class":
		symbolKind = graph.ExportKindClass
	}
	*exports = append(*exports, graph.Export{Name: name, Kind: symbolKind, IsDefault: true})
}

// extractNamedExport extracts an export from a declaration node with a "name"
// field child, when its parent marks it exported.
func (e *scriptExtractor) extractNamedExport(
	node *tree_sitter.Node,
	source []byte,
	symbolKind graph.ExportKind,
) *graph.Export {
	if !isScriptExported(node) {
		return nil
	}
	isDefault := exportIsDefault(node.Parent())

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		// Anonymous default exports ("export default class {}") have no name.
		if !isDefault {
			return nil
		}
		return &graph.Export{Name: "default", Kind: symbolKind, IsDefault: true}
	}

	return &graph.Export{
		Name:      nameNode.Utf8Text(source),
		Kind:      symbolKind,
		IsDefault: isDefault,
	}
}

// extractDeclarators pulls exports out of a const/let/var declaration. A
// declarator whose value is a function expression counts as a function.
func (e *scriptExtractor) extractDeclarators(node *tree_sitter.Node, source []byte) []graph.Export {
	baseKind := graph.ExportKindVariable
	if first := node.Child(0); first != nil && first.Kind() == "const" {
		baseKind = graph.ExportKindConst
	}

	var result []graph.Export
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil || nameNode.Kind() != "identifier" {
			continue
		}

		symbolKind := baseKind
		if valueNode := child.ChildByFieldName("value"); valueNode != nil {
			switch valueNode.Kind() {
			case "arrow_function", "function_expression", "generator_function":
				symbolKind = graph.ExportKindFunction
			}
		}

		result = append(result, graph.Export{
			Name: nameNode.Utf8Text(source),
			Kind: symbolKind,
		})
	}
	return result
}

// extractExportClause handles "export { a, b as c }": names are exported as
// written, with aliases winning over local names.
func (e *scriptExtractor) extractExportClause(clause *tree_sitter.Node, source []byte) []graph.Export {
	var result []graph.Export
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		if child == nil || child.Kind() != "export_specifier" {
			continue
		}
		nameNode := child.ChildByFieldName("alias")
		if nameNode == nil {
			nameNode = child.ChildByFieldName("name")
		}
		if nameNode == nil {
			continue
		}
		name := nameNode.Utf8Text(source)
		result = append(result, graph.Export{
			Name:      name,
			Kind:      graph.ExportKindVariable,
			IsDefault: name == "default",
		})
	}
	return result
}

// importSource returns the specifier of an import_statement.
func importSource(node *tree_sitter.Node, source []byte) string {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		// Fall back: look for a string child.
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "string" {
				sourceNode = child
				break
			}
		}
	}
	if sourceNode == nil {
		return ""
	}
	return trimQuotes(sourceNode.Utf8Text(source))
}

// callImportSource returns the specifier of a require() call or a dynamic
// import() expression, or "" for every other call.
func callImportSource(node *tree_sitter.Node, source []byte) string {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return ""
	}

	switch fnNode.Kind() {
	case "identifier":
		if fnNode.Utf8Text(source) != "require" {
			return ""
		}
	case "import":
		// dynamic import()
	default:
		return ""
	}

	argsNode := node.ChildByFieldName("arguments")
	if argsNode == nil {
		return ""
	}
	for i := uint(0); i < argsNode.ChildCount(); i++ {
		child := argsNode.Child(i)
		if child != nil && child.Kind() == "string" {
			return trimQuotes(child.Utf8Text(source))
		}
	}
	return ""
}

// addScriptImport files a specifier on the syntactic side of the split:
// relative specifiers are internal, everything else external until the graph
// builder re-examines aliases.
func addScriptImport(imports *graph.ImportSet, specifier string) {
	if isRelativeSpecifier(specifier) {
		imports.Internal = append(imports.Internal, specifier)
		return
	}
	imports.External = append(imports.External, specifier)
}

// isScriptExported checks if a node is exported by looking at whether its
// parent is an export_statement.
func isScriptExported(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	return parent.Kind() == "export_statement"
}

// exportIsDefault reports whether an export_statement carries the "default"
// keyword.
func exportIsDefault(node *tree_sitter.Node) bool {
	if node == nil || node.Kind() != "export_statement" {
		return false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "default" {
			return true
		}
	}
	return false
}

func trimQuotes(s string) string {
	return strings.Trim(s, "\"'`")
}
