// # internal/engine/parser/csharp.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var csharpEngine = NewExtractorEngine(map[string]NodeHandler{
	"using_directive":                   handleUsing,
	"namespace_declaration":             handleNamespace,
	"file_scoped_namespace_declaration": handleFileScopedNamespace,
	"class_declaration":                 handleType(TypeClass),
	"struct_declaration":                handleType(TypeStruct),
	"interface_declaration":             handleType(TypeInterface),
	"record_declaration":                handleType(TypeRecord),
	"enum_declaration":                  handleType(TypeEnum),
	"delegate_declaration":              handleType(TypeDelegate),
	"method_declaration":                handleMethod,
	"field_declaration":                 handleField,
	"property_declaration":              handleProperty,
	// Member bodies never declare types or members we track.
	"constructor_declaration":         skipNode,
	"destructor_declaration":          skipNode,
	"operator_declaration":            skipNode,
	"conversion_operator_declaration": skipNode,
	"indexer_declaration":             skipNode,
	"event_declaration":               skipNode,
	"event_field_declaration":         skipNode,
	"global_statement":                skipNode,
})

func extractDeclarations(unit *Unit) {
	ctx := &ExtractionContext{
		Unit:   unit,
		Engine: csharpEngine,
		Scope:  unit.Global,
	}
	csharpEngine.Walk(ctx, unit.Root())
}

func skipNode(*ExtractionContext, *sitter.Node) bool { return true }

func handleUsing(ctx *ExtractionContext, node *sitter.Node) bool {
	u := Using{}
	for i := uint(0); i < node.ChildCount(); i++ {
		switch node.Child(i).Kind() {
		case "global":
			u.Global = true
		case "static":
			u.Static = true
		}
	}
	if alias := node.ChildByFieldName("name"); alias != nil {
		u.Alias = ctx.Text(alias)
	}
	if n := node.NamedChildCount(); n > 0 {
		u.Target = node.NamedChild(n - 1)
		u.Name = compactName(ctx.Text(u.Target))
	}
	if u.Name != "" {
		ctx.Scope.Usings = append(ctx.Scope.Usings, u)
	}
	return true
}

func handleNamespace(ctx *ExtractionContext, node *sitter.Node) bool {
	scope := &Scope{
		Namespace: joinName(ctx.Scope.Namespace, compactName(ctx.Text(node.ChildByFieldName("name")))),
		Parent:    ctx.Scope,
	}
	if body := node.ChildByFieldName("body"); body != nil {
		ctx.Enter(scope, ctx.Type, body)
	}
	return true
}

// A file-scoped namespace applies to every following sibling in the
// compilation unit, so the walker's scope is switched rather than entered.
func handleFileScopedNamespace(ctx *ExtractionContext, node *sitter.Node) bool {
	ctx.Scope = &Scope{
		Namespace: joinName(ctx.Scope.Namespace, compactName(ctx.Text(node.ChildByFieldName("name")))),
		Parent:    ctx.Scope,
	}
	return true
}

func handleType(kind TypeKind) NodeHandler {
	return func(ctx *ExtractionContext, node *sitter.Node) bool {
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return true
		}
		decl := &TypeDecl{
			Name:       ctx.Text(nameNode),
			Kind:       kind,
			Modifiers:  modifiers(ctx, node),
			Attributes: attributes(ctx, node),
			Scope:      ctx.Scope,
			Outer:      ctx.Type,
			Node:       node,
			NameNode:   nameNode,
			Unit:       ctx.Unit,
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			switch child.Kind() {
			case "type_parameter_list":
				decl.TypeParameters = typeParameters(ctx, child)
			case "base_list":
				for j := uint(0); j < child.NamedChildCount(); j++ {
					if base := child.NamedChild(j); base.Kind() != "argument_list" {
						decl.Bases = append(decl.Bases, base)
					}
				}
			}
		}
		if decl.TypeParameters == nil {
			if tp := node.ChildByFieldName("type_parameters"); tp != nil {
				decl.TypeParameters = typeParameters(ctx, tp)
			}
		}
		if ctx.Type != nil {
			ctx.Type.Nested = append(ctx.Type.Nested, decl)
		}
		ctx.Unit.Types = append(ctx.Unit.Types, decl)

		if body := node.ChildByFieldName("body"); body != nil && kind != TypeEnum {
			ctx.Enter(ctx.Scope, decl, body)
		}
		return true
	}
}

func handleMethod(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.Type == nil {
		return true
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return true
	}
	m := &MethodDecl{
		Name:       ctx.Text(nameNode),
		Modifiers:  modifiers(ctx, node),
		Attributes: attributes(ctx, node),
		Return:     node.ChildByFieldName("returns"),
		Doc:        docComment(ctx.Unit, node),
		Node:       node,
		NameNode:   nameNode,
		Owner:      ctx.Type,
	}
	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		m.TypeParameters = typeParameters(ctx, tp)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		m.Parameters = parameters(ctx, params)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == "explicit_interface_specifier" {
			m.ExplicitInterface = strings.TrimSuffix(compactName(ctx.Text(child)), ".")
		}
	}
	ctx.Type.Methods = append(ctx.Type.Methods, m)
	return true
}

func handleField(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.Type == nil {
		return true
	}
	mods := modifiers(ctx, node)
	for i := uint(0); i < node.NamedChildCount(); i++ {
		decl := node.NamedChild(i)
		if decl.Kind() != "variable_declaration" {
			continue
		}
		typeNode := decl.ChildByFieldName("type")
		for j := uint(0); j < decl.NamedChildCount(); j++ {
			declarator := decl.NamedChild(j)
			if declarator.Kind() != "variable_declarator" {
				continue
			}
			nameNode := declarator.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			ctx.Type.Fields = append(ctx.Type.Fields, &FieldDecl{
				Name:        ctx.Text(nameNode),
				Type:        typeNode,
				Modifiers:   mods,
				Initializer: declaratorInitializer(declarator),
				Node:        declarator,
				Owner:       ctx.Type,
			})
		}
	}
	return true
}

func handleProperty(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctx.Type == nil {
		return true
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return true
	}
	ctx.Type.Properties = append(ctx.Type.Properties, &PropertyDecl{
		Name:      ctx.Text(nameNode),
		Type:      node.ChildByFieldName("type"),
		Modifiers: modifiers(ctx, node),
		Node:      node,
		Owner:     ctx.Type,
	})
	return true
}

// declaratorInitializer returns the expression after '=' in a declarator.
func declaratorInitializer(declarator *sitter.Node) *sitter.Node {
	seenEquals := false
	for i := uint(0); i < declarator.ChildCount(); i++ {
		child := declarator.Child(i)
		if !child.IsNamed() {
			if child.Kind() == "=" {
				seenEquals = true
			}
			continue
		}
		if seenEquals {
			return child
		}
	}
	return nil
}

func modifiers(ctx *ExtractionContext, node *sitter.Node) []string {
	var out []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == "modifier" {
			out = append(out, ctx.Text(child))
		}
	}
	return out
}

func attributes(ctx *ExtractionContext, node *sitter.Node) []*AttributeDecl {
	var out []*AttributeDecl
	for i := uint(0); i < node.NamedChildCount(); i++ {
		list := node.NamedChild(i)
		if list.Kind() != "attribute_list" {
			continue
		}
		target := ""
		for j := uint(0); j < list.NamedChildCount(); j++ {
			child := list.NamedChild(j)
			switch child.Kind() {
			case "attribute_target_specifier":
				target = strings.TrimSuffix(compactName(ctx.Text(child)), ":")
			case "attribute":
				out = append(out, attribute(ctx, child, target))
			}
		}
	}
	return out
}

func attribute(ctx *ExtractionContext, node *sitter.Node, target string) *AttributeDecl {
	attr := &AttributeDecl{Target: target, Node: node}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		attr.NameNode = nameNode
		attr.Name = attributeName(ctx, nameNode)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		list := node.NamedChild(i)
		if list.Kind() != "attribute_argument_list" {
			continue
		}
		for j := uint(0); j < list.NamedChildCount(); j++ {
			arg := list.NamedChild(j)
			if arg.Kind() != "attribute_argument" {
				continue
			}
			switch arg.NamedChildCount() {
			case 0:
				continue
			case 1:
				attr.Args = append(attr.Args, AttributeArg{Expr: arg.NamedChild(0)})
			default:
				attr.Args = append(attr.Args, AttributeArg{
					Name: ctx.Text(arg.NamedChild(0)),
					Expr: arg.NamedChild(arg.NamedChildCount() - 1),
				})
			}
		}
	}
	return attr
}

// attributeName drops generic arguments: [Foo<int>] is named "Foo".
func attributeName(ctx *ExtractionContext, node *sitter.Node) string {
	switch node.Kind() {
	case "generic_name":
		return ctx.ChildText(node, "identifier")
	case "qualified_name":
		qualifier := node.ChildByFieldName("qualifier")
		name := node.ChildByFieldName("name")
		if qualifier == nil || name == nil {
			return compactName(ctx.Text(node))
		}
		return attributeName(ctx, qualifier) + "." + attributeName(ctx, name)
	case "alias_qualified_name":
		alias := node.ChildByFieldName("alias")
		name := node.ChildByFieldName("name")
		if alias == nil || name == nil {
			return compactName(ctx.Text(node))
		}
		return ctx.Text(alias) + "::" + attributeName(ctx, name)
	}
	return compactName(ctx.Text(node))
}

func typeParameters(ctx *ExtractionContext, node *sitter.Node) []string {
	var out []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		tp := node.NamedChild(i)
		if tp.Kind() != "type_parameter" {
			continue
		}
		if name := tp.ChildByFieldName("name"); name != nil {
			out = append(out, ctx.Text(name))
		}
	}
	return out
}

// parameters reads a parameter_list. A params array is not wrapped in a
// parameter node: its 'params' keyword, type and name are direct children of
// the list.
func parameters(ctx *ExtractionContext, list *sitter.Node) []*ParameterDecl {
	var out []*ParameterDecl
	var pending *ParameterDecl
	for i := uint(0); i < list.ChildCount(); i++ {
		child := list.Child(i)
		field := list.FieldNameForChild(uint32(i))
		switch {
		case child.Kind() == "parameter":
			p := &ParameterDecl{Node: child}
			if name := child.ChildByFieldName("name"); name != nil {
				p.Name = ctx.Text(name)
			}
			p.Type = child.ChildByFieldName("type")
			p.Modifiers = modifiers(ctx, child)
			p.Default = declaratorInitializer(child)
			out = append(out, p)
		case child.Kind() == "params":
			pending = &ParameterDecl{IsParams: true, Node: child, Modifiers: []string{"params"}}
		case pending != nil && field == "type":
			pending.Type = child
		case pending != nil && field == "name":
			pending.Name = ctx.Text(child)
			out = append(out, pending)
			pending = nil
		}
	}
	return out
}

func compactName(text string) string {
	return strings.Join(strings.Fields(text), "")
}

func joinName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + "." + name
}
