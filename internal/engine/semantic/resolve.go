package semantic

import (
	"actiongen/internal/engine/parser"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type resolutionKind int

const (
	resolvedNothing resolutionKind = iota
	resolvedValue
	resolvedType
	resolvedNamespace
	resolvedMethods
)

// resolution is what an expression denotes.
type resolution struct {
	kind      resolutionKind
	typ       *Type
	sym       *TypeSymbol
	ns        string
	methods   []*MethodSymbol
	typeArgs  []*Type
	field     *FieldSymbol
	constInit *sitter.Node
}

var typeDeclarationKinds = map[string]bool{
	"class_declaration":     true,
	"struct_declaration":    true,
	"interface_declaration": true,
	"record_declaration":    true,
}

// binderAt builds the binder for an arbitrary node: the innermost enclosing
// type, its namespace scope, and the type parameters of an enclosing method.
func (c *Compilation) binderAt(unit *parser.Unit, node *sitter.Node) *binder {
	b := &binder{c: c, unit: unit, scope: unit.Global}
	var methodNode *sitter.Node
	for a := node; a != nil; a = a.Parent() {
		if a.Kind() == "method_declaration" && methodNode == nil {
			methodNode = a
		}
		if !typeDeclarationKinds[a.Kind()] {
			continue
		}
		decl := declForNode(unit, a)
		if decl == nil {
			break
		}
		b.scope = decl.Scope
		b.typ = c.byDecl[decl]
		if methodNode != nil {
			for _, md := range decl.Methods {
				if sameNode(md.Node, methodNode) {
					b.typeParams = md.TypeParameters
				}
			}
		}
		return b
	}
	b.scope = scopeForTopLevel(unit)
	return b
}

func declForNode(unit *parser.Unit, node *sitter.Node) *parser.TypeDecl {
	for _, decl := range unit.Types {
		if sameNode(decl.Node, node) {
			return decl
		}
	}
	return nil
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

// scopeForTopLevel returns the innermost scope of the file, which is where
// top-level statements bind.
func scopeForTopLevel(unit *parser.Unit) *parser.Scope {
	if len(unit.Types) > 0 && unit.Types[0].Scope != nil && unit.Types[0].Scope.Parent == unit.Global {
		return unit.Types[0].Scope
	}
	return unit.Global
}

// resolve determines what expr denotes.
func (c *Compilation) resolve(b *binder, expr *sitter.Node) resolution {
	if expr == nil {
		return resolution{}
	}
	switch expr.Kind() {
	case "identifier", "generic_name":
		name, args := b.simpleName(expr)
		return c.resolveSimpleName(b, expr, name, args)
	case "this", "this_expression":
		if b.typ != nil {
			return resolution{kind: resolvedValue, typ: namedType(b.typ, typeParamArgs(b.typ)...)}
		}
	case "base", "base_expression":
		if b.typ != nil && len(b.typ.Bases) > 0 {
			return resolution{kind: resolvedValue, typ: b.typ.Bases[0]}
		}
	case "predefined_type":
		if t := c.predefined(b.text(expr)); t.Form == FormNamed {
			return resolution{kind: resolvedType, sym: t.Symbol, typ: t}
		}
	case "qualified_name", "alias_qualified_name":
		ns, sym := b.namespaceOrType(expr)
		switch {
		case sym != nil:
			return resolution{kind: resolvedType, sym: sym, typ: namedType(sym)}
		case ns != "":
			return resolution{kind: resolvedNamespace, ns: ns}
		}
	case "member_access_expression":
		return c.resolveMember(b, expr.ChildByFieldName("expression"), expr.ChildByFieldName("name"))
	case "member_binding_expression":
		if cond := conditionalReceiver(expr); cond != nil {
			return c.resolveMember(b, cond, expr.ChildByFieldName("name"))
		}
	case "conditional_access_expression":
		for i := uint(0); i < expr.NamedChildCount(); i++ {
			if child := expr.NamedChild(i); child.Kind() == "member_binding_expression" {
				return c.resolveMember(b, expr.ChildByFieldName("condition"), child.ChildByFieldName("name"))
			}
		}
	case "invocation_expression":
		if m, typeArgs := c.callTarget(b, expr); m != nil {
			ret := m.ReturnType
			if len(typeArgs) == len(m.TypeParameters) {
				ret = ret.substitute(m.TypeParameters, typeArgs)
			}
			return resolution{kind: resolvedValue, typ: ret}
		}
	case "object_creation_expression", "cast_expression", "default_expression", "stackalloc_expression", "array_creation_expression":
		if t := expr.ChildByFieldName("type"); t != nil {
			return resolution{kind: resolvedValue, typ: b.bindType(t)}
		}
	case "as_expression":
		if t := expr.ChildByFieldName("right"); t != nil {
			return resolution{kind: resolvedValue, typ: b.bindType(t)}
		}
	case "parenthesized_expression":
		if expr.NamedChildCount() > 0 {
			return c.resolve(b, expr.NamedChild(0))
		}
	case "element_access_expression":
		r := c.resolve(b, expr.ChildByFieldName("expression"))
		if r.kind == resolvedValue && r.typ != nil && r.typ.Form == FormArray {
			return resolution{kind: resolvedValue, typ: r.typ.Elem}
		}
	case "typeof_expression":
		if sym := c.LookupType("System.Type", 0); sym != nil {
			return resolution{kind: resolvedValue, typ: namedType(sym)}
		}
	case "string_literal", "verbatim_string_literal", "raw_string_literal", "interpolated_string_expression":
		return resolution{kind: resolvedValue, typ: c.predefined("string")}
	case "boolean_literal":
		return resolution{kind: resolvedValue, typ: c.predefined("bool")}
	case "integer_literal":
		return resolution{kind: resolvedValue, typ: c.predefined("int")}
	case "real_literal":
		return resolution{kind: resolvedValue, typ: c.predefined("double")}
	case "character_literal":
		return resolution{kind: resolvedValue, typ: c.predefined("char")}
	}
	return resolution{}
}

func typeParamArgs(t *TypeSymbol) []*Type {
	var out []*Type
	for _, p := range t.TypeParameters {
		out = append(out, &Type{Form: FormTypeParameter, Name: p})
	}
	return out
}

// conditionalReceiver finds the receiver of a member binding inside a?.b.
func conditionalReceiver(binding *sitter.Node) *sitter.Node {
	for a := binding.Parent(); a != nil; a = a.Parent() {
		if a.Kind() == "conditional_access_expression" {
			return a.ChildByFieldName("condition")
		}
	}
	return nil
}

func (c *Compilation) resolveSimpleName(b *binder, at *sitter.Node, name string, typeArgs []*Type) resolution {
	if len(typeArgs) == 0 {
		if l, ok := c.lookupLocal(b, at, name); ok {
			return resolution{kind: resolvedValue, typ: l.typ, constInit: l.constInit}
		}
	}
	for t := b.typ; t != nil; t = t.Container {
		if r, ok := c.memberOf(t, name, typeArgs, false); ok {
			return r
		}
	}
	for _, imported := range b.staticImports() {
		if r, ok := c.memberOf(imported, name, typeArgs, true); ok {
			return r
		}
	}
	if b.isTypeParameter(name) {
		return resolution{kind: resolvedType, typ: &Type{Form: FormTypeParameter, Name: name}}
	}
	if sym := b.lookupType(name, len(typeArgs)); sym != nil {
		return resolution{kind: resolvedType, sym: sym, typ: namedType(sym, typeArgs...)}
	}
	if len(typeArgs) == 0 {
		if ns, ok := b.lookupNamespace(name); ok {
			return resolution{kind: resolvedNamespace, ns: ns}
		}
	}
	return resolution{}
}

// memberOf looks up a field, property, method group or nested type on t.
func (c *Compilation) memberOf(t *TypeSymbol, name string, typeArgs []*Type, staticOnly bool) (resolution, bool) {
	if len(typeArgs) == 0 {
		if f := c.fieldInHierarchy(t, name); f != nil && (!staticOnly || f.IsStatic) {
			return resolution{kind: resolvedValue, typ: f.Type, field: f}, true
		}
		if p := c.propertyInHierarchy(t, name); p != nil && (!staticOnly || p.IsStatic) {
			return resolution{kind: resolvedValue, typ: p.Type}, true
		}
	}
	if methods := c.methodsInHierarchy(t, name); len(methods) > 0 {
		if staticOnly {
			methods = preferStatic(methods)
		}
		if len(methods) > 0 {
			return resolution{kind: resolvedMethods, methods: methods, typeArgs: typeArgs}, true
		}
	}
	if n := c.nestedInHierarchy(t, name, len(typeArgs)); n != nil {
		return resolution{kind: resolvedType, sym: n, typ: namedType(n, typeArgs...)}, true
	}
	return resolution{}, false
}

func preferStatic(methods []*MethodSymbol) []*MethodSymbol {
	var out []*MethodSymbol
	for _, m := range methods {
		if m.IsStatic {
			out = append(out, m)
		}
	}
	return out
}

func (c *Compilation) resolveMember(b *binder, receiver, nameNode *sitter.Node) resolution {
	if nameNode == nil {
		return resolution{}
	}
	name, typeArgs := b.simpleName(nameNode)
	left := c.resolve(b, receiver)
	switch left.kind {
	case resolvedNamespace:
		ns, sym := c.member(left.ns, nil, name, len(typeArgs))
		switch {
		case sym != nil:
			return resolution{kind: resolvedType, sym: sym, typ: namedType(sym, typeArgs...)}
		case ns != "":
			return resolution{kind: resolvedNamespace, ns: ns}
		}
	case resolvedType:
		if left.sym != nil {
			if r, ok := c.memberOf(left.sym, name, typeArgs, true); ok {
				return r
			}
		}
	case resolvedValue:
		if left.typ != nil && left.typ.Form == FormNamed {
			if r, ok := c.memberOf(left.typ.Symbol, name, typeArgs, false); ok {
				return r
			}
		}
	}
	return resolution{}
}

// callTarget selects the method an invocation calls, with its explicit type
// arguments. Overloads are narrowed by type argument count and argument
// count; when nothing fits, the first candidate is used.
func (c *Compilation) callTarget(b *binder, call *sitter.Node) (*MethodSymbol, []*Type) {
	r := c.resolve(b, call.ChildByFieldName("function"))
	if r.kind != resolvedMethods {
		return nil, nil
	}
	argCount := countArguments(call.ChildByFieldName("arguments"))
	return pickOverload(r.methods, argCount, len(r.typeArgs)), r.typeArgs
}

func countArguments(list *sitter.Node) int {
	if list == nil {
		return 0
	}
	n := 0
	for i := uint(0); i < list.NamedChildCount(); i++ {
		if list.NamedChild(i).Kind() == "argument" {
			n++
		}
	}
	return n
}

func pickOverload(methods []*MethodSymbol, argCount, typeArgCount int) *MethodSymbol {
	for _, m := range methods {
		if typeArgCount > 0 && len(m.TypeParameters) != typeArgCount {
			continue
		}
		if m.accepts(argCount) {
			return m
		}
	}
	if len(methods) > 0 {
		return methods[0]
	}
	return nil
}

type local struct {
	typ       *Type
	constInit *sitter.Node
}

// lookupLocal searches the enclosing statements and parameter lists of at for
// a local or parameter called name, stopping at the enclosing type.
func (c *Compilation) lookupLocal(b *binder, at *sitter.Node, name string) (local, bool) {
	for a := at.Parent(); a != nil; a = a.Parent() {
		if typeDeclarationKinds[a.Kind()] {
			break
		}
		switch a.Kind() {
		case "block", "switch_section":
			for i := uint(0); i < a.NamedChildCount(); i++ {
				stmt := a.NamedChild(i)
				if stmt.StartByte() >= at.StartByte() {
					break
				}
				if l, ok := c.localInStatement(b, stmt, name); ok {
					return l, true
				}
			}
		case "compilation_unit":
			for i := uint(0); i < a.NamedChildCount(); i++ {
				stmt := a.NamedChild(i)
				if stmt.StartByte() >= at.StartByte() {
					break
				}
				if stmt.Kind() == "global_statement" && stmt.NamedChildCount() > 0 {
					if l, ok := c.localInStatement(b, stmt.NamedChild(0), name); ok {
						return l, true
					}
				}
			}
		case "for_statement":
			if init := a.ChildByFieldName("initializer"); init != nil && init.Kind() == "variable_declaration" {
				if l, ok := c.localInDeclaration(b, init, name, false); ok {
					return l, true
				}
			}
		case "using_statement", "fixed_statement":
			for i := uint(0); i < a.NamedChildCount(); i++ {
				if child := a.NamedChild(i); child.Kind() == "variable_declaration" {
					if l, ok := c.localInDeclaration(b, child, name, false); ok {
						return l, true
					}
				}
			}
		case "foreach_statement":
			if left := a.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" && b.text(left) == name {
				return local{typ: c.foreachElement(b, a)}, true
			}
		case "catch_clause":
			for i := uint(0); i < a.NamedChildCount(); i++ {
				decl := a.NamedChild(i)
				if decl.Kind() != "catch_declaration" {
					continue
				}
				if n := decl.ChildByFieldName("name"); n != nil && b.text(n) == name {
					return local{typ: b.bindType(decl.ChildByFieldName("type"))}, true
				}
			}
		case "method_declaration", "constructor_declaration", "local_function_statement",
			"operator_declaration", "conversion_operator_declaration", "anonymous_method_expression":
			if params := a.ChildByFieldName("parameters"); params != nil {
				if l, ok := c.localInParameters(b, params, name); ok {
					return l, true
				}
			}
		case "lambda_expression":
			params := a.ChildByFieldName("parameters")
			if params == nil {
				continue
			}
			if params.Kind() == "identifier" {
				if b.text(params) == name {
					return local{typ: unresolvedType("")}, true
				}
				continue
			}
			if l, ok := c.localInParameters(b, params, name); ok {
				return l, true
			}
		}
	}
	return local{}, false
}

func (c *Compilation) localInStatement(b *binder, stmt *sitter.Node, name string) (local, bool) {
	if stmt.Kind() != "local_declaration_statement" {
		return local{}, false
	}
	isConst := false
	for i := uint(0); i < stmt.ChildCount(); i++ {
		child := stmt.Child(i)
		if child.Kind() == "modifier" && b.text(child) == "const" || child.Kind() == "const" {
			isConst = true
		}
	}
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		if decl := stmt.NamedChild(i); decl.Kind() == "variable_declaration" {
			return c.localInDeclaration(b, decl, name, isConst)
		}
	}
	return local{}, false
}

func (c *Compilation) localInDeclaration(b *binder, decl *sitter.Node, name string, isConst bool) (local, bool) {
	typeNode := decl.ChildByFieldName("type")
	for i := uint(0); i < decl.NamedChildCount(); i++ {
		declarator := decl.NamedChild(i)
		if declarator.Kind() != "variable_declarator" {
			continue
		}
		n := declarator.ChildByFieldName("name")
		if n == nil || b.text(n) != name {
			continue
		}
		init := initializerOf(declarator)
		l := local{typ: b.bindType(typeNode)}
		if typeNode != nil && typeNode.Kind() == "implicit_type" && init != nil {
			if r := c.resolve(b, init); r.kind == resolvedValue && r.typ != nil {
				l.typ = r.typ
			}
		}
		if isConst {
			l.constInit = init
		}
		return l, true
	}
	return local{}, false
}

func (c *Compilation) localInParameters(b *binder, params *sitter.Node, name string) (local, bool) {
	for i := uint(0); i < params.ChildCount(); i++ {
		child := params.Child(i)
		switch {
		case child.Kind() == "parameter":
			if n := child.ChildByFieldName("name"); n != nil && b.text(n) == name {
				return local{typ: b.bindType(child.ChildByFieldName("type"))}, true
			}
		case params.FieldNameForChild(uint32(i)) == "name" && b.text(child) == name:
			// params arrays sit directly in the list.
			typeNode := child.PrevNamedSibling()
			return local{typ: b.bindType(typeNode)}, true
		}
	}
	return local{}, false
}

func (c *Compilation) foreachElement(b *binder, stmt *sitter.Node) *Type {
	typeNode := stmt.ChildByFieldName("type")
	if typeNode != nil && typeNode.Kind() != "implicit_type" {
		return b.bindType(typeNode)
	}
	r := c.resolve(b, stmt.ChildByFieldName("right"))
	if r.kind == resolvedValue && r.typ != nil && r.typ.Form == FormArray {
		return r.typ.Elem
	}
	return unresolvedType("var")
}

// initializerOf returns the expression after '=' in a declarator.
func initializerOf(declarator *sitter.Node) *sitter.Node {
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

// ResolveCallTargetSymbol returns the method an invocation expression calls,
// or nil when the callee cannot be bound.
func (c *Compilation) ResolveCallTargetSymbol(unit *parser.Unit, call *sitter.Node) *MethodSymbol {
	if call == nil || call.Kind() != "invocation_expression" {
		return nil
	}
	m, _ := c.callTarget(c.binderAt(unit, call), call)
	return m
}

// CallTypeArguments returns the explicit type arguments written on the
// callee of an invocation, e.g. [int, string] for Add<int, string>(...).
func (c *Compilation) CallTypeArguments(unit *parser.Unit, call *sitter.Node) []*Type {
	if call == nil || call.Kind() != "invocation_expression" {
		return nil
	}
	b := c.binderAt(unit, call)
	fn := call.ChildByFieldName("function")
	var nameNode *sitter.Node
	switch fn.Kind() {
	case "generic_name":
		nameNode = fn
	case "member_access_expression", "member_binding_expression":
		nameNode = fn.ChildByFieldName("name")
	case "conditional_access_expression":
		for i := uint(0); i < fn.NamedChildCount(); i++ {
			if child := fn.NamedChild(i); child.Kind() == "member_binding_expression" {
				nameNode = child.ChildByFieldName("name")
			}
		}
	}
	if nameNode == nil || nameNode.Kind() != "generic_name" {
		return nil
	}
	_, args := b.genericParts(nameNode)
	return args
}

// Signature narrows a method group to the overload with matching parameter
// types, and for functions a matching return type.
type Signature struct {
	Parameters []*Type
	Return     *Type
}

func (s *Signature) matches(m *MethodSymbol) bool {
	if len(s.Parameters) != len(m.Parameters) {
		return false
	}
	for i, p := range m.Parameters {
		if p.Type.Display() != s.Parameters[i].Display() {
			return false
		}
	}
	return s.Return == nil || s.Return.Display() == m.ReturnType.Display()
}

// ResolveMethodGroup binds an expression used as a method group, such as the
// handler argument of a registration call. Without a signature, or when none
// matches, the first candidate is returned.
func (c *Compilation) ResolveMethodGroup(unit *parser.Unit, expr *sitter.Node, sig *Signature) *MethodSymbol {
	r := c.resolve(c.binderAt(unit, expr), expr)
	if r.kind != resolvedMethods || len(r.methods) == 0 {
		return nil
	}
	if sig != nil {
		for _, m := range r.methods {
			if sig.matches(m) {
				return m
			}
		}
	}
	return r.methods[0]
}

// ExpressionType returns the static type of expr when it can be inferred.
func (c *Compilation) ExpressionType(unit *parser.Unit, expr *sitter.Node) *Type {
	r := c.resolve(c.binderAt(unit, expr), expr)
	if r.kind != resolvedValue {
		return nil
	}
	return r.typ
}
