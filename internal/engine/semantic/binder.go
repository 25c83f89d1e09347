package semantic

import (
	"strings"

	"actiongen/internal/engine/parser"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// binder resolves names at one lexical position: inside typ (if any), within
// the namespace scope, with the given method type parameters in scope.
type binder struct {
	c          *Compilation
	unit       *parser.Unit
	scope      *parser.Scope
	typ        *TypeSymbol
	typeParams []string
	// bare binders ignore global usings; alias targets bind this way.
	bare bool
}

func (b *binder) withTypeParams(params []string) *binder {
	cp := *b
	cp.typeParams = append(append([]string(nil), b.typeParams...), params...)
	return &cp
}

func (b *binder) text(node *sitter.Node) string {
	return b.unit.Text(node)
}

func (b *binder) isTypeParameter(name string) bool {
	for _, p := range b.typeParams {
		if p == name {
			return true
		}
	}
	for t := b.typ; t != nil; t = t.Container {
		for _, p := range t.TypeParameters {
			if p == name {
				return true
			}
		}
	}
	return false
}

// bindType resolves a type syntax node.
func (b *binder) bindType(node *sitter.Node) *Type {
	if node == nil {
		return unresolvedType("")
	}
	switch node.Kind() {
	case "predefined_type":
		return b.c.predefined(b.text(node))
	case "implicit_type":
		return unresolvedType("var")
	case "identifier":
		name := b.text(node)
		if b.isTypeParameter(name) {
			return &Type{Form: FormTypeParameter, Name: name}
		}
		if sym := b.lookupType(name, 0); sym != nil {
			return namedType(sym)
		}
	case "generic_name":
		name, args := b.genericParts(node)
		if sym := b.lookupType(name, len(args)); sym != nil {
			return namedType(sym, args...)
		}
	case "qualified_name", "alias_qualified_name":
		nameNode := node.ChildByFieldName("name")
		_, sym := b.namespaceOrType(node)
		if sym != nil {
			var args []*Type
			if nameNode != nil && nameNode.Kind() == "generic_name" {
				_, args = b.genericParts(nameNode)
			}
			return namedType(sym, args...)
		}
	case "array_type":
		rank := 1
		if spec := node.ChildByFieldName("rank"); spec != nil {
			for i := uint(0); i < spec.ChildCount(); i++ {
				if spec.Child(i).Kind() == "," {
					rank++
				}
			}
		}
		return &Type{Form: FormArray, Elem: b.bindType(node.ChildByFieldName("type")), Rank: rank}
	case "nullable_type":
		return &Type{Form: FormNullable, Elem: b.bindType(node.ChildByFieldName("type"))}
	case "pointer_type":
		return &Type{Form: FormPointer, Elem: b.bindType(node.ChildByFieldName("type"))}
	case "ref_type", "scoped_type":
		return b.bindType(node.ChildByFieldName("type"))
	case "tuple_type":
		t := &Type{Form: FormTuple}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			el := node.NamedChild(i)
			if el.Kind() != "tuple_element" {
				continue
			}
			t.Elements = append(t.Elements, TupleElement{
				Type: b.bindType(el.ChildByFieldName("type")),
				Name: b.text(el.ChildByFieldName("name")),
			})
		}
		return t
	}
	return unresolvedType(compact(b.text(node)))
}

func (c *Compilation) predefined(keyword string) *Type {
	if full, ok := specialByKeyword[keyword]; ok {
		if sym := c.types[full]; sym != nil {
			return namedType(sym)
		}
	}
	return unresolvedType(keyword)
}

// genericParts splits Foo<A, B> into its identifier and bound arguments.
func (b *binder) genericParts(node *sitter.Node) (string, []*Type) {
	var name string
	var args []*Type
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "identifier":
			name = b.text(child)
		case "type_argument_list":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				args = append(args, b.bindType(child.NamedChild(j)))
			}
		}
	}
	return name, args
}

// simpleName returns the identifier and arity of an identifier or
// generic_name node.
func (b *binder) simpleName(node *sitter.Node) (string, []*Type) {
	if node == nil {
		return "", nil
	}
	if node.Kind() == "generic_name" {
		return b.genericParts(node)
	}
	return strings.TrimPrefix(b.text(node), "@"), nil
}

// namespaceOrType resolves a name that may denote a namespace or a type.
// Exactly one of the results is set when the name binds.
func (b *binder) namespaceOrType(node *sitter.Node) (string, *TypeSymbol) {
	if node == nil {
		return "", nil
	}
	switch node.Kind() {
	case "identifier", "generic_name":
		name, args := b.simpleName(node)
		if sym := b.lookupType(name, len(args)); sym != nil {
			return "", sym
		}
		if len(args) == 0 {
			if ns, ok := b.lookupNamespace(name); ok {
				return ns, nil
			}
		}
	case "predefined_type":
		if t := b.c.predefined(b.text(node)); t.Form == FormNamed {
			return "", t.Symbol
		}
	case "qualified_name", "member_access_expression":
		left := node.ChildByFieldName("qualifier")
		if left == nil {
			left = node.ChildByFieldName("expression")
		}
		name, args := b.simpleName(node.ChildByFieldName("name"))
		ns, sym := b.namespaceOrType(left)
		return b.c.member(ns, sym, name, len(args))
	case "alias_qualified_name":
		alias := b.text(node.ChildByFieldName("alias"))
		name, args := b.simpleName(node.ChildByFieldName("name"))
		if alias == "global" {
			return b.c.member("", nil, name, len(args))
		}
		if ns, sym := b.aliasTarget(alias); ns != "" || sym != nil {
			return b.c.member(ns, sym, name, len(args))
		}
	}
	return "", nil
}

// member looks name up inside a namespace or a type.
func (c *Compilation) member(ns string, sym *TypeSymbol, name string, arity int) (string, *TypeSymbol) {
	if sym != nil {
		return "", c.nestedInHierarchy(sym, name, arity)
	}
	full := qualify(ns, name)
	if t := c.types[typeKey(full, arity)]; t != nil {
		return "", t
	}
	if arity == 0 && c.namespaces[full] {
		return full, nil
	}
	return "", nil
}

// lookupType finds a type by simple name: nested types of the enclosing
// types first, then each enclosing namespace with its using directives.
func (b *binder) lookupType(name string, arity int) *TypeSymbol {
	for t := b.typ; t != nil; t = t.Container {
		if n := b.c.nestedInHierarchy(t, name, arity); n != nil {
			return n
		}
		if t.Name == name && t.Arity() == arity {
			return t
		}
	}
	for s := b.scope; s != nil; s = s.Parent {
		stop := ""
		if s.Parent != nil {
			stop = s.Parent.Namespace
		}
		for ns := s.Namespace; ; {
			if sym := b.c.types[typeKey(qualify(ns, name), arity)]; sym != nil {
				return sym
			}
			if s.Parent == nil || ns == "" {
				break
			}
			ns = parentNamespace(ns)
			if ns == stop {
				break
			}
		}
		if sym := b.typeFromUsings(s.Usings, name, arity); sym != nil {
			return sym
		}
		if s.Parent == nil && !b.bare {
			for _, gu := range b.c.globalUsings {
				gb := &binder{c: b.c, unit: gu.unit, scope: gu.scope}
				if sym := gb.typeFromUsings([]parser.Using{gu.using}, name, arity); sym != nil {
					return sym
				}
			}
		}
	}
	return nil
}

func (b *binder) typeFromUsings(usings []parser.Using, name string, arity int) *TypeSymbol {
	for _, u := range usings {
		switch {
		case u.Alias != "":
			if u.Alias == name && arity == 0 {
				if _, sym := b.aliasTarget(name); sym != nil {
					return sym
				}
			}
		case u.Static:
			if _, sym := b.rootBinder().namespaceOrType(u.Target); sym != nil {
				if n := b.c.nestedInHierarchy(sym, name, arity); n != nil {
					return n
				}
			}
		default:
			if sym := b.c.types[typeKey(qualify(u.Name, name), arity)]; sym != nil {
				return sym
			}
		}
	}
	return nil
}

// lookupNamespace resolves a leading namespace identifier relative to the
// enclosing namespaces, then through namespace aliases.
func (b *binder) lookupNamespace(name string) (string, bool) {
	for s := b.scope; s != nil; s = s.Parent {
		for ns := s.Namespace; ; ns = parentNamespace(ns) {
			if full := qualify(ns, name); b.c.namespaces[full] {
				return full, true
			}
			if ns == "" {
				break
			}
		}
		for _, u := range s.Usings {
			if u.Alias == name {
				if ns, _ := b.aliasTarget(name); ns != "" {
					return ns, true
				}
			}
		}
	}
	return "", false
}

// aliasTarget resolves a using alias visible from b. Alias targets bind from
// the global namespace.
func (b *binder) aliasTarget(alias string) (string, *TypeSymbol) {
	for s := b.scope; s != nil; s = s.Parent {
		for _, u := range s.Usings {
			if u.Alias == alias {
				return b.rootBinder().namespaceOrType(u.Target)
			}
		}
	}
	if b.bare {
		return "", nil
	}
	for _, gu := range b.c.globalUsings {
		if gu.using.Alias == alias {
			return (&binder{c: b.c, unit: gu.unit, bare: true, scope: &parser.Scope{}}).namespaceOrType(gu.using.Target)
		}
	}
	return "", nil
}

func (b *binder) rootBinder() *binder {
	return &binder{c: b.c, unit: b.unit, scope: &parser.Scope{}, bare: true}
}

// staticImports lists the types named by using static directives in scope.
func (b *binder) staticImports() []*TypeSymbol {
	var out []*TypeSymbol
	add := func(u parser.Using) {
		if !u.Static || u.Alias != "" {
			return
		}
		if _, sym := b.rootBinder().namespaceOrType(u.Target); sym != nil {
			out = append(out, sym)
		}
	}
	for s := b.scope; s != nil; s = s.Parent {
		for _, u := range s.Usings {
			add(u)
		}
	}
	for _, gu := range b.c.globalUsings {
		if !gu.using.Static {
			continue
		}
		gb := &binder{c: b.c, unit: gu.unit, scope: &parser.Scope{}, bare: true}
		if _, sym := gb.namespaceOrType(gu.using.Target); sym != nil {
			out = append(out, sym)
		}
	}
	return out
}

func compact(text string) string {
	return strings.Join(strings.Fields(text), "")
}
