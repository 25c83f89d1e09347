package semantic

import (
	"strings"

	"actiongen/internal/engine/parser"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Attribute is an attribute applied to a method, bound to its class.
type Attribute struct {
	Decl *parser.AttributeDecl
	// Type is nil when the attribute class could not be found.
	Type *TypeSymbol
	// ClassName is the simple name of the attribute class, always carrying
	// the Attribute suffix when unresolved.
	ClassName string
	Unit      *parser.Unit
}

// Args returns the positional arguments.
func (a Attribute) Args() []*sitter.Node {
	var out []*sitter.Node
	for _, arg := range a.Decl.Args {
		if arg.Name == "" {
			out = append(out, arg.Expr)
		}
	}
	return out
}

// Attributes lists the attributes applied to m itself. Attributes targeting
// the return value or parameters are excluded.
func (c *Compilation) Attributes(m *MethodSymbol) []Attribute {
	if m == nil || m.Decl == nil || m.Decl.Owner == nil {
		return nil
	}
	decl := m.Decl
	b := &binder{c: c, unit: decl.Owner.Unit, scope: decl.Owner.Scope, typ: m.Container, typeParams: m.TypeParameters}
	var out []Attribute
	for _, ad := range decl.Attributes {
		if ad.Target != "" && ad.Target != "method" {
			continue
		}
		attr := Attribute{Decl: ad, Unit: b.unit}
		attr.Type = b.bindAttribute(ad.NameNode)
		if attr.Type != nil {
			attr.ClassName = attr.Type.Name
		} else {
			attr.ClassName = unresolvedAttributeName(ad.Name)
		}
		out = append(out, attr)
	}
	return out
}

// bindAttribute resolves an attribute name, trying the Attribute-suffixed
// spelling before the name as written.
func (b *binder) bindAttribute(node *sitter.Node) *TypeSymbol {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "identifier", "generic_name":
		name, args := b.simpleName(node)
		if !strings.HasSuffix(name, "Attribute") {
			if sym := b.lookupType(name+"Attribute", len(args)); sym != nil {
				return sym
			}
		}
		return b.lookupType(name, len(args))
	case "qualified_name", "alias_qualified_name":
		var ns string
		var container *TypeSymbol
		if node.Kind() == "qualified_name" {
			ns, container = b.namespaceOrType(node.ChildByFieldName("qualifier"))
			if ns == "" && container == nil {
				return nil
			}
		} else if alias := b.text(node.ChildByFieldName("alias")); alias != "global" {
			ns, container = b.aliasTarget(alias)
			if ns == "" && container == nil {
				return nil
			}
		}
		name, args := b.simpleName(node.ChildByFieldName("name"))
		if !strings.HasSuffix(name, "Attribute") {
			if _, sym := b.c.member(ns, container, name+"Attribute", len(args)); sym != nil {
				return sym
			}
		}
		_, sym := b.c.member(ns, container, name, len(args))
		return sym
	}
	return nil
}

func unresolvedAttributeName(written string) string {
	name := written
	if i := strings.LastIndexAny(name, ".:"); i >= 0 {
		name = name[i+1:]
	}
	if !strings.HasSuffix(name, "Attribute") {
		name += "Attribute"
	}
	return name
}
