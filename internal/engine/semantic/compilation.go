package semantic

import (
	"strings"

	"actiongen/internal/engine/diagnostics"
	"actiongen/internal/engine/parser"
)

// Compilation is the symbol universe built from a set of parsed units. It
// owns the units and their trees until Close.
type Compilation struct {
	units        []*parser.Unit
	types        map[string]*TypeSymbol
	ordered      []*TypeSymbol
	namespaces   map[string]bool
	byDecl       map[*parser.TypeDecl]*TypeSymbol
	methods      map[*parser.MethodDecl]*MethodSymbol
	globalUsings []scopedUsing
	evaluating   map[*FieldSymbol]bool
	diagnostics  []diagnostics.Diagnostic
}

type scopedUsing struct {
	using parser.Using
	unit  *parser.Unit
	scope *parser.Scope
}

func newCompilation() *Compilation {
	return &Compilation{
		types:      make(map[string]*TypeSymbol),
		namespaces: map[string]bool{"": true},
		byDecl:     make(map[*parser.TypeDecl]*TypeSymbol),
		methods:    make(map[*parser.MethodDecl]*MethodSymbol),
		evaluating: make(map[*FieldSymbol]bool),
	}
}

// addUnit declares every type in unit. Members are bound later by bind, once
// all units have been declared.
func (c *Compilation) addUnit(unit *parser.Unit) {
	c.units = append(c.units, unit)
	c.diagnostics = append(c.diagnostics, unit.Errors...)
	for _, u := range unit.Global.Usings {
		if u.Global {
			c.globalUsings = append(c.globalUsings, scopedUsing{using: u, unit: unit, scope: unit.Global})
		}
	}
	for _, decl := range unit.Types {
		c.declare(decl)
	}
}

func (c *Compilation) declare(decl *parser.TypeDecl) {
	container := c.byDecl[decl.Outer]
	ns := decl.Scope.Namespace
	c.addNamespace(ns)

	full := qualify(ns, decl.Name)
	if container != nil {
		full = container.FullName() + "." + decl.Name
	}
	key := typeKey(full, len(decl.TypeParameters))
	sym, exists := c.types[key]
	if !exists {
		def := AccessInternal
		if container != nil {
			def = AccessPrivate
			if container.Kind == parser.TypeInterface {
				def = AccessPublic
			}
		}
		sym = &TypeSymbol{
			Name:           decl.Name,
			TypeParameters: decl.TypeParameters,
			Kind:           decl.Kind,
			Namespace:      ns,
			Container:      container,
			Accessibility:  def,
			FromReference:  decl.Unit != nil && decl.Unit.Reference,
		}
		c.types[key] = sym
		c.ordered = append(c.ordered, sym)
		if container != nil {
			container.Nested = append(container.Nested, sym)
		}
	}
	if explicit := accessibilityOf(decl.Modifiers, AccessNotApplicable); explicit != AccessNotApplicable {
		sym.Accessibility = explicit
	}
	if decl.HasModifier("static") {
		sym.IsStatic = true
	}
	sym.Decls = append(sym.Decls, decl)
	c.byDecl[decl] = sym
}

func (c *Compilation) addNamespace(ns string) {
	for ns != "" {
		c.namespaces[ns] = true
		ns = parentNamespace(ns)
	}
}

// bind resolves base types and member signatures of every declared type.
func (c *Compilation) bind() {
	for _, sym := range c.ordered {
		for _, decl := range sym.Decls {
			outer := &binder{c: c, unit: decl.Unit, scope: decl.Scope, typ: sym.Container, typeParams: sym.TypeParameters}
			for _, base := range decl.Bases {
				sym.Bases = append(sym.Bases, outer.bindType(base))
			}
		}
	}
	for _, sym := range c.ordered {
		for _, decl := range sym.Decls {
			c.bindMembers(sym, decl)
		}
	}
}

func (c *Compilation) bindMembers(sym *TypeSymbol, decl *parser.TypeDecl) {
	memberDefault := AccessPrivate
	if sym.Kind == parser.TypeInterface {
		memberDefault = AccessPublic
	}
	b := &binder{c: c, unit: decl.Unit, scope: decl.Scope, typ: sym}

	for _, md := range decl.Methods {
		access := accessibilityOf(md.Modifiers, memberDefault)
		if md.ExplicitInterface != "" {
			access = AccessPrivate
		}
		m := &MethodSymbol{
			Name:           md.Name,
			Container:      sym,
			Accessibility:  access,
			IsStatic:       md.HasModifier("static"),
			TypeParameters: md.TypeParameters,
			Decl:           md,
		}
		mb := b.withTypeParams(md.TypeParameters)
		m.ReturnType = mb.bindType(md.Return)
		for _, pd := range md.Parameters {
			p := &ParameterSymbol{
				Name:       pd.Name,
				Type:       mb.bindType(pd.Type),
				IsOptional: pd.Default != nil,
				IsParams:   pd.IsParams,
				Default:    pd.Default,
				Decl:       pd,
			}
			for _, mod := range pd.Modifiers {
				switch mod {
				case "ref", "out", "in":
					p.RefKind = mod
				}
			}
			m.Parameters = append(m.Parameters, p)
		}
		sym.Methods = append(sym.Methods, m)
		c.methods[md] = m
	}
	for _, fd := range decl.Fields {
		isConst := fd.HasModifier("const")
		sym.Fields = append(sym.Fields, &FieldSymbol{
			Name:        fd.Name,
			Type:        b.bindType(fd.Type),
			IsConst:     isConst,
			IsStatic:    isConst || fd.HasModifier("static"),
			Initializer: fd.Initializer,
			Container:   sym,
			Decl:        fd,
		})
	}
	for _, pd := range decl.Properties {
		sym.Properties = append(sym.Properties, &PropertySymbol{
			Name:      pd.Name,
			Type:      b.bindType(pd.Type),
			IsStatic:  pd.HasModifier("static"),
			Container: sym,
			Decl:      pd,
		})
	}
}

// Units returns the scanned source units, references excluded, in the order
// they were added.
func (c *Compilation) Units() []*parser.Unit {
	var out []*parser.Unit
	for _, u := range c.units {
		if !u.Reference {
			out = append(out, u)
		}
	}
	return out
}

// Diagnostics returns the syntax errors reported for every unit.
func (c *Compilation) Diagnostics() []diagnostics.Diagnostic {
	out := make([]diagnostics.Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

// LookupType finds a type by dotted full name and arity.
func (c *Compilation) LookupType(fullName string, arity int) *TypeSymbol {
	return c.types[typeKey(strings.TrimPrefix(fullName, "global::"), arity)]
}

// Types returns every declared type in declaration order.
func (c *Compilation) Types() []*TypeSymbol {
	out := make([]*TypeSymbol, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// HasTypeNamed reports whether any type uses the simple name.
func (c *Compilation) HasTypeNamed(name string) bool {
	for _, t := range c.ordered {
		if t.Name == name {
			return true
		}
	}
	return false
}

// ResolveDeclaredSymbol returns the symbol for a method declaration.
func (c *Compilation) ResolveDeclaredSymbol(decl *parser.MethodDecl) *MethodSymbol {
	return c.methods[decl]
}

// TypeSymbolFor returns the symbol merged from decl.
func (c *Compilation) TypeSymbolFor(decl *parser.TypeDecl) *TypeSymbol {
	return c.byDecl[decl]
}

func (c *Compilation) Close() {
	for _, u := range c.units {
		u.Close()
	}
}

// hierarchy lists t followed by its base types and interfaces, breadth first,
// each at most once.
func (c *Compilation) hierarchy(t *TypeSymbol) []*TypeSymbol {
	if t == nil {
		return nil
	}
	seen := map[*TypeSymbol]bool{t: true}
	out := []*TypeSymbol{t}
	for i := 0; i < len(out); i++ {
		for _, base := range out[i].Bases {
			if base == nil || base.Form != FormNamed || seen[base.Symbol] {
				continue
			}
			seen[base.Symbol] = true
			out = append(out, base.Symbol)
		}
	}
	return out
}

func (c *Compilation) nestedInHierarchy(t *TypeSymbol, name string, arity int) *TypeSymbol {
	for _, h := range c.hierarchy(t) {
		if n := h.nestedNamed(name, arity); n != nil {
			return n
		}
	}
	return nil
}

func (c *Compilation) fieldInHierarchy(t *TypeSymbol, name string) *FieldSymbol {
	for _, h := range c.hierarchy(t) {
		if f := h.fieldNamed(name); f != nil {
			return f
		}
	}
	return nil
}

func (c *Compilation) propertyInHierarchy(t *TypeSymbol, name string) *PropertySymbol {
	for _, h := range c.hierarchy(t) {
		if p := h.propertyNamed(name); p != nil {
			return p
		}
	}
	return nil
}

// methodsInHierarchy collects overloads named name, most derived first.
func (c *Compilation) methodsInHierarchy(t *TypeSymbol, name string) []*MethodSymbol {
	var out []*MethodSymbol
	for _, h := range c.hierarchy(t) {
		out = append(out, h.methodsNamed(name)...)
	}
	return out
}

func qualify(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "." + name
}

func parentNamespace(ns string) string {
	if i := strings.LastIndex(ns, "."); i >= 0 {
		return ns[:i]
	}
	return ""
}

// TypeDomain classifies t for validation.
func (c *Compilation) TypeDomain(t *Type) Domain {
	return TypeDomain(t)
}
