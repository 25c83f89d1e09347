package semantic

import (
	"strings"

	"actiongen/internal/engine/parser"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type Accessibility int

const (
	AccessNotApplicable Accessibility = iota
	AccessPrivate
	AccessPrivateProtected
	AccessProtected
	AccessInternal
	AccessProtectedInternal
	AccessPublic
)

func (a Accessibility) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessPrivateProtected:
		return "private protected"
	case AccessProtected:
		return "protected"
	case AccessInternal:
		return "internal"
	case AccessProtectedInternal:
		return "protected internal"
	case AccessPublic:
		return "public"
	}
	return "not applicable"
}

// accessibilityOf maps declared modifiers to an accessibility, falling back
// to def when none is written.
func accessibilityOf(mods []string, def Accessibility) Accessibility {
	var public, private, protected, internal bool
	for _, m := range mods {
		switch m {
		case "public":
			public = true
		case "private":
			private = true
		case "protected":
			protected = true
		case "internal":
			internal = true
		}
	}
	switch {
	case public:
		return AccessPublic
	case protected && internal:
		return AccessProtectedInternal
	case private && protected:
		return AccessPrivateProtected
	case protected:
		return AccessProtected
	case internal:
		return AccessInternal
	case private:
		return AccessPrivate
	}
	return def
}

// TypeSymbol is a named type. Partial declarations share one symbol.
type TypeSymbol struct {
	Name           string
	TypeParameters []string
	Kind           parser.TypeKind
	Namespace      string
	Container      *TypeSymbol
	Accessibility  Accessibility
	IsStatic       bool
	FromReference  bool

	Decls      []*parser.TypeDecl
	Bases      []*Type
	Methods    []*MethodSymbol
	Fields     []*FieldSymbol
	Properties []*PropertySymbol
	Nested     []*TypeSymbol
}

// FullName is the dotted name without the global alias, e.g.
// "Yarn.Unity.DialogueRunner" or "Game.Outer.Inner".
func (t *TypeSymbol) FullName() string {
	if t.Container != nil {
		return t.Container.FullName() + "." + t.Name
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// DisplayName renders the fully qualified form, e.g.
// "global::Yarn.Unity.DialogueRunner".
func (t *TypeSymbol) DisplayName() string {
	if keyword, ok := keywordForSpecial[t.FullName()]; ok && len(t.TypeParameters) == 0 {
		return keyword
	}
	return "global::" + t.FullName()
}

func (t *TypeSymbol) Arity() int {
	return len(t.TypeParameters)
}

func (t *TypeSymbol) key() string {
	return typeKey(t.FullName(), t.Arity())
}

// IsValueType reports whether t is a struct or enum.
func (t *TypeSymbol) IsValueType() bool {
	return t.Kind == parser.TypeStruct || t.Kind == parser.TypeEnum
}

func (t *TypeSymbol) HasAttribute(fullName string) bool {
	short := fullName
	if i := strings.LastIndex(fullName, "."); i >= 0 {
		short = fullName[i+1:]
	}
	for _, decl := range t.Decls {
		for _, attr := range decl.Attributes {
			name := strings.TrimPrefix(attr.Name, "global::")
			if name == fullName || name == strings.TrimSuffix(fullName, "Attribute") ||
				name == short || name == strings.TrimSuffix(short, "Attribute") {
				return true
			}
		}
	}
	return false
}

func (t *TypeSymbol) nestedNamed(name string, arity int) *TypeSymbol {
	for _, n := range t.Nested {
		if n.Name == name && n.Arity() == arity {
			return n
		}
	}
	return nil
}

func (t *TypeSymbol) fieldNamed(name string) *FieldSymbol {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (t *TypeSymbol) propertyNamed(name string) *PropertySymbol {
	for _, p := range t.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (t *TypeSymbol) methodsNamed(name string) []*MethodSymbol {
	var out []*MethodSymbol
	for _, m := range t.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

type MethodSymbol struct {
	Name           string
	Container      *TypeSymbol
	Accessibility  Accessibility
	IsStatic       bool
	TypeParameters []string
	ReturnType     *Type
	Parameters     []*ParameterSymbol
	Decl           *parser.MethodDecl
}

// Unit is the file declaring m.
func (m *MethodSymbol) Unit() *parser.Unit {
	if m.Decl == nil || m.Decl.Owner == nil {
		return nil
	}
	return m.Decl.Owner.Unit
}

func (m *MethodSymbol) requiredParameters() int {
	n := 0
	for _, p := range m.Parameters {
		if !p.IsOptional && !p.IsParams {
			n++
		}
	}
	return n
}

func (m *MethodSymbol) accepts(argCount int) bool {
	if argCount < 0 {
		return true
	}
	if argCount < m.requiredParameters() {
		return false
	}
	if len(m.Parameters) > 0 && m.Parameters[len(m.Parameters)-1].IsParams {
		return true
	}
	return argCount <= len(m.Parameters)
}

type ParameterSymbol struct {
	Name       string
	Type       *Type
	RefKind    string
	IsOptional bool
	IsParams   bool
	Default    *sitter.Node
	Decl       *parser.ParameterDecl
}

type FieldSymbol struct {
	Name        string
	Type        *Type
	IsConst     bool
	IsStatic    bool
	Initializer *sitter.Node
	Container   *TypeSymbol
	Decl        *parser.FieldDecl
}

type PropertySymbol struct {
	Name      string
	Type      *Type
	IsStatic  bool
	Container *TypeSymbol
	Decl      *parser.PropertyDecl
}

func typeKey(fullName string, arity int) string {
	if arity == 0 {
		return fullName
	}
	return fullName + "`" + itoa(arity)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
