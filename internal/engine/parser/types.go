// # internal/engine/parser/types.go
package parser

import (
	"actiongen/internal/engine/diagnostics"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Location is a 1-based source position.
type Location struct {
	File   string
	Line   int
	Column int
}

type Range struct {
	Start Location
	End   Location
}

// Span converts r for diagnostic reporting.
func (r Range) Span() diagnostics.Span {
	return diagnostics.Span{
		File:        r.Start.File,
		StartLine:   r.Start.Line,
		StartColumn: r.Start.Column,
		EndLine:     r.End.Line,
		EndColumn:   r.End.Column,
	}
}

// Unit is one parsed C# source file. Its tree, and every node reachable from
// the declarations, stays valid until Close.
type Unit struct {
	Path   string
	Source []byte
	Tree   *sitter.Tree
	// Reference units contribute symbols but are never scanned for actions.
	Reference bool

	Global *Scope
	// Types lists every type declaration in the file, nested types included,
	// in source order.
	Types  []*TypeDecl
	Errors []diagnostics.Diagnostic
}

func (u *Unit) Root() *sitter.Node {
	if u.Tree == nil {
		return nil
	}
	return u.Tree.RootNode()
}

func (u *Unit) Close() {
	if u.Tree != nil {
		u.Tree.Close()
		u.Tree = nil
	}
}

// Text returns the source text covered by node.
func (u *Unit) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(u.Source[node.StartByte():node.EndByte()])
}

func (u *Unit) Range(node *sitter.Node) Range {
	start := node.StartPosition()
	end := node.EndPosition()
	return Range{
		Start: Location{File: u.Path, Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		End:   Location{File: u.Path, Line: int(end.Row) + 1, Column: int(end.Column) + 1},
	}
}

// Using is a using directive.
type Using struct {
	Alias  string
	Name   string
	Target *sitter.Node
	Static bool
	Global bool
}

// Scope is a namespace body: the global namespace of a file, a block-scoped
// namespace, or a file-scoped namespace.
type Scope struct {
	Namespace string
	Usings    []Using
	Parent    *Scope
}

type TypeKind int

const (
	TypeClass TypeKind = iota
	TypeStruct
	TypeInterface
	TypeRecord
	TypeEnum
	TypeDelegate
)

func (k TypeKind) String() string {
	switch k {
	case TypeClass:
		return "class"
	case TypeStruct:
		return "struct"
	case TypeInterface:
		return "interface"
	case TypeRecord:
		return "record"
	case TypeEnum:
		return "enum"
	case TypeDelegate:
		return "delegate"
	}
	return "unknown"
}

type TypeDecl struct {
	Name           string
	Kind           TypeKind
	TypeParameters []string
	Modifiers      []string
	Attributes     []*AttributeDecl
	Bases          []*sitter.Node
	Scope          *Scope
	Outer          *TypeDecl
	Nested         []*TypeDecl
	Methods        []*MethodDecl
	Fields         []*FieldDecl
	Properties     []*PropertyDecl
	Node           *sitter.Node
	NameNode       *sitter.Node
	Unit           *Unit
}

// HasModifier reports whether keyword appears among the declared modifiers.
func (t *TypeDecl) HasModifier(keyword string) bool {
	return hasModifier(t.Modifiers, keyword)
}

type MethodDecl struct {
	Name           string
	Modifiers      []string
	Attributes     []*AttributeDecl
	TypeParameters []string
	Return         *sitter.Node
	Parameters     []*ParameterDecl
	// Explicit interface implementations carry the interface name here.
	ExplicitInterface string
	Doc               *DocComment
	Node              *sitter.Node
	NameNode          *sitter.Node
	Owner             *TypeDecl
}

func (m *MethodDecl) HasModifier(keyword string) bool {
	return hasModifier(m.Modifiers, keyword)
}

type ParameterDecl struct {
	Name      string
	Type      *sitter.Node
	Modifiers []string
	Default   *sitter.Node
	IsParams  bool
	Node      *sitter.Node
}

type FieldDecl struct {
	Name        string
	Type        *sitter.Node
	Modifiers   []string
	Initializer *sitter.Node
	Node        *sitter.Node
	Owner       *TypeDecl
}

func (f *FieldDecl) HasModifier(keyword string) bool {
	return hasModifier(f.Modifiers, keyword)
}

type PropertyDecl struct {
	Name      string
	Type      *sitter.Node
	Modifiers []string
	Node      *sitter.Node
	Owner     *TypeDecl
}

func (p *PropertyDecl) HasModifier(keyword string) bool {
	return hasModifier(p.Modifiers, keyword)
}

// AttributeDecl is one attribute application, e.g. [YarnCommand("jump")].
type AttributeDecl struct {
	// Name is the attribute name as written, without generic arguments.
	Name     string
	NameNode *sitter.Node
	Target   string
	Args     []AttributeArg
	Node     *sitter.Node
}

// AttributeArg is a positional argument when Name is empty.
type AttributeArg struct {
	Name string
	Expr *sitter.Node
}

// DocComment is the parsed content of a /// documentation comment.
type DocComment struct {
	Summary string
	Params  map[string]string
	Raw     string
}

func hasModifier(modifiers []string, keyword string) bool {
	for _, m := range modifiers {
		if m == keyword {
			return true
		}
	}
	return false
}
