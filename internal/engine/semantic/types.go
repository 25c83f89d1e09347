package semantic

import (
	"strings"
)

type TypeForm int

const (
	FormUnresolved TypeForm = iota
	FormNamed
	FormArray
	FormNullable
	FormPointer
	FormTuple
	FormTypeParameter
)

// Type is a use of a type: a named symbol with optional type arguments, or a
// constructed form over another Type. Unresolved types keep their written
// text in Name.
type Type struct {
	Form     TypeForm
	Symbol   *TypeSymbol
	Args     []*Type
	Elem     *Type
	Rank     int
	Elements []TupleElement
	Name     string
}

type TupleElement struct {
	Type *Type
	Name string
}

var specialByKeyword = map[string]string{
	"bool":    "System.Boolean",
	"byte":    "System.Byte",
	"sbyte":   "System.SByte",
	"char":    "System.Char",
	"decimal": "System.Decimal",
	"double":  "System.Double",
	"float":   "System.Single",
	"int":     "System.Int32",
	"uint":    "System.UInt32",
	"long":    "System.Int64",
	"ulong":   "System.UInt64",
	"short":   "System.Int16",
	"ushort":  "System.UInt16",
	"object":  "System.Object",
	"string":  "System.String",
	"void":    "System.Void",
	"nint":    "System.IntPtr",
	"nuint":   "System.UIntPtr",
}

var keywordForSpecial = func() map[string]string {
	out := make(map[string]string, len(specialByKeyword))
	for keyword, full := range specialByKeyword {
		out[full] = keyword
	}
	return out
}()

// PrimitiveTypes lists the full names the frontend cannot work without.
func PrimitiveTypes() []string {
	return []string{
		"System.Object", "System.Void", "System.Boolean", "System.String", "System.Char",
		"System.SByte", "System.Byte", "System.Int16", "System.UInt16",
		"System.Int32", "System.UInt32", "System.Int64", "System.UInt64",
		"System.Single", "System.Double", "System.Decimal",
	}
}

func namedType(sym *TypeSymbol, args ...*Type) *Type {
	return &Type{Form: FormNamed, Symbol: sym, Args: args}
}

func unresolvedType(text string) *Type {
	return &Type{Form: FormUnresolved, Name: text}
}

// Resolved reports whether every part of t bound to a symbol or type
// parameter.
func (t *Type) Resolved() bool {
	if t == nil {
		return false
	}
	switch t.Form {
	case FormUnresolved:
		return false
	case FormNamed:
		for _, a := range t.Args {
			if !a.Resolved() {
				return false
			}
		}
		return true
	case FormArray, FormNullable, FormPointer:
		return t.Elem.Resolved()
	case FormTuple:
		for _, e := range t.Elements {
			if !e.Type.Resolved() {
				return false
			}
		}
	}
	return true
}

// FullName is the dotted symbol name of a named type, or "" for any other
// form.
func (t *Type) FullName() string {
	if t == nil || t.Form != FormNamed || t.Symbol == nil {
		return ""
	}
	return t.Symbol.FullName()
}

func (t *Type) IsValueType() bool {
	if t == nil {
		return false
	}
	switch t.Form {
	case FormNamed:
		return t.Symbol.IsValueType() || isPrimitiveValue(t.Symbol.FullName())
	case FormNullable, FormTuple:
		return true
	}
	return false
}

func isPrimitiveValue(full string) bool {
	switch full {
	case "System.Object", "System.String", "System.Void":
		return false
	}
	_, ok := keywordForSpecial[full]
	return ok
}

// Display renders t in fully qualified form: predefined types use their
// keyword, other named types carry the global:: prefix, and unresolved types
// appear as written.
func (t *Type) Display() string {
	if t == nil {
		return "?"
	}
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) String() string {
	return t.Display()
}

func (t *Type) write(b *strings.Builder) {
	switch t.Form {
	case FormNamed:
		b.WriteString(t.Symbol.DisplayName())
		if len(t.Args) > 0 {
			b.WriteByte('<')
			for i, a := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				a.write(b)
			}
			b.WriteByte('>')
		}
	case FormArray:
		t.Elem.write(b)
		b.WriteByte('[')
		for i := 1; i < t.Rank; i++ {
			b.WriteByte(',')
		}
		b.WriteByte(']')
	case FormNullable:
		t.Elem.write(b)
		// Nullable reference annotations are not part of the runtime type.
		if t.Elem.IsValueType() || t.Elem.Form == FormUnresolved {
			b.WriteByte('?')
		}
	case FormPointer:
		t.Elem.write(b)
		b.WriteByte('*')
	case FormTuple:
		b.WriteByte('(')
		for i, e := range t.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			e.Type.write(b)
			if e.Name != "" {
				b.WriteByte(' ')
				b.WriteString(e.Name)
			}
		}
		b.WriteByte(')')
	default:
		b.WriteString(t.Name)
	}
}

// substitute replaces method type parameters with explicit type arguments.
func (t *Type) substitute(params []string, args []*Type) *Type {
	if t == nil || len(params) == 0 || len(params) != len(args) {
		return t
	}
	switch t.Form {
	case FormTypeParameter:
		for i, p := range params {
			if p == t.Name {
				return args[i]
			}
		}
	case FormNamed:
		if len(t.Args) == 0 {
			return t
		}
		out := &Type{Form: FormNamed, Symbol: t.Symbol}
		for _, a := range t.Args {
			out.Args = append(out.Args, a.substitute(params, args))
		}
		return out
	case FormArray, FormNullable, FormPointer:
		cp := *t
		cp.Elem = t.Elem.substitute(params, args)
		return &cp
	}
	return t
}

type DomainKind int

const (
	DomainOther DomainKind = iota
	DomainBool
	DomainInteger
	DomainFloat
	DomainString
	DomainEnumerator
	DomainNamed
	DomainVoid
)

func (k DomainKind) String() string {
	switch k {
	case DomainBool:
		return "bool"
	case DomainInteger:
		return "integer"
	case DomainFloat:
		return "float"
	case DomainString:
		return "string"
	case DomainEnumerator:
		return "enumerator"
	case DomainNamed:
		return "named"
	case DomainVoid:
		return "void"
	}
	return "other"
}

// Domain classifies a type for action validation and manifest output. Name
// carries the full type name for DomainNamed.
type Domain struct {
	Kind DomainKind
	Name string
}

// IsNumeric reports integer or floating point domains.
func (d Domain) IsNumeric() bool {
	return d.Kind == DomainInteger || d.Kind == DomainFloat
}

// TypeDomain classifies t. Only resolved named types land outside
// DomainOther.
func TypeDomain(t *Type) Domain {
	if t == nil || t.Form != FormNamed || t.Symbol == nil {
		return Domain{Kind: DomainOther}
	}
	full := t.Symbol.FullName()
	if len(t.Args) == 0 {
		switch full {
		case "System.Boolean":
			return Domain{Kind: DomainBool}
		case "System.SByte", "System.Byte", "System.Int16", "System.UInt16",
			"System.Int32", "System.UInt32", "System.Int64", "System.UInt64":
			return Domain{Kind: DomainInteger}
		case "System.Single", "System.Double", "System.Decimal":
			return Domain{Kind: DomainFloat}
		case "System.String":
			return Domain{Kind: DomainString}
		case "System.Void":
			return Domain{Kind: DomainVoid}
		case "System.Collections.IEnumerator":
			return Domain{Kind: DomainEnumerator}
		}
	}
	return Domain{Kind: DomainNamed, Name: full}
}
