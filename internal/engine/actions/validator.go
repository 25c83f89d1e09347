package actions

import (
	"strings"
	"unicode"

	"actiongen/internal/core/ports"
	"actiongen/internal/engine/diagnostics"
	"actiongen/internal/engine/parser"
	"actiongen/internal/engine/semantic"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type ValidatorOptions struct {
	// StrictCommandReturns rejects command return types outside
	// CommandReturnTypes.
	StrictCommandReturns bool
	CommandReturnTypes   []string
}

func DefaultValidatorOptions() ValidatorOptions {
	return ValidatorOptions{
		CommandReturnTypes: []string{
			"System.Void",
			"System.Collections.IEnumerator",
			"UnityEngine.Coroutine",
			"System.Threading.Tasks.Task",
			"Cysharp.Threading.Tasks.UniTask",
			"UnityEngine.Awaitable",
			"Yarn.Unity.YarnTask",
		},
	}
}

// Validator attaches diagnostics to classified actions. It never changes an
// action's kind.
type Validator struct {
	fe   ports.Frontend
	opts ValidatorOptions
}

func NewValidator(fe ports.Frontend, opts ValidatorOptions) *Validator {
	return &Validator{fe: fe, opts: opts}
}

// Validate checks every action and returns all diagnostics in action order.
func (v *Validator) Validate(all []*Action) []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic
	for _, a := range all {
		v.validate(a)
		out = append(out, a.Diagnostics...)
	}
	return out
}

func (v *Validator) validate(a *Action) {
	if !validName(a.Name) {
		a.report(diagnostics.InvalidIdentifierName, a.Location, a.Name)
	}
	if a.DeclarationKind == AttributeDeclared {
		v.checkAccessibility(a)
	}
	switch a.Kind {
	case NotAnAction:
		a.report(diagnostics.MustHaveExactlyOneMarker, a.nameRange(), a.MethodName(), a.MarkerCount)
	case Function:
		v.checkFunction(a)
	case Command:
		if v.opts.StrictCommandReturns {
			v.checkCommand(a)
		}
	}
	if a.Kind != NotAnAction {
		v.checkParameters(a)
	}
}

// checkParameters rejects parameters the generated registration could not
// name or bind.
func (v *Validator) checkParameters(a *Action) {
	for i, p := range a.Parameters {
		if !referencable(p.Type) {
			a.report(diagnostics.ParameterTypeUnresolved, a.parameterRange(i), a.MethodName(), p.Name, p.Type.Display())
		}
		if a.IsStatic && p.RefKind != "" {
			a.report(diagnostics.ParameterPassedByReference, a.parameterRange(i), a.MethodName(), p.Name, p.RefKind)
		}
	}
}

// referencable reports whether t can be written as a fully qualified type
// outside the declaring method: every part is bound to a symbol and no
// method type parameter is involved.
func referencable(t *semantic.Type) bool {
	if t == nil {
		return false
	}
	switch t.Form {
	case semantic.FormUnresolved, semantic.FormTypeParameter:
		return false
	case semantic.FormNamed:
		if t.Symbol == nil {
			return false
		}
		for _, arg := range t.Args {
			if !referencable(arg) {
				return false
			}
		}
		return true
	case semantic.FormArray, semantic.FormNullable, semantic.FormPointer:
		return referencable(t.Elem)
	case semantic.FormTuple:
		for _, e := range t.Elements {
			if !referencable(e.Type) {
				return false
			}
		}
		return true
	}
	return t.Resolved()
}

func (v *Validator) checkAccessibility(a *Action) {
	m := a.Method
	if m == nil {
		return
	}
	if m.Accessibility != semantic.AccessPublic {
		a.report(diagnostics.MethodMustBePublic, a.nameRange(), m.Name, m.Accessibility)
		return
	}
	for t := m.Container; t != nil; t = t.Container {
		if t.Accessibility != semantic.AccessPublic {
			a.report(diagnostics.ActionMustBeInPubliclyAccessibleType, a.typeRange(t), m.Name, t.FullName(), t.Accessibility)
			return
		}
	}
}

func (v *Validator) checkFunction(a *Action) {
	if !a.IsStatic {
		a.report(diagnostics.FunctionMustBeStatic, a.nameRange(), a.MethodName())
	}
	ret := a.ReturnType()
	switch v.fe.TypeDomain(ret).Kind {
	case semantic.DomainBool, semantic.DomainInteger, semantic.DomainFloat, semantic.DomainString:
		return
	}
	a.report(diagnostics.FunctionReturnTypeInvalid, a.returnRange(), a.MethodName(), ret.Display())
}

func (v *Validator) checkCommand(a *Action) {
	ret := a.ReturnType()
	if v.fe.TypeDomain(ret).Kind != semantic.DomainString {
		full := ret.FullName()
		for _, allowed := range v.opts.CommandReturnTypes {
			if full == allowed {
				return
			}
		}
	}
	a.report(diagnostics.CommandReturnTypeInvalid, a.returnRange(), a.MethodName(), ret.Display())
}

func (a *Action) report(kind diagnostics.Kind, at parser.Range, args ...interface{}) {
	a.Diagnostics = append(a.Diagnostics, diagnostics.New(kind, at.Span(), args...))
}

// nameRange is the method identifier, or the action location when the
// method has no declaration.
func (a *Action) nameRange() parser.Range {
	return a.declRange(func(d *parser.MethodDecl) *sitter.Node { return d.NameNode })
}

func (a *Action) returnRange() parser.Range {
	return a.declRange(func(d *parser.MethodDecl) *sitter.Node { return d.Return })
}

// parameterRange is the declared type of parameter i, or the method name
// when the declaration is not available.
func (a *Action) parameterRange(i int) parser.Range {
	if a.Method == nil || i >= len(a.Method.Parameters) {
		return a.nameRange()
	}
	decl := a.Method.Parameters[i].Decl
	unit := a.Method.Unit()
	if decl == nil || unit == nil {
		return a.nameRange()
	}
	node := decl.Type
	if node == nil {
		node = decl.Node
	}
	if node == nil {
		return a.nameRange()
	}
	return unit.Range(node)
}

func (a *Action) declRange(pick func(*parser.MethodDecl) *sitter.Node) parser.Range {
	if a.Method == nil || a.Method.Decl == nil {
		return a.Location
	}
	unit := a.Method.Unit()
	node := pick(a.Method.Decl)
	if unit == nil || node == nil {
		return a.Location
	}
	return unit.Range(node)
}

func (a *Action) typeRange(t *semantic.TypeSymbol) parser.Range {
	if len(t.Decls) == 0 || t.Decls[0].NameNode == nil || t.Decls[0].Unit == nil {
		return a.nameRange()
	}
	return t.Decls[0].Unit.Range(t.Decls[0].NameNode)
}

// validName rejects names the dialogue runtime could never dispatch to:
// command lines are split on whitespace.
func validName(name string) bool {
	return name != "" && strings.IndexFunc(name, unicode.IsSpace) < 0
}
