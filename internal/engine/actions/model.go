// Package actions discovers methods exposed to the dialogue runtime as
// commands or functions, and checks them against the registration contract.
package actions

import (
	"actiongen/internal/engine/diagnostics"
	"actiongen/internal/engine/parser"
	"actiongen/internal/engine/semantic"
)

type Kind int

const (
	NotAnAction Kind = iota
	Command
	Function
)

func (k Kind) String() string {
	switch k {
	case Command:
		return "command"
	case Function:
		return "function"
	}
	return "not-an-action"
}

type DeclarationKind int

const (
	AttributeDeclared DeclarationKind = iota
	DirectlyRegistered
)

func (d DeclarationKind) String() string {
	if d == DirectlyRegistered {
		return "direct"
	}
	return "attribute"
}

type AsyncMode int

const (
	Sync AsyncMode = iota
	// MaybeAsyncCoroutine commands block only when they return a non-nil
	// coroutine handle.
	MaybeAsyncCoroutine
	AsyncCoroutine
)

func (a AsyncMode) String() string {
	switch a {
	case MaybeAsyncCoroutine:
		return "maybe-async"
	case AsyncCoroutine:
		return "async"
	}
	return "sync"
}

type Parameter struct {
	Name          string
	Type          *semantic.Type
	IsOptional    bool
	IsParamsArray bool
	// RefKind is "ref", "out" or "in" for by-reference parameters.
	RefKind string
	// DefaultValue is the evaluated default, empty when there is none or it
	// is not constant.
	DefaultValue string
	Description  string
}

// Action is a method discovered for registration.
type Action struct {
	Name            string
	Kind            Kind
	DeclarationKind DeclarationKind
	AsyncMode       AsyncMode
	IsStatic        bool
	ContainingType  *semantic.TypeSymbol
	Method          *semantic.MethodSymbol
	Parameters      []Parameter
	// SourceFile is the declaring file for attribute actions and the file of
	// the registering call for direct ones.
	SourceFile  string
	Description string
	// Location is the method declaration, or the registering call when the
	// target has no declaration in the analysed sources.
	Location    parser.Range
	MarkerCount int
	Diagnostics []diagnostics.Diagnostic
}

// Eligible reports whether a is emitted: classified and free of diagnostics.
func (a *Action) Eligible() bool {
	return a.Kind != NotAnAction && len(a.Diagnostics) == 0
}

func (a *Action) MethodName() string {
	if a.Method == nil {
		return ""
	}
	return a.Method.Name
}

func (a *Action) ReturnType() *semantic.Type {
	if a.Method == nil {
		return nil
	}
	return a.Method.ReturnType
}

// ParameterTypes lists the parameter types in declaration order.
func (a *Action) ParameterTypes() []*semantic.Type {
	out := make([]*semantic.Type, len(a.Parameters))
	for i, p := range a.Parameters {
		out[i] = p.Type
	}
	return out
}

// Eligible filters the actions that are emitted, keeping their order.
func Eligible(all []*Action) []*Action {
	var out []*Action
	for _, a := range all {
		if a.Eligible() {
			out = append(out, a)
		}
	}
	return out
}

// Diagnostics flattens the diagnostics of every action, in action order.
func Diagnostics(all []*Action) []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic
	for _, a := range all {
		out = append(out, a.Diagnostics...)
	}
	return out
}
