package actions

import (
	"context"
	"log/slog"

	"actiongen/internal/core/ports"
	"actiongen/internal/engine/parser"
	"actiongen/internal/engine/semantic"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const generatedCodeAttribute = "System.CodeDom.Compiler.GeneratedCodeAttribute"

// Options names the marker attributes and runtime entry points discovery
// looks for.
type Options struct {
	CommandAttribute  string
	FunctionAttribute string
	// DispatcherType is the full name of the type whose registrar calls are
	// treated as direct registrations.
	DispatcherType    string
	CommandRegistrar  string
	FunctionRegistrar string
	// DirectFunctions also discovers FunctionRegistrar calls.
	DirectFunctions bool
	SkipGenerated   bool
	CoroutineType   string
	EnumeratorType  string
}

func DefaultOptions() Options {
	return Options{
		CommandAttribute:  "YarnCommandAttribute",
		FunctionAttribute: "YarnFunctionAttribute",
		DispatcherType:    "Yarn.Unity.DialogueRunner",
		CommandRegistrar:  "AddCommandHandler",
		FunctionRegistrar: "AddFunction",
		SkipGenerated:     true,
		CoroutineType:     "UnityEngine.Coroutine",
		EnumeratorType:    "System.Collections.IEnumerator",
	}
}

// Classifier discovers actions in every scanned unit of a frontend.
type Classifier struct {
	fe   ports.Frontend
	opts Options
}

func NewClassifier(fe ports.Frontend, opts Options) *Classifier {
	return &Classifier{fe: fe, opts: opts}
}

// Classify returns the actions of every unit in unit order. Within a unit,
// attribute-declared actions come first, then command registrations, then
// function registrations.
func (c *Classifier) Classify(ctx context.Context) ([]*Action, error) {
	var out []*Action
	for _, unit := range c.fe.Units() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, c.declared(unit)...)
		out = append(out, c.registered(unit)...)
	}
	return out, nil
}

func (c *Classifier) declared(unit *parser.Unit) []*Action {
	var out []*Action
	for _, td := range unit.Types {
		if td.Kind != parser.TypeClass {
			continue
		}
		for _, md := range td.Methods {
			if a := c.declaredAction(unit, md); a != nil {
				out = append(out, a)
			}
		}
	}
	return out
}

func (c *Classifier) declaredAction(unit *parser.Unit, md *parser.MethodDecl) *Action {
	sym := c.fe.ResolveDeclaredSymbol(md)
	if sym == nil {
		slog.Debug("method symbol unresolved", "file", unit.Path, "method", md.Name)
		return nil
	}
	var markers []semantic.Attribute
	for _, attr := range c.fe.Attributes(sym) {
		if attr.ClassName == c.opts.CommandAttribute || attr.ClassName == c.opts.FunctionAttribute {
			markers = append(markers, attr)
		}
	}
	if len(markers) == 0 {
		return nil
	}

	a := c.newAction(unit, sym)
	a.DeclarationKind = AttributeDeclared
	a.MarkerCount = len(markers)
	a.Name = sym.Name
	if len(markers) > 1 {
		a.Kind = NotAnAction
		return a
	}

	marker := markers[0]
	if marker.ClassName == c.opts.CommandAttribute {
		a.Kind = Command
		a.AsyncMode = c.asyncMode(sym.ReturnType)
	} else {
		a.Kind = Function
	}
	if args := marker.Args(); len(args) > 0 {
		if v, ok := c.fe.EvaluateConstant(marker.Unit, args[0]); ok {
			if v.Kind == semantic.ConstString {
				slog.Debug("action name from constant", "method", sym.Name, "name", v.String)
				a.Name = v.String
			} else {
				slog.Debug("action name constant is not a string", "method", sym.Name, "value", v.Text())
			}
		}
	}
	return a
}

// asyncMode maps a command's return type to its blocking behaviour. Return
// types outside the known set fall back to Sync.
func (c *Classifier) asyncMode(ret *semantic.Type) AsyncMode {
	if c.fe.TypeDomain(ret).Kind == semantic.DomainVoid {
		return Sync
	}
	switch ret.FullName() {
	case c.opts.EnumeratorType:
		return AsyncCoroutine
	case c.opts.CoroutineType:
		return MaybeAsyncCoroutine
	}
	return Sync
}

func (c *Classifier) registered(unit *parser.Unit) []*Action {
	var commands, functions []*Action
	walkCalls(unit.Root(), c.opts.SkipGenerated, c.fe, unit, func(call *sitter.Node) {
		target := c.fe.ResolveCallTargetSymbol(unit, call)
		if target == nil {
			if name := calleeName(unit, call); name == c.opts.CommandRegistrar || name == c.opts.FunctionRegistrar {
				slog.Debug("registration call unresolved", "file", unit.Path, "line", unit.Range(call).Start.Line)
			}
			return
		}
		if target.Container == nil || target.Container.FullName() != c.opts.DispatcherType {
			return
		}
		switch {
		case target.Name == c.opts.CommandRegistrar:
			if a := c.registeredAction(unit, call, Command); a != nil {
				commands = append(commands, a)
			}
		case target.Name == c.opts.FunctionRegistrar && c.opts.DirectFunctions:
			if a := c.registeredAction(unit, call, Function); a != nil {
				functions = append(functions, a)
			}
		}
	})
	return append(commands, functions...)
}

func (c *Classifier) registeredAction(unit *parser.Unit, call *sitter.Node, kind Kind) *Action {
	args := callArguments(call)
	if len(args) < 2 {
		return nil
	}
	line := unit.Range(call).Start.Line
	v, ok := c.fe.EvaluateConstant(unit, args[0])
	if !ok {
		slog.Debug("registration name is not constant", "file", unit.Path, "line", line)
		return nil
	}
	if v.Kind != semantic.ConstString {
		slog.Debug("registration name constant is not a string", "file", unit.Path, "line", line, "value", v.Text())
		return nil
	}

	var sig *semantic.Signature
	if typeArgs := c.fe.CallTypeArguments(unit, call); len(typeArgs) > 0 {
		sig = &semantic.Signature{Parameters: typeArgs}
		if kind == Function {
			sig = &semantic.Signature{Parameters: typeArgs[:len(typeArgs)-1], Return: typeArgs[len(typeArgs)-1]}
		}
	}
	target := c.fe.ResolveMethodGroup(unit, args[1], sig)
	if target == nil {
		slog.Debug("registration target unresolved", "file", unit.Path, "line", line, "name", v.String)
		return nil
	}
	slog.Debug("direct registration", "file", unit.Path, "line", line, "name", v.String, "kind", kind)

	a := c.newAction(unit, target)
	a.Name = v.String
	a.Kind = kind
	a.DeclarationKind = DirectlyRegistered
	a.MarkerCount = 1
	if target.Decl == nil {
		a.Location = unit.Range(call)
	}
	return a
}

// newAction fills the fields shared by both discovery paths. SourceFile is
// the unit being scanned.
func (c *Classifier) newAction(unit *parser.Unit, sym *semantic.MethodSymbol) *Action {
	a := &Action{
		IsStatic:       sym.IsStatic,
		ContainingType: sym.Container,
		Method:         sym,
		SourceFile:     unit.Path,
	}
	var doc *parser.DocComment
	if sym.Decl != nil {
		doc = sym.Decl.Doc
		if declUnit := sym.Unit(); declUnit != nil {
			a.Location = declUnit.Range(sym.Decl.Node)
		}
	}
	if doc != nil {
		a.Description = doc.Summary
	}
	for _, p := range sym.Parameters {
		param := Parameter{
			Name:          p.Name,
			Type:          p.Type,
			IsOptional:    p.IsOptional,
			IsParamsArray: p.IsParams,
			RefKind:       p.RefKind,
		}
		if p.Default != nil {
			if v, ok := c.fe.EvaluateConstant(sym.Unit(), p.Default); ok {
				param.DefaultValue = v.Text()
			}
		}
		if doc != nil {
			param.Description = doc.Params[p.Name]
		}
		a.Parameters = append(a.Parameters, param)
	}
	return a
}

// walkCalls visits invocation expressions in source order. Subtrees of
// classes carrying the generated-code attribute are skipped when skip is set.
func walkCalls(root *sitter.Node, skip bool, fe ports.Frontend, unit *parser.Unit, visit func(*sitter.Node)) {
	if root == nil {
		return
	}
	generated := map[uint]bool{}
	if skip {
		for _, td := range unit.Types {
			if td.Kind != parser.TypeClass {
				continue
			}
			if sym := fe.TypeSymbolFor(td); sym != nil && sym.HasAttribute(generatedCodeAttribute) {
				slog.Debug("skipping generated class", "file", unit.Path, "class", sym.FullName())
				generated[td.Node.StartByte()] = true
			}
		}
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Kind() == "class_declaration" && generated[n.StartByte()] {
			return
		}
		if n.Kind() == "invocation_expression" {
			visit(n)
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
}

// callArguments returns the argument expressions of an invocation, with any
// name or ref prefixes stripped.
func callArguments(call *sitter.Node) []*sitter.Node {
	list := call.ChildByFieldName("arguments")
	if list == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < list.NamedChildCount(); i++ {
		arg := list.NamedChild(i)
		if arg.Kind() != "argument" || arg.NamedChildCount() == 0 {
			continue
		}
		out = append(out, arg.NamedChild(arg.NamedChildCount()-1))
	}
	return out
}

func calleeName(unit *parser.Unit, call *sitter.Node) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Kind() {
	case "member_access_expression", "member_binding_expression":
		fn = fn.ChildByFieldName("name")
	case "conditional_access_expression":
		for i := fn.NamedChildCount(); i > 0; i-- {
			if child := fn.NamedChild(i - 1); child.Kind() == "member_binding_expression" {
				fn = child.ChildByFieldName("name")
				break
			}
		}
	}
	if fn != nil && fn.Kind() == "generic_name" {
		fn = fn.NamedChild(0)
	}
	return unit.Text(fn)
}
