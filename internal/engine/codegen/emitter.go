// Package codegen renders the registration source file for discovered
// actions.
package codegen

import (
	"fmt"
	"strings"

	"actiongen/internal/engine/actions"
	"actiongen/internal/engine/semantic"
)

// RegistrationMethod is the name of the generated method that receives the
// registration target.
const RegistrationMethod = "RegisterActions"

const targetParameter = "target"

type Options struct {
	Namespace   string
	Class       string
	ToolName    string
	ToolVersion string
	// TargetType is the parameter type of RegisterActions.
	TargetType string
	// RegistryMethod receives RegisterActions from the init hook.
	RegistryMethod       string
	InitMethod           string
	EditorInitAttribute  string
	EditorDefine         string
	RuntimeInitAttribute string
	FunctionDeclarations bool
}

func DefaultOptions() Options {
	return Options{
		Namespace:            "Generated.ActionRegistration",
		Class:                "ActionRegistration",
		ToolName:             "YarnActionAnalyzer",
		ToolVersion:          "1.0.0.0",
		TargetType:           "global::Yarn.Unity.IActionRegistration",
		RegistryMethod:       "global::Yarn.Unity.Actions.AddRegistrationMethod",
		InitMethod:           "AddRegisterFunction",
		EditorInitAttribute:  "global::UnityEditor.InitializeOnLoadMethod",
		EditorDefine:         "UNITY_EDITOR",
		RuntimeInitAttribute: "global::UnityEngine.RuntimeInitializeOnLoadMethod(global::UnityEngine.RuntimeInitializeLoadType.BeforeSceneLoad)",
	}
}

type RegistrationGenerator struct {
	opts Options
}

func NewRegistrationGenerator(opts Options) *RegistrationGenerator {
	return &RegistrationGenerator{opts: opts}
}

// Marker is the generated-code attribute placed on the class and on
// RegisterActions.
func (g *RegistrationGenerator) Marker() string {
	return fmt.Sprintf("[System.CodeDom.Compiler.GeneratedCode(%s, %s)]", literal(g.opts.ToolName), literal(g.opts.ToolVersion))
}

// Generate renders the registration file. Statements are grouped by source
// file in first-appearance order and keep discovery order within a group.
// The output depends only on the actions and options.
func (g *RegistrationGenerator) Generate(eligible []*actions.Action) (string, error) {
	registrations := make([]string, 0, len(eligible))
	for _, a := range eligible {
		stmt, err := registrationStatement(a)
		if err != nil {
			return "", err
		}
		registrations = append(registrations, stmt)
	}

	w := &writer{}
	w.line("namespace %s", g.opts.Namespace)
	w.open()
	w.line("%s", g.Marker())
	w.line("public partial class %s", g.opts.Class)
	w.open()
	g.writeInitMethod(w)
	w.blank()
	w.line("%s", g.Marker())
	w.line("public static void %s(%s %s)", RegistrationMethod, g.opts.TargetType, targetParameter)
	w.open()
	writeGroups(w, eligible, registrations, "// Actions from file:")
	if g.opts.FunctionDeclarations {
		var functions []*actions.Action
		var declarations []string
		for _, a := range eligible {
			if a.Kind == actions.Function {
				functions = append(functions, a)
				declarations = append(declarations, functionDeclaration(a))
			}
		}
		writeGroups(w, functions, declarations, "// Function declarations from file:")
	}
	w.close()
	w.close()
	w.close()
	return w.String(), nil
}

func (g *RegistrationGenerator) writeInitMethod(w *writer) {
	if g.opts.EditorInitAttribute != "" {
		if g.opts.EditorDefine != "" {
			w.raw("#if " + g.opts.EditorDefine)
		}
		w.line("[%s]", g.opts.EditorInitAttribute)
		if g.opts.EditorDefine != "" {
			w.raw("#endif")
		}
	}
	if g.opts.RuntimeInitAttribute != "" {
		w.line("[%s]", g.opts.RuntimeInitAttribute)
	}
	w.line("public static void %s()", g.opts.InitMethod)
	w.open()
	w.line("%s(%s);", g.opts.RegistryMethod, RegistrationMethod)
	w.close()
}

// writeGroups writes stmts[i] for each action in one comment-headed block per
// source file. Blocks follow the first appearance of each file.
func writeGroups(w *writer, all []*actions.Action, stmts []string, header string) {
	var files []string
	byFile := map[string][]int{}
	for i, a := range all {
		if _, ok := byFile[a.SourceFile]; !ok {
			files = append(files, a.SourceFile)
		}
		byFile[a.SourceFile] = append(byFile[a.SourceFile], i)
	}
	for _, f := range files {
		w.line("%s", header)
		w.line("// %s", f)
		for _, i := range byFile[f] {
			w.line("%s", stmts[i])
		}
	}
}

func registrationStatement(a *actions.Action) (string, error) {
	if a.Method == nil || a.ContainingType == nil {
		return "", fmt.Errorf("action %q has no resolved method", a.Name)
	}
	var registrar string
	switch a.Kind {
	case actions.Command:
		registrar = "AddCommandHandler"
	case actions.Function:
		registrar = "AddFunction"
	default:
		return "", fmt.Errorf("action %q is not a valid action", a.Name)
	}

	typeArgs := displayAll(a.ParameterTypes())
	if a.Kind == actions.Function {
		typeArgs = append(typeArgs, a.ReturnType().Display())
	}
	if len(typeArgs) > 0 && a.IsStatic {
		registrar += "<" + strings.Join(typeArgs, ", ") + ">"
	}
	return fmt.Sprintf("%s.%s(%s, %s);", targetParameter, registrar, literal(a.Name), methodReference(a)), nil
}

// methodReference is a method group for static methods. Instance methods
// are looked up by reflection and bound to an instance at runtime.
func methodReference(a *actions.Action) string {
	owner := a.ContainingType.DisplayName()
	group := owner + "." + a.MethodName()
	if a.IsStatic {
		return group
	}
	name := "nameof(" + group + ")"
	if a.Method.Accessibility != semantic.AccessPublic {
		name = literal(a.MethodName())
	}
	return fmt.Sprintf("typeof(%s).GetMethod(%s, %s)", owner, name, parameterTypeArray(a.Parameters))
}

// parameterTypeArray is the GetMethod signature array. By-reference
// parameters only match through their by-ref type.
func parameterTypeArray(params []actions.Parameter) string {
	if len(params) == 0 {
		return "new System.Type[] { }"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = "typeof(" + p.Type.Display() + ")"
		if p.RefKind != "" {
			parts[i] += ".MakeByRefType()"
		}
	}
	return "new System.Type[] { " + strings.Join(parts, ", ") + " }"
}

func functionDeclaration(a *actions.Action) string {
	return fmt.Sprintf("%s.RegisterFunctionDeclaration(%s, typeof(%s), %s);",
		targetParameter, literal(a.Name), a.ReturnType().Display(), typeArray(a.ParameterTypes()))
}

func typeArray(types []*semantic.Type) string {
	if len(types) == 0 {
		return "new System.Type[] { }"
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = "typeof(" + t.Display() + ")"
	}
	return "new System.Type[] { " + strings.Join(parts, ", ") + " }"
}

func displayAll(types []*semantic.Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.Display()
	}
	return out
}

// literal renders s as a regular C# string literal.
func literal(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if r < 0x20 || r == 0x85 || r == 0x2028 || r == 0x2029 {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

type writer struct {
	b     strings.Builder
	depth int
}

func (w *writer) line(format string, args ...interface{}) {
	w.b.WriteString(strings.Repeat("    ", w.depth))
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

// raw writes a preprocessor line, which stays unindented.
func (w *writer) raw(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) blank() {
	w.b.WriteByte('\n')
}

func (w *writer) open() {
	w.line("{")
	w.depth++
}

func (w *writer) close() {
	w.depth--
	w.line("}")
}

func (w *writer) String() string {
	return w.b.String()
}
