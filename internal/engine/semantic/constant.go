package semantic

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"actiongen/internal/engine/parser"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type ConstantKind int

const (
	ConstNull ConstantKind = iota
	ConstString
	ConstInt
	ConstFloat
	ConstBool
	ConstChar
)

// Constant is a compile-time value.
type Constant struct {
	Kind   ConstantKind
	String string
	Int    int64
	Float  float64
	Bool   bool
}

// Text renders the value the way the runtime prints it: strings raw, bools
// as True or False, null as the empty string.
func (c Constant) Text() string {
	switch c.Kind {
	case ConstString, ConstChar:
		return c.String
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ConstBool:
		if c.Bool {
			return "True"
		}
		return "False"
	}
	return ""
}

func (c Constant) numeric() (float64, bool) {
	switch c.Kind {
	case ConstInt:
		return float64(c.Int), true
	case ConstFloat:
		return c.Float, true
	}
	return 0, false
}

// EvaluateConstant folds expr to a compile-time constant. Supported forms are
// literals, string concatenation, arithmetic on numbers, parentheses, casts,
// nameof, and references to const fields or const locals.
func (c *Compilation) EvaluateConstant(unit *parser.Unit, expr *sitter.Node) (Constant, bool) {
	if expr == nil {
		return Constant{}, false
	}
	return c.evaluate(c.binderAt(unit, expr), expr)
}

func (c *Compilation) evaluate(b *binder, expr *sitter.Node) (Constant, bool) {
	switch expr.Kind() {
	case "string_literal":
		return Constant{Kind: ConstString, String: decodeStringLiteral(b, expr)}, true
	case "verbatim_string_literal":
		text := b.text(expr)
		text = strings.TrimSuffix(strings.TrimPrefix(text, "@\""), "\"")
		return Constant{Kind: ConstString, String: strings.ReplaceAll(text, "\"\"", "\"")}, true
	case "raw_string_literal":
		return Constant{Kind: ConstString, String: decodeRawString(b.text(expr))}, true
	case "interpolated_string_expression":
		return c.evaluateInterpolated(b, expr)
	case "character_literal":
		s := decodeEscapes(strings.TrimSuffix(strings.TrimPrefix(b.text(expr), "'"), "'"))
		r, _ := utf8.DecodeRuneInString(s)
		return Constant{Kind: ConstChar, String: s, Int: int64(r)}, true
	case "integer_literal":
		if v, ok := parseInteger(b.text(expr)); ok {
			return Constant{Kind: ConstInt, Int: v}, true
		}
	case "real_literal":
		if v, ok := parseReal(b.text(expr)); ok {
			return Constant{Kind: ConstFloat, Float: v}, true
		}
	case "boolean_literal":
		return Constant{Kind: ConstBool, Bool: b.text(expr) == "true"}, true
	case "null_literal":
		return Constant{Kind: ConstNull}, true
	case "parenthesized_expression":
		if expr.NamedChildCount() > 0 {
			return c.evaluate(b, expr.NamedChild(0))
		}
	case "cast_expression":
		if v := expr.ChildByFieldName("value"); v != nil {
			return c.evaluate(b, v)
		}
	case "prefix_unary_expression":
		return c.evaluateUnary(b, expr)
	case "binary_expression":
		return c.evaluateBinary(b, expr)
	case "invocation_expression":
		return c.evaluateNameof(b, expr)
	case "identifier", "member_access_expression":
		r := c.resolve(b, expr)
		if r.constInit != nil {
			return c.evaluate(b, r.constInit)
		}
		if r.field != nil && r.field.IsConst && r.field.Initializer != nil {
			return c.evaluateField(r.field)
		}
	}
	return Constant{}, false
}

// evaluateField folds a const field initializer in its declaring file. A
// field already being evaluated is not constant.
func (c *Compilation) evaluateField(f *FieldSymbol) (Constant, bool) {
	if c.evaluating[f] {
		return Constant{}, false
	}
	c.evaluating[f] = true
	defer delete(c.evaluating, f)
	unit := f.Decl.Owner.Unit
	return c.evaluate(c.binderAt(unit, f.Initializer), f.Initializer)
}

func (c *Compilation) evaluateUnary(b *binder, expr *sitter.Node) (Constant, bool) {
	if expr.ChildCount() < 2 {
		return Constant{}, false
	}
	op := expr.Child(0).Kind()
	v, ok := c.evaluate(b, expr.NamedChild(0))
	if !ok {
		return Constant{}, false
	}
	switch {
	case op == "-" && v.Kind == ConstInt:
		return Constant{Kind: ConstInt, Int: -v.Int}, true
	case op == "-" && v.Kind == ConstFloat:
		return Constant{Kind: ConstFloat, Float: -v.Float}, true
	case op == "+" && (v.Kind == ConstInt || v.Kind == ConstFloat):
		return v, true
	case op == "!" && v.Kind == ConstBool:
		return Constant{Kind: ConstBool, Bool: !v.Bool}, true
	}
	return Constant{}, false
}

func (c *Compilation) evaluateBinary(b *binder, expr *sitter.Node) (Constant, bool) {
	left, ok := c.evaluate(b, expr.ChildByFieldName("left"))
	if !ok {
		return Constant{}, false
	}
	right, ok := c.evaluate(b, expr.ChildByFieldName("right"))
	if !ok {
		return Constant{}, false
	}
	op := ""
	if n := expr.ChildByFieldName("operator"); n != nil {
		op = b.text(n)
	}

	if op == "+" && (left.Kind == ConstString || right.Kind == ConstString) {
		if (left.Kind == ConstString || left.Kind == ConstNull) && (right.Kind == ConstString || right.Kind == ConstNull) {
			return Constant{Kind: ConstString, String: left.String + right.String}, true
		}
		return Constant{}, false
	}
	if left.Kind == ConstInt && right.Kind == ConstInt {
		switch op {
		case "+":
			return Constant{Kind: ConstInt, Int: left.Int + right.Int}, true
		case "-":
			return Constant{Kind: ConstInt, Int: left.Int - right.Int}, true
		case "*":
			return Constant{Kind: ConstInt, Int: left.Int * right.Int}, true
		case "/":
			if right.Int != 0 {
				return Constant{Kind: ConstInt, Int: left.Int / right.Int}, true
			}
		case "%":
			if right.Int != 0 {
				return Constant{Kind: ConstInt, Int: left.Int % right.Int}, true
			}
		}
		return Constant{}, false
	}
	l, lok := left.numeric()
	r, rok := right.numeric()
	if lok && rok {
		switch op {
		case "+":
			return Constant{Kind: ConstFloat, Float: l + r}, true
		case "-":
			return Constant{Kind: ConstFloat, Float: l - r}, true
		case "*":
			return Constant{Kind: ConstFloat, Float: l * r}, true
		case "/":
			return Constant{Kind: ConstFloat, Float: l / r}, true
		}
	}
	if left.Kind == ConstBool && right.Kind == ConstBool {
		switch op {
		case "&&":
			return Constant{Kind: ConstBool, Bool: left.Bool && right.Bool}, true
		case "||":
			return Constant{Kind: ConstBool, Bool: left.Bool || right.Bool}, true
		}
	}
	return Constant{}, false
}

// evaluateNameof folds nameof(x.y.Z) to "Z" unless a method called nameof is
// in scope.
func (c *Compilation) evaluateNameof(b *binder, call *sitter.Node) (Constant, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" || b.text(fn) != "nameof" {
		return Constant{}, false
	}
	if r := c.resolve(b, fn); r.kind == resolvedMethods {
		return Constant{}, false
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || countArguments(args) != 1 {
		return Constant{}, false
	}
	arg := args.NamedChild(0)
	if arg.Kind() == "argument" && arg.NamedChildCount() > 0 {
		arg = arg.NamedChild(arg.NamedChildCount() - 1)
	}
	for arg.Kind() == "member_access_expression" || arg.Kind() == "qualified_name" {
		arg = arg.ChildByFieldName("name")
	}
	if arg == nil {
		return Constant{}, false
	}
	name, _ := b.simpleName(arg)
	if name == "" {
		return Constant{}, false
	}
	return Constant{Kind: ConstString, String: name}, true
}

func (c *Compilation) evaluateInterpolated(b *binder, expr *sitter.Node) (Constant, bool) {
	var out strings.Builder
	for i := uint(0); i < expr.NamedChildCount(); i++ {
		part := expr.NamedChild(i)
		switch part.Kind() {
		case "string_content":
			out.WriteString(b.text(part))
		case "escape_sequence":
			out.WriteString(decodeEscapes(b.text(part)))
		case "interpolation":
			v, ok := c.evaluateHole(b, part)
			if !ok {
				return Constant{}, false
			}
			out.WriteString(v)
		}
	}
	return Constant{Kind: ConstString, String: out.String()}, true
}

// evaluateHole evaluates one {expr} of an interpolated string. Only a
// constant string without alignment or format clauses qualifies.
func (c *Compilation) evaluateHole(b *binder, hole *sitter.Node) (string, bool) {
	var value *sitter.Node
	for i := uint(0); i < hole.NamedChildCount(); i++ {
		child := hole.NamedChild(i)
		switch child.Kind() {
		case "interpolation_brace":
		case "interpolation_alignment_clause", "interpolation_format_clause":
			return "", false
		default:
			if value != nil {
				return "", false
			}
			value = child
		}
	}
	if value == nil {
		return "", false
	}
	v, ok := c.evaluate(b, value)
	if !ok || v.Kind != ConstString {
		return "", false
	}
	return v.String, true
}

func decodeStringLiteral(b *binder, lit *sitter.Node) string {
	var out strings.Builder
	for i := uint(0); i < lit.NamedChildCount(); i++ {
		part := lit.NamedChild(i)
		switch part.Kind() {
		case "string_literal_content":
			out.WriteString(b.text(part))
		case "escape_sequence":
			out.WriteString(decodeEscapes(b.text(part)))
		}
	}
	return out.String()
}

// decodeRawString strips the quote fences of a raw string literal. Multi-line
// literals drop their first and last lines and the closing line's
// indentation.
func decodeRawString(text string) string {
	quotes := 0
	for quotes < len(text) && text[quotes] == '"' {
		quotes++
	}
	fence := text[:quotes]
	body := strings.TrimSuffix(text[quotes:], fence)
	if !strings.Contains(body, "\n") {
		return body
	}
	lines := strings.Split(body, "\n")
	if len(lines) < 2 {
		return body
	}
	indent := lines[len(lines)-1]
	lines = lines[1 : len(lines)-1]
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(strings.TrimPrefix(line, indent), "\r")
	}
	return strings.Join(lines, "\n")
}

func decodeEscapes(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			out.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case '0':
			out.WriteByte(0)
		case 'a':
			out.WriteByte('\a')
		case 'b':
			out.WriteByte('\b')
		case 'f':
			out.WriteByte('\f')
		case 'v':
			out.WriteByte('\v')
		case 'e':
			out.WriteByte(0x1b)
		case 'u', 'x', 'U':
			width := 4
			if s[i] == 'U' {
				width = 8
			}
			j := i + 1
			for j < len(s) && j-i-1 < width && isHex(s[j]) {
				j++
			}
			if v, err := strconv.ParseUint(s[i+1:j], 16, 32); err == nil && j > i+1 {
				out.WriteRune(rune(v))
				i = j - 1
			} else {
				out.WriteByte(s[i])
			}
		default:
			out.WriteByte(s[i])
		}
	}
	return out.String()
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func parseInteger(text string) (int64, bool) {
	text = strings.ReplaceAll(strings.ToLower(text), "_", "")
	text = strings.TrimRight(text, "ul")
	base := 10
	switch {
	case strings.HasPrefix(text, "0x"):
		base, text = 16, text[2:]
	case strings.HasPrefix(text, "0b"):
		base, text = 2, text[2:]
	}
	v, err := strconv.ParseUint(text, base, 64)
	if err != nil || v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

func parseReal(text string) (float64, bool) {
	text = strings.ReplaceAll(strings.ToLower(text), "_", "")
	text = strings.TrimRight(text, "fdm")
	v, err := strconv.ParseFloat(text, 64)
	return v, err == nil
}
