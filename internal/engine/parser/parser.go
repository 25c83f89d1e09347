// # internal/engine/parser/parser.go
package parser

import (
	"actiongen/internal/core/errors"
	"actiongen/internal/engine/diagnostics"
	"context"
	"path/filepath"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type Parser struct {
	loader *GrammarLoader
}

func NewParser(loader *GrammarLoader) *Parser {
	return &Parser{loader: loader}
}

// ParseFile parses content and extracts its declarations. The caller owns the
// returned unit and must Close it.
func (p *Parser) ParseFile(ctx context.Context, path string, content []byte) (*Unit, error) {
	lang := p.loader.languageForExtension(filepath.Ext(path))
	if lang == "" {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported language"), errors.CtxPath, path)
	}
	grammar, err := p.loader.Language(lang)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(grammar); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "set language")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "parse failed"), errors.CtxPath, path)
	}

	unit := &Unit{
		Path:   path,
		Source: content,
		Tree:   tree,
		Global: &Scope{},
	}
	extractDeclarations(unit)
	unit.Errors = collectSyntaxErrors(unit)
	return unit, nil
}

func (p *Parser) IsSupportedPath(path string) bool {
	return p.loader.languageForExtension(filepath.Ext(path)) != ""
}

func (p *Parser) SupportedExtensions() []string {
	return p.loader.SupportedExtensions()
}

func collectSyntaxErrors(unit *Unit) []diagnostics.Diagnostic {
	root := unit.Root()
	if root == nil || !root.HasError() {
		return nil
	}
	var out []diagnostics.Diagnostic
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.IsMissing() {
			out = append(out, diagnostics.New(diagnostics.SyntaxError, unit.Range(n).Span(), "missing "+n.Kind()))
			return
		}
		if n.IsError() {
			out = append(out, diagnostics.New(diagnostics.SyntaxError, unit.Range(n).Span(), "unexpected "+quoteSnippet(unit.Text(n))))
			return
		}
		if !n.HasError() {
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
	return out
}

func quoteSnippet(text string) string {
	const max = 40
	runes := []rune(text)
	if len(runes) > max {
		text = string(runes[:max]) + "..."
	}
	return "\"" + text + "\""
}
