package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node during declaration extraction.
// Returns true if the handler has processed children and the walker should stop.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries the unit being filled and the lexical position
// of the walker.
type ExtractionContext struct {
	Unit              *Unit
	Engine            *ExtractorEngine
	Scope             *Scope
	Type              *TypeDecl
	ProcessedChildren bool // If true, the walker will skip this node's children
}

func (c *ExtractionContext) ResetProcessedChildren() {
	c.ProcessedChildren = false
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	ctx.ResetProcessedChildren()
	stop := false
	if handler, ok := e.handlers[node.Kind()]; ok {
		stop = handler(ctx, node)
	}

	if !stop && !ctx.ProcessedChildren {
		e.WalkChildren(ctx, node)
	}
}

func (e *ExtractorEngine) WalkChildren(ctx *ExtractionContext, node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

// Enter walks node with the scope and enclosing type replaced, restoring both
// afterwards.
func (c *ExtractionContext) Enter(scope *Scope, typ *TypeDecl, node *sitter.Node) {
	prevScope, prevType := c.Scope, c.Type
	c.Scope, c.Type = scope, typ
	c.Engine.WalkChildren(c, node)
	c.Scope, c.Type = prevScope, prevType
	c.ProcessedChildren = true
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	return c.Unit.Text(node)
}

func (c *ExtractionContext) Location(node *sitter.Node) Location {
	return c.Unit.Range(node).Start
}

func (c *ExtractionContext) ChildText(node *sitter.Node, kind string) string {
	if node == nil {
		return ""
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return c.Text(child)
		}
	}
	return ""
}
