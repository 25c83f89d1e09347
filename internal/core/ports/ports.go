package ports

import (
	"actiongen/internal/engine/diagnostics"
	"actiongen/internal/engine/parser"
	"actiongen/internal/engine/semantic"
	"context"
	"io"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// SourceParser abstracts source parsing and file support checks.
type SourceParser interface {
	ParseFile(ctx context.Context, path string, content []byte) (*parser.Unit, error)
	IsSupportedPath(path string) bool
	SupportedExtensions() []string
}

// Frontend is the parsing and symbol-resolution capability action discovery
// runs against. Nodes passed in must belong to one of Units or to a
// reference unit of the same compilation.
type Frontend interface {
	// Units lists the scanned source units in discovery order.
	Units() []*parser.Unit
	ResolveDeclaredSymbol(decl *parser.MethodDecl) *semantic.MethodSymbol
	ResolveCallTargetSymbol(unit *parser.Unit, call *sitter.Node) *semantic.MethodSymbol
	CallTypeArguments(unit *parser.Unit, call *sitter.Node) []*semantic.Type
	ResolveMethodGroup(unit *parser.Unit, expr *sitter.Node, sig *semantic.Signature) *semantic.MethodSymbol
	Attributes(m *semantic.MethodSymbol) []semantic.Attribute
	EvaluateConstant(unit *parser.Unit, expr *sitter.Node) (semantic.Constant, bool)
	TypeDomain(t *semantic.Type) semantic.Domain
	TypeSymbolFor(decl *parser.TypeDecl) *semantic.TypeSymbol
}

// Compiler builds a Frontend from source files.
type Compiler interface {
	Compile(ctx context.Context, sources []semantic.Source) (*semantic.Compilation, error)
}

// SourceDiscovery expands input paths into the source files of a run.
type SourceDiscovery interface {
	Discover(ctx context.Context, paths []string) ([]string, error)
}

// ActionSummary is the reporting view of one discovered action.
type ActionSummary struct {
	Name            string
	Kind            string
	DeclarationKind string
	AsyncMode       string
	Method          string
	IsStatic        bool
	File            string
	Line            int
	Emitted         bool
}

// Report summarizes a completed run for report writers.
type Report struct {
	RunID       string
	Tool        string
	Version     string
	Files       int
	Output      string
	Written     bool
	Duration    time.Duration
	Actions     []ActionSummary
	Diagnostics []diagnostics.Diagnostic
}

// ReportWriter renders a run report.
type ReportWriter interface {
	Write(w io.Writer, report Report) error
}

// GenerateRequest drives one generation run.
type GenerateRequest struct {
	Paths []string
	// DryRun discovers and validates without writing any file.
	DryRun bool
}

// WatchService reruns generation on source changes until ctx ends.
type WatchService interface {
	Watch(ctx context.Context, req GenerateRequest, onRun func(Report, error)) error
}
