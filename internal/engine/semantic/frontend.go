package semantic

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"actiongen/internal/core/errors"
	"actiongen/internal/engine/diagnostics"
	"actiongen/internal/engine/parser"
)

//go:embed prelude.cs
var preludeSource []byte

// PreludePath names the built-in declarations in diagnostics.
const PreludePath = "<prelude>/Prelude.cs"

// Source is one file handed to the frontend. Reference sources contribute
// symbols only.
type Source struct {
	Path      string
	Content   []byte
	Reference bool
}

type Options struct {
	// Prelude adds the built-in runtime and engine declarations.
	Prelude bool
	// RequiredTypes are full type names that must exist for analysis to
	// proceed.
	RequiredTypes []string
	// RequiredNames are simple type names, such as marker attributes, that
	// must exist somewhere in the universe.
	RequiredNames []string
}

// Frontend turns C# sources into a bound Compilation.
type Frontend struct {
	parser *parser.Parser
	opts   Options
}

func NewFrontend(p *parser.Parser, opts Options) *Frontend {
	return &Frontend{parser: p, opts: opts}
}

// Parse parses a single file without binding it.
func (f *Frontend) Parse(ctx context.Context, path string, content []byte) (*parser.Unit, error) {
	return f.parser.ParseFile(ctx, path, content)
}

// Compile parses every source, declares and binds their symbols, and checks
// that the required symbols exist. A missing symbol or an unparseable file
// yields a *StructuralError carrying the syntax diagnostics collected so far.
func (f *Frontend) Compile(ctx context.Context, sources []Source) (*Compilation, error) {
	c := newCompilation()
	if f.opts.Prelude {
		sources = append([]Source{{Path: PreludePath, Content: preludeSource, Reference: true}}, sources...)
	}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			c.Close()
			return nil, err
		}
		unit, err := f.parser.ParseFile(ctx, src.Path, src.Content)
		if err != nil {
			c.Close()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &StructuralError{
				Err:         errors.AddContext(err, errors.CtxPath, src.Path),
				Diagnostics: c.Diagnostics(),
			}
		}
		unit.Reference = src.Reference
		c.addUnit(unit)
	}

	if missing := f.missingSymbols(c); len(missing) > 0 {
		err := errors.New(errors.CodeStructural, "required symbols missing")
		err = errors.AddContext(err, errors.CtxSymbol, strings.Join(missing, ", "))
		diags := c.Diagnostics()
		c.Close()
		return nil, &StructuralError{Err: err, Diagnostics: diags}
	}

	c.bind()
	slog.Debug("compilation bound", "units", len(c.units), "types", len(c.ordered), "syntax_errors", len(c.diagnostics))
	return c, nil
}

func (f *Frontend) missingSymbols(c *Compilation) []string {
	var missing []string
	for _, name := range f.opts.RequiredTypes {
		if c.LookupType(name, 0) == nil {
			missing = append(missing, name)
		}
	}
	for _, name := range f.opts.RequiredNames {
		if !c.HasTypeNamed(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// StructuralError reports that analysis could not run at all. Diagnostics
// holds what the frontend reported before failing.
type StructuralError struct {
	Err         error
	Diagnostics []diagnostics.Diagnostic
}

func (e *StructuralError) Error() string {
	if len(e.Diagnostics) == 0 {
		return fmt.Sprintf("action analysis failed: %v", e.Err)
	}
	return fmt.Sprintf("action analysis failed: %v (%d frontend diagnostics)", e.Err, len(e.Diagnostics))
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}
