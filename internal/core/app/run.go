package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"time"

	"actiongen/internal/core/config"
	"actiongen/internal/core/errors"
	"actiongen/internal/core/ports"
	"actiongen/internal/engine/actions"
	"actiongen/internal/engine/codegen"
	"actiongen/internal/engine/diagnostics"
	"actiongen/internal/engine/semantic"
	"actiongen/internal/shared/observability"
	"actiongen/internal/shared/util"
	"actiongen/internal/shared/version"
	"actiongen/internal/ui/report/formats"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const outputPerm = 0o644

var (
	_ ports.Compiler = (*semantic.Frontend)(nil)
	_ ports.Frontend = (*semantic.Compilation)(nil)
)

// run holds the state of one pipeline invocation.
type run struct {
	cfg   *config.Config
	req   ports.GenerateRequest
	files []string

	compilation *semantic.Compilation
	actions     []*actions.Action
	diagnostics []diagnostics.Diagnostic
	source      string
}

// Generate discovers, validates and emits every action under req.Paths, or
// under input.paths when none are given. Unless req.DryRun is set, the
// registration file and the optional manifest are written.
func (a *App) Generate(ctx context.Context, req ports.GenerateRequest) (report ports.Report, err error) {
	cfg := a.Config()
	start := time.Now()
	runID := uuid.NewString()
	if len(req.Paths) == 0 {
		req.Paths = cfg.Input.Paths
	}

	ctx, span := observability.Tracer.Start(ctx, "app.Generate", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.StringSlice("paths", req.Paths),
		attribute.Bool("dry_run", req.DryRun),
	))
	defer span.End()

	report = ports.Report{
		RunID:   runID,
		Tool:    cfg.Output.ToolName,
		Version: version.Version,
		Output:  a.displayPath(cfg.Output.Path),
	}
	slog.Info("generation started", "run_id", runID, "paths", req.Paths, "dry_run", req.DryRun)

	r := &run{cfg: cfg, req: req}
	defer func() {
		if r.compilation != nil {
			r.compilation.Close()
		}
		report.Duration = time.Since(start)
		outcome := "ok"
		switch {
		case err != nil:
			outcome = "error"
			if errors.IsCode(err, errors.CodeStructural) {
				outcome = "structural"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("generation failed", "run_id", runID, "error", err, "duration", report.Duration)
		default:
			if len(report.Diagnostics) > 0 {
				outcome = "diagnostics"
			}
			slog.Info("generation finished",
				"run_id", runID,
				"files", report.Files,
				"actions", len(report.Actions),
				"diagnostics", len(report.Diagnostics),
				"written", report.Written,
				"duration", report.Duration,
				"heap_mb", util.GetHeapAllocMB(),
			)
		}
		observability.RunsTotal.WithLabelValues(outcome).Inc()
	}()

	if err := stage(ctx, "discover", func(ctx context.Context) error { return a.discover(ctx, r) }); err != nil {
		return report, err
	}
	report.Files = len(r.files)

	if err := stage(ctx, "compile", func(ctx context.Context) error { return a.compile(ctx, r) }); err != nil {
		return report, err
	}
	if err := stage(ctx, "analyze", func(ctx context.Context) error { return a.analyze(ctx, r) }); err != nil {
		return report, err
	}
	report.Diagnostics = r.diagnostics
	report.Actions = summarize(r.actions)

	if err := stage(ctx, "emit", func(context.Context) error { return a.emit(r) }); err != nil {
		return report, err
	}
	if req.DryRun {
		return report, nil
	}

	if err := stage(ctx, "write", func(context.Context) error {
		written, err := a.writeOutput(r)
		report.Written = written
		if err != nil {
			return err
		}
		return a.writeManifest(r)
	}); err != nil {
		return report, err
	}
	return report, nil
}

func stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.Tracer.Start(ctx, "stage."+name)
	defer span.End()
	start := time.Now()
	err := fn(ctx)
	observability.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (a *App) discover(ctx context.Context, r *run) error {
	skip := []string{r.cfg.Output.Path}
	if r.cfg.Manifest.Path != "" {
		skip = append(skip, r.cfg.Manifest.Path)
	}
	d, err := NewSourceDiscovery(a.parser, r.cfg.Input.ExcludeDirs, r.cfg.Input.ExcludeFiles, skip...)
	if err != nil {
		return err
	}
	files, err := d.Discover(ctx, r.req.Paths)
	if err != nil {
		return err
	}
	r.files = files
	observability.SourceFiles.Set(float64(len(files)))
	slog.Debug("sources discovered", "files", len(files))
	return nil
}

func (a *App) compile(ctx context.Context, r *run) error {
	var sources []semantic.Source
	if len(r.cfg.Frontend.References) > 0 {
		d, err := NewSourceDiscovery(a.parser, r.cfg.Input.ExcludeDirs, nil)
		if err != nil {
			return err
		}
		refs, err := d.Discover(ctx, r.cfg.Frontend.References)
		if err != nil {
			return errors.AddContext(err, errors.CtxOperation, "load_references")
		}
		for _, path := range refs {
			src, err := a.readSource(path, true)
			if err != nil {
				return err
			}
			sources = append(sources, src)
		}
	}
	for _, path := range r.files {
		src, err := a.readSource(path, false)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	start := time.Now()
	c, err := semantic.NewFrontend(a.parser, frontendOptions(r.cfg)).Compile(ctx, sources)
	observability.ParsingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	r.compilation = c
	return nil
}

func (a *App) readSource(path string, reference bool) (semantic.Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return semantic.Source{}, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read source"), errors.CtxPath, path)
	}
	return semantic.Source{Path: a.displayPath(path), Content: content, Reference: reference}, nil
}

func (a *App) analyze(ctx context.Context, r *run) error {
	all, err := actions.NewClassifier(r.compilation, classifierOptions(r.cfg)).Classify(ctx)
	if err != nil {
		return err
	}
	actionDiags := actions.NewValidator(r.compilation, validatorOptions(r.cfg)).Validate(all)

	r.actions = all
	r.diagnostics = append(append([]diagnostics.Diagnostic(nil), r.compilation.Diagnostics()...), actionDiags...)

	counts := map[actions.Kind]int{actions.Command: 0, actions.Function: 0, actions.NotAnAction: 0}
	for _, act := range all {
		counts[act.Kind]++
	}
	for kind, n := range counts {
		observability.ActionsDiscovered.WithLabelValues(kind.String()).Set(float64(n))
	}
	for _, d := range r.diagnostics {
		observability.DiagnosticsTotal.WithLabelValues(d.ID()).Inc()
	}
	return nil
}

func (a *App) emit(r *run) error {
	out, err := codegen.NewRegistrationGenerator(emitterOptions(r.cfg)).Generate(actions.Eligible(r.actions))
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "generate registration file")
	}
	r.source = out
	return nil
}

// writeOutput replaces the registration file. A file not carrying the
// generated-code marker of this tool is left alone unless output.force is set.
// It reports false when the existing file already matches.
func (a *App) writeOutput(r *run) (bool, error) {
	path := r.cfg.Output.Path
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, []byte(r.source)) {
			slog.Debug("registration file unchanged", "path", path)
			return false, nil
		}
		if !r.cfg.Output.Force && !codegen.Owned(existing, r.cfg.Output.ToolName) {
			return false, errors.AddContext(
				errors.New(errors.CodeConflict, "output file exists and was not generated by this tool, use --force to overwrite"),
				errors.CtxPath, path)
		}
	case !os.IsNotExist(err):
		return false, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read output file"), errors.CtxPath, path)
	}

	if err := util.WriteStringWithDirs(path, r.source, outputPerm); err != nil {
		if os.IsPermission(err) {
			return false, errors.AddContext(errors.Wrap(err, errors.CodePermissionDenied, "write output file"), errors.CtxPath, path)
		}
		return false, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write output file"), errors.CtxPath, path)
	}
	slog.Info("registration file written", "path", path, "actions", len(actions.Eligible(r.actions)))
	return true, nil
}

func (a *App) writeManifest(r *run) error {
	path := r.cfg.Manifest.Path
	if path == "" {
		return nil
	}
	data, err := formats.EncodeManifest(formats.BuildManifest(actions.Eligible(r.actions)), r.cfg.Manifest.Format)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode manifest")
	}
	if err := util.WriteFileWithDirs(path, data, outputPerm); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write manifest"), errors.CtxPath, path)
	}
	slog.Info("manifest written", "path", path, "format", r.cfg.Manifest.Format)
	return nil
}

func summarize(all []*actions.Action) []ports.ActionSummary {
	out := make([]ports.ActionSummary, 0, len(all))
	for _, act := range all {
		out = append(out, ports.ActionSummary{
			Name:            act.Name,
			Kind:            act.Kind.String(),
			DeclarationKind: act.DeclarationKind.String(),
			AsyncMode:       act.AsyncMode.String(),
			Method:          qualifiedMethod(act),
			IsStatic:        act.IsStatic,
			File:            act.SourceFile,
			Line:            act.Location.Start.Line,
			Emitted:         act.Eligible(),
		})
	}
	return out
}

func qualifiedMethod(act *actions.Action) string {
	if act.ContainingType == nil {
		return act.MethodName()
	}
	return act.ContainingType.FullName() + "." + act.MethodName()
}
