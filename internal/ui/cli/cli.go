// Package cli wires the command line to the generation pipeline.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	coreapp "actiongen/internal/core/app"
	"actiongen/internal/core/config"
	"actiongen/internal/shared/observability"
	"actiongen/internal/shared/version"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitDiagnostics = 2
)

type options struct {
	configPath        string
	out               string
	namespace         string
	class             string
	manifest          string
	manifestFormat    string
	reportFormat      string
	reportPath        string
	failOnDiagnostics bool
	force             bool
	verbose           bool
	quiet             bool
	metricsAddr       string
}

// exitError carries a process status out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// Run executes the command line and returns the process exit code. level,
// when set, is adjusted by --verbose and --quiet.
func Run(args []string, level *slog.LevelVar) int {
	return execute(args, os.Stdout, os.Stderr, level)
}

func execute(args []string, stdout, stderr io.Writer, level *slog.LevelVar) int {
	root := newRootCmd(stdout, stderr, level)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitOK
	}
	var exit *exitError
	if stderrors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exit.err)
		}
		return exit.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitFailure
}

func newRootCmd(stdout, stderr io.Writer, level *slog.LevelVar) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "actiongen",
		Short:         "Generate registration code for dialogue commands and functions",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose && opts.quiet {
				return &exitError{code: exitFailure, err: fmt.Errorf("--verbose and --quiet are mutually exclusive")}
			}
			if level != nil {
				switch {
				case opts.verbose:
					level.Set(slog.LevelDebug)
				case opts.quiet:
					level.Set(slog.LevelWarn)
				}
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default ./"+config.DefaultFile+" when present)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "only log warnings and errors")

	root.AddCommand(
		newGenerateCmd(opts),
		newWatchCmd(opts),
		newListCmd(opts),
		newVersionCmd(),
	)
	return root
}

// addOutputFlags registers the flags shared by generate and watch.
func addOutputFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVarP(&opts.out, "out", "o", "", "registration file to write")
	f.StringVar(&opts.namespace, "namespace", "", "namespace of the generated class")
	f.StringVar(&opts.class, "class", "", "name of the generated class")
	f.StringVar(&opts.manifest, "manifest", "", "also write an action manifest to this path")
	f.StringVar(&opts.manifestFormat, "manifest-format", "", "manifest format (json|yaml)")
	f.StringVar(&opts.reportFormat, "report-format", "", "diagnostic report format (text|json|sarif)")
	f.StringVar(&opts.reportPath, "report", "", "write the report to this path instead of stdout")
	f.BoolVar(&opts.failOnDiagnostics, "fail-on-diagnostics", false, "exit with status 2 when diagnostics are reported")
	f.BoolVar(&opts.force, "force", false, "overwrite an output file not generated by this tool")
}

// loadConfig reads the configuration, then applies environment and flag
// overrides in that order.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, err
	}
	config.ApplyEnvOverrides(cfg)
	if err := applyFlags(cmd, opts, cfg); err != nil {
		return nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, stderrors.Join(errs...)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) error {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	abs := func(p string) (string, error) {
		return filepath.Abs(p)
	}

	if changed("out") {
		p, err := abs(opts.out)
		if err != nil {
			return err
		}
		cfg.Output.Path = p
	}
	if changed("namespace") {
		cfg.Output.Namespace = opts.namespace
	}
	if changed("class") {
		cfg.Output.Class = opts.class
	}
	if changed("manifest") {
		p, err := abs(opts.manifest)
		if err != nil {
			return err
		}
		cfg.Manifest.Path = p
	}
	if changed("manifest-format") {
		cfg.Manifest.Format = opts.manifestFormat
	}
	if changed("report-format") {
		cfg.Report.Format = opts.reportFormat
	}
	if changed("report") {
		p, err := abs(opts.reportPath)
		if err != nil {
			return err
		}
		cfg.Report.Path = p
	}
	if changed("fail-on-diagnostics") {
		cfg.Report.FailOnDiagnostics = opts.failOnDiagnostics
	}
	if changed("force") {
		cfg.Output.Force = opts.force
	}
	if changed("metrics-addr") {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	return nil
}

func newApp(cmd *cobra.Command, opts *options) (*coreapp.App, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, &exitError{code: exitFailure, err: err}
	}
	a, err := coreapp.New(cfg)
	if err != nil {
		return nil, &exitError{code: exitFailure, err: err}
	}
	a.ConfigPath = resolvedConfigPath(opts.configPath)
	a.Overrides = func(next *config.Config) {
		if err := applyFlags(cmd, opts, next); err != nil {
			slog.Warn("failed to apply command line overrides", "error", err)
		}
	}
	return a, nil
}

func resolvedConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if _, err := os.Stat(config.DefaultFile); err == nil {
		return config.DefaultFile
	}
	return ""
}

// setupTracing installs the OTLP exporter when an endpoint is configured.
// The returned function flushes pending spans.
func setupTracing(ctx context.Context, cfg *config.Config) func() {
	shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		slog.Warn("tracing disabled", "endpoint", cfg.Observability.OTLPEndpoint, "error", err)
		return func() {}
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
