package cli

import (
	"bytes"
	stderrors "errors"
	"io"
	"log/slog"

	"actiongen/internal/core/config"
	"actiongen/internal/core/ports"
	"actiongen/internal/engine/semantic"
	"actiongen/internal/shared/util"
	"actiongen/internal/ui/report/formats"

	"github.com/spf13/cobra"
)

func newGenerateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [path...]",
		Short: "Discover actions and write the registration file",
		Long: `Scans C# sources for command and function actions, validates them, and
writes a registration file with one statement per valid action. Paths
default to input.paths from the configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			cfg := a.Config()
			defer setupTracing(cmd.Context(), cfg)()

			report, err := a.Generate(cmd.Context(), ports.GenerateRequest{Paths: args})
			if err != nil {
				writeStructuralDiagnostics(cmd, cfg, a.BaseDir, err)
				return &exitError{code: exitFailure, err: err}
			}
			if err := writeReport(cmd.OutOrStdout(), cfg, a.BaseDir, report); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			return exitForDiagnostics(cfg, report)
		},
	}
	addOutputFlags(cmd, opts)
	return cmd
}

// writeReport renders report to the configured report path, or to w.
func writeReport(w io.Writer, cfg *config.Config, baseDir string, report ports.Report) error {
	styled := cfg.Report.Path == "" && cfg.Report.Format == formats.FormatText && isTerminal(w)
	writer, err := formats.NewReportWriter(cfg.Report.Format, styled, baseDir)
	if err != nil {
		return err
	}
	if cfg.Report.Path == "" {
		return writer.Write(w, report)
	}
	var buf bytes.Buffer
	if err := writer.Write(&buf, report); err != nil {
		return err
	}
	return util.WriteFileWithDirs(cfg.Report.Path, buf.Bytes(), 0o644)
}

// writeStructuralDiagnostics reports the frontend diagnostics carried by a
// structural failure so syntax errors behind it are visible.
func writeStructuralDiagnostics(cmd *cobra.Command, cfg *config.Config, baseDir string, err error) {
	var structural *semantic.StructuralError
	if !stderrors.As(err, &structural) || len(structural.Diagnostics) == 0 {
		return
	}
	writer, werr := formats.NewReportWriter(formats.FormatText, isTerminal(cmd.ErrOrStderr()), baseDir)
	if werr != nil {
		slog.Warn("failed to create diagnostic writer", "error", werr)
		return
	}
	report := ports.Report{Tool: cfg.Output.ToolName, Diagnostics: structural.Diagnostics}
	if werr := writer.Write(cmd.ErrOrStderr(), report); werr != nil {
		slog.Warn("failed to write structural diagnostics", "error", werr)
	}
}

func exitForDiagnostics(cfg *config.Config, report ports.Report) error {
	if cfg.Report.FailOnDiagnostics && len(report.Diagnostics) > 0 {
		return &exitError{code: exitDiagnostics}
	}
	return nil
}
