package cli

import (
	"fmt"
	"strconv"

	"actiongen/internal/core/ports"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list [path...]",
		Short: "Print discovered actions without writing any file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			report, err := a.Generate(cmd.Context(), ports.GenerateRequest{Paths: args, DryRun: true})
			if err != nil {
				writeStructuralDiagnostics(cmd, a.Config(), a.BaseDir, err)
				return &exitError{code: exitFailure, err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), actionTable(report.Actions, isTerminal(cmd.OutOrStdout())))
			return nil
		},
	}
}

func actionTable(actions []ports.ActionSummary, styled bool) string {
	t := table.New().
		Headers("NAME", "KIND", "ASYNC", "STATIC", "DECLARED", "LOCATION", "VALID")
	if styled {
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	}
	for _, a := range actions {
		t.Row(
			a.Name,
			a.Kind,
			a.AsyncMode,
			strconv.FormatBool(a.IsStatic),
			a.DeclarationKind,
			fmt.Sprintf("%s:%d", a.File, a.Line),
			strconv.FormatBool(a.Emitted),
		)
	}
	return t.Render()
}
