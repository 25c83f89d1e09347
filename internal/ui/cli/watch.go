package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"actiongen/internal/core/ports"
	"actiongen/internal/shared/observability"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Regenerate the registration file whenever sources change",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			cfg := a.Config()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer setupTracing(ctx, cfg)()

			out := cmd.OutOrStdout()
			g, ctx := errgroup.WithContext(ctx)
			if addr := cfg.Observability.MetricsAddr; addr != "" {
				g.Go(func() error {
					return observability.NewServer(addr).Serve(ctx)
				})
			}
			g.Go(func() error {
				return a.Watch(ctx, ports.GenerateRequest{Paths: args}, func(report ports.Report, err error) {
					if err != nil {
						writeStructuralDiagnostics(cmd, a.Config(), a.BaseDir, err)
						return
					}
					if err := writeReport(out, a.Config(), a.BaseDir, report); err != nil {
						slog.Warn("failed to write report", "error", err)
					}
				})
			})
			if err := g.Wait(); err != nil {
				return &exitError{code: exitFailure, err: err}
			}
			return nil
		},
	}
	addOutputFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	return cmd
}
