package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerloom/receiptd/internal/server"
	"github.com/ledgerloom/receiptd/internal/sweep"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the categorization HTTP service",
		Long: `Starts the HTTP server exposing POST /categorize. With --cron, also runs
the background sweeper that classifies receipts stuck in ocr_done.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			p, err := buildPipeline(ctx, true)
			if err != nil {
				return err
			}
			defer p.Close()

			srv := server.New(p.cfg.ServerAddr, p.orchestrator, slog.Default())

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Run(ctx)
			})

			if schedule := p.cfg.SweepSchedule; schedule != "" {
				sweeper := sweep.New(p.store, p.orchestrator, p.cfg.SweepWorkers, slog.Default())
				g.Go(func() error {
					return sweeper.Schedule(ctx, schedule)
				})
			}

			if err := g.Wait(); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().String("cron", "", "cron schedule for the background sweep (e.g. \"*/15 * * * *\")")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("sweep.schedule", cmd.Flags().Lookup("cron"))

	return cmd
}
