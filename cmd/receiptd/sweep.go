package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ledgerloom/receiptd/internal/sweep"
)

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Classify every receipt still awaiting categorization",
		Long: `Finds all receipts in ocr_done status and runs the classification
pipeline over them with bounded concurrency.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			p, err := buildPipeline(ctx, false)
			if err != nil {
				return err
			}
			defer p.Close()

			sweeper := sweep.New(p.store, p.orchestrator, p.cfg.SweepWorkers, nil)

			var bar *progressbar.ProgressBar
			sweeper.OnProgress = func(done, total int) {
				if bar == nil {
					bar = progressbar.Default(int64(total), "classifying")
				}
				_ = bar.Set(done)
			}

			stats, err := sweeper.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\nSwept %d receipts: %d categorized, %d need review, %d failed\n",
				stats.Total, stats.Categorized, stats.NeedsReview, stats.Failed)
			return nil
		},
	}

	cmd.Flags().Int("workers", sweep.DefaultWorkers, "concurrent classifications")
	_ = viper.BindPFlag("sweep.workers", cmd.Flags().Lookup("workers"))

	return cmd
}
