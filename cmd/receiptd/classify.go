package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerloom/receiptd/internal/engine"
)

func classifyCmd() *cobra.Command {
	var minConfidence float64

	cmd := &cobra.Command{
		Use:   "classify <receipt-id>",
		Short: "Classify a single receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := buildPipeline(ctx, false)
			if err != nil {
				return err
			}
			defer p.Close()

			decision, err := p.orchestrator.ClassifyWithOptions(ctx, args[0], engine.Options{
				MinConfidence: minConfidence,
			})
			if err != nil {
				return err
			}

			if decision.NeedsReview {
				fmt.Printf("%s: no confident match, marked for manual review\n", decision.ReceiptID)
				return nil
			}

			note := ""
			if decision.Fallback {
				note = " (rule fallback after LLM failure)"
			}
			fmt.Printf("%s: %s (id %d) confidence %.2f via %s%s\n",
				decision.ReceiptID,
				decision.Category,
				*decision.CategoryID,
				decision.Confidence,
				decision.Source,
				note)
			return nil
		},
	}

	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "override the rule confidence threshold for this run")

	return cmd
}
