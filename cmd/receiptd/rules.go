package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerloom/receiptd/internal/config"
	"github.com/ledgerloom/receiptd/internal/model"
	"github.com/ledgerloom/receiptd/internal/rules"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rules packs",
	}

	cmd.AddCommand(rulesLintCmd())
	cmd.AddCommand(rulesListCmd())

	return cmd
}

func rulesLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint [path]",
		Short: "Load a rules pack and report unusable rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path, err := resolveRulesPath(args)
			if err != nil {
				return err
			}

			pack, err := rules.Load(path)
			if err != nil {
				return err
			}

			fmt.Printf("pack %q: %d usable rules, %d skipped\n", pack.Version, pack.Len(), pack.Skipped)
			if pack.Skipped > 0 {
				fmt.Println("skipped rules were logged above with their reasons")
				return fmt.Errorf("%d rules cannot be used", pack.Skipped)
			}
			return nil
		},
	}
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [path]",
		Short: "Print the compiled rules in evaluation order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path, err := resolveRulesPath(args)
			if err != nil {
				return err
			}

			pack, err := rules.Load(path)
			if err != nil {
				return err
			}

			fmt.Printf("pack %q (%d rules)\n", pack.Version, pack.Len())
			for _, rule := range pack.Rules() {
				kind := "vendor "
				if rule.Source == model.MatchKeyword {
					kind = "keyword"
				}
				fmt.Printf("  %s %-30q -> %s (%.2f)\n", kind, rule.Pattern, rule.Category, rule.Confidence)
			}
			return nil
		},
	}
}

func resolveRulesPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg := config.Load()
	if cfg.RulesPath == "" {
		return "", fmt.Errorf("no rules pack path given and none configured")
	}
	return cfg.RulesPath, nil
}
