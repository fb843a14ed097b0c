package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerloom/receiptd/internal/taxonomy"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the expense category taxonomy",
		Run: func(_ *cobra.Command, _ []string) {
			for _, cat := range taxonomy.All() {
				fmt.Printf("%2d  %-32s %s\n", cat.ID, cat.Name, cat.Description)
			}
		},
	}
}
