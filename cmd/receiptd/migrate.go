package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerloom/receiptd/internal/config"
	"github.com/ledgerloom/receiptd/internal/storage"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.Load()

			store, err := storage.NewSQLiteStorage(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if status {
				version, err := store.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("schema version %d (expected %d)\n", version, storage.ExpectedSchemaVersion)
				return nil
			}

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "print the current schema version without migrating")

	return cmd
}
