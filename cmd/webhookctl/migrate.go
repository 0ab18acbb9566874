package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := database.NewConnection(&cfg.Database, log)
			if err != nil {
				return err
			}
			defer database.Close(db, log)

			if err := database.Migrate(db, log); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
