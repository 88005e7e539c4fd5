package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/wellness-backend/internal/app"
	"github.com/yungbote/wellness-backend/internal/data/db"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and indexes in the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadPostgresConfig()
			if err != nil {
				return err
			}
			log, err := logger.New("development")
			if err != nil {
				return err
			}
			defer log.Sync()

			pg, err := db.NewPostgresService(cfg, log)
			if err != nil {
				return err
			}
			defer pg.Close()
			if err := pg.AutoMigrateAll(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
