package main

import (
	"fmt"

	"github.com/dfryer1193/pressroom/shared/db"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		defer database.Close()

		var version int
		if err := database.DB().GetContext(cmd.Context(), &version, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		log.Info().Str("dsnType", string(dbType())).Int("version", version).Int("latest", db.LatestVersion()).Msg("Database is up to date")
		return nil
	},
}

func dbType() db.DatabaseType {
	return db.DetectDatabaseType(cfg.DatabaseURL)
}
