package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dfryer1193/pressroom/internal/config"
	"github.com/dfryer1193/pressroom/shared/db"
	"github.com/dfryer1193/pressroom/shared/db/postgres"
	"github.com/dfryer1193/pressroom/shared/db/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pressroom",
	Short: "Blog server with a single-admin content area",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		setupLogging(cfg.Debug)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(hashSecretCmd)
}

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openDatabase picks the adapter from the DSN and connects, applying migrations
func openDatabase(cfg *config.Config) (db.Database, error) {
	var database db.Database
	switch db.DetectDatabaseType(cfg.DatabaseURL) {
	case db.DatabaseTypePostgreSQL:
		database = postgres.NewPostgresDB(postgres.NewPostgresConfig(cfg.DatabaseURL, cfg.MaxDBConnections))
	default:
		database = sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(cfg.DatabaseURL))
	}

	if err := database.Connect(); err != nil {
		return nil, err
	}

	return database, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
