package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"facility-route-service/internal/adapters/repositories"
	"facility-route-service/internal/config"
	"facility-route-service/internal/platform/db"
	"facility-route-service/internal/platform/obs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var purgeOlderThan string

var rootCmd = &cobra.Command{
	Use:   "dbtool",
	Short: "Manage the Postgres route cache",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the route cache schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, sqlDB *sql.DB) error {
			log.Info().Msg("initializing database schema")
			if err := repositories.InitSchema(ctx, sqlDB); err != nil {
				return fmt.Errorf("schema initialization failed: %w", err)
			}
			log.Info().Msg("schema ready")
			return nil
		})
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached routes older than a Postgres interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, sqlDB *sql.DB) error {
			n, err := repositories.PurgeRouteCache(ctx, sqlDB, purgeOlderThan)
			if err != nil {
				return err
			}
			log.Info().Int64("rows", n).Str("older_than", purgeOlderThan).Msg("route cache purged")
			return nil
		})
	},
}

func init() {
	purgeCmd.Flags().StringVar(&purgeOlderThan, "older-than", "24 hours", "Postgres interval, e.g. \"7 days\"")
	rootCmd.AddCommand(initCmd, purgeCmd)
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found (using environment variables)")
	}
	obs.InitLogger(config.Get("LOG_LEVEL", "info"), "text")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("dbtool failed")
		os.Exit(1)
	}
}

func withDB(ctx context.Context, fn func(context.Context, *sql.DB) error) error {
	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return fn(ctx, sqlDB)
}
