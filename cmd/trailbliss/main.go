package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trailbliss/trailbliss-api/internal/migrations"
	"github.com/trailbliss/trailbliss-api/pkg/config"
	"github.com/trailbliss/trailbliss-api/pkg/database"
	"github.com/trailbliss/trailbliss-api/pkg/logger"
)

const appName = "trailbliss"

// Set via -ldflags at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Trail Bliss tourism booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})

	var status bool
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), status)
		},
	}
	migrateCmd.Flags().BoolVar(&status, "status", false, "Print migration status instead of applying")
	cmd.AddCommand(migrateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		return nil, err
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func runMigrate(ctx context.Context, status bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to create database pool", "error", err)
		return err
	}
	defer pool.Close()

	if status {
		return migrations.Status(pool)
	}
	if err := migrations.Run(pool); err != nil {
		logger.Error("Migration failed", "error", err)
		return err
	}
	logger.Info("Migrations applied")
	return nil
}
