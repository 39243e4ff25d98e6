// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the PromptVault server and its
// operator commands. It loads configuration, connects to services, and
// dispatches to the serve, migrate, export and list commands.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"promptvault/internal/config"
	"promptvault/internal/database"
)

var (
	configPath string
	envFile    string
	cfg        *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promptvault",
		Short: "PromptVault - a catalog of AI prompts with spreadsheet export",
		Long: `PromptVault stores AI prompts in SQLite or PostgreSQL, serves them
over a JSON API, and exports new prompts to a spreadsheet webhook.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(listCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and installs the default logger. Logs are
// text in development and JSON otherwise.
func setup() error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, opts)
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// openDatabase connects to the configured engine and applies pending
// migrations.
func openDatabase() (*sqlx.DB, error) {
	driver, err := database.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.PostgresDSN()
	if driver == database.DriverSQLite {
		dsn = database.SQLiteDSN(cfg.DBPath)
	}

	db, err := database.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := database.Migrate(db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}
