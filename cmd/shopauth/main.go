package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aussiebroadwan/shopauth/internal/auth/app"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shopauth",
	Short: "Authentication and session service for the shop admin application",
	Long: `shopauth signs users in with credentials or Google, issues sessions and
guards every request with CORS, rate limiting, security headers and
route authorization.

Configuration is read from the environment and an optional .env file.

Examples:
  shopauth serve
  shopauth migrate
  shopauth seed`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo admin and user accounts",
	Long: `Create admin@example.com (ADMIN) and user@example.com (USER) unless they
already exist. Migrations are applied first.

Refuses to run when NODE_ENV=production.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
	rootCmd.Version = app.BuildVersion
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run()
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)

	st, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	logger.Info("database migrations applied successfully")
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Production() {
		return fmt.Errorf("refusing to seed demo accounts in production")
	}
	logger := app.NewLogger(cfg)

	st, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	n, err := app.Seed(cmd.Context(), st, logger, app.DemoUsers)
	if err != nil {
		return err
	}
	logger.Info("seed complete", "created", n)
	return nil
}
