// cmd/libreschool/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"libreschool/internal/app"
	"libreschool/internal/config"
	"libreschool/internal/store"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "libreschool",
		Short:         "Multi-tenant school library service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := app.NewLogger(cfg.Environment)
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTelemetry, err := app.SetupTelemetry(ctx, cfg.OTLPEndpoint)
			if err != nil {
				return err
			}
			defer shutdownTelemetry(context.Background())

			db, err := store.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator, err := app.NewMigrator(db)
			if err != nil {
				return err
			}
			if err := migrator.Run(ctx); err != nil {
				return err
			}

			server, err := app.NewServer(cfg, logger, store.New(db))
			if err != nil {
				return err
			}

			logger.Info("starting libreschool",
				zap.String("environment", cfg.Environment),
				zap.String("version", version))

			return server.Run(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			db, err := store.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator, err := app.NewMigrator(db)
			if err != nil {
				return err
			}
			if err := migrator.Run(cmd.Context()); err != nil {
				return err
			}

			v, err := migrator.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("migrations applied, schema version %d\n", v)
			return nil
		},
	}
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
