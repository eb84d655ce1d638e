package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lingxijiao/backend/internal/config"
	"github.com/lingxijiao/backend/internal/database"
	"github.com/lingxijiao/backend/internal/kernel"
	"github.com/lingxijiao/backend/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	envFile string
	cfg     *config.Config
	log     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lingxijiao",
	Short: "lingxijiao maintenance CLI",
	Long: `Maintenance commands for the lingxijiao backend: schema migration,
dummy data, search token backfill, Elasticsearch reindexing and service checks.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		loaded, err := config.Load(files...)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded

		log, err = logger.New(logger.Options{
			Level:      cfg.LogLevel,
			File:       cfg.LogFile,
			Production: cfg.IsProduction(),
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (defaults to .env)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(resetDBCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(backfillTokensCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(testMailCmd)
	rootCmd.AddCommand(checkServicesCmd)
	rootCmd.AddCommand(codesCmd)
}

// openDB connects to the configured database only
func openDB() (*gorm.DB, func(), error) {
	db, err := database.Open(cfg.Database, false, log)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = database.Close(db) }, nil
}

// openKernel connects every configured backend
func openKernel(ctx context.Context) (*kernel.Kernel, func(), error) {
	k, err := kernel.Bootstrap(ctx, cfg, log, kernel.Options{})
	cleanup := func() { _ = k.Shutdown(context.Background()) }
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return k, cleanup, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
