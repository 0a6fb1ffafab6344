package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/repository/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending metadata store migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap(environment())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pg, err := openMetadataStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := postgres.Migrate(ctx, pg.Pool); err != nil {
		return err
	}
	v, err := postgres.MigrationVersion(ctx, pg.Pool)
	if err != nil {
		return err
	}
	logger.Info("Migrations applied", zap.Int64("version", v))
	cmd.Printf("schema at version %d\n", v)
	return nil
}
