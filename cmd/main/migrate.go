package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/storage"
	"gitlab.com/timkado/api/clinic-case-service/pkg/logger"
)

const migrateTimeout = 5 * time.Minute

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema and indexes up to date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			repo, err := storage.NewPostgresRepo(cfg.Database.PostgresDSN, false)
			if err != nil {
				return fmt.Errorf("failed to initialize postgres repository: %w", err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
			defer cancel()
			defer func() { _ = repo.Close(ctx) }()

			start := time.Now()
			if err := repo.Migrate(ctx); err != nil {
				return err
			}
			logger.Log.Info("Migration complete", zap.Duration("duration", time.Since(start)))
			return nil
		},
	}
}
