package cmd

import (
	"context"
	"fmt"

	"catalog-manager/core/cache"
	"catalog-manager/core/config"
	"catalog-manager/core/database"
	"catalog-manager/core/logger"
	"catalog-manager/feature/listing/materializer"
	"catalog-manager/feature/listing/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// materializeCmd rebuilds the whole listing collection from the source
// entities. Useful after schema changes, manual data surgery, or when
// standing up a fresh read model.
var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Rebuild all listing projections from the catalog store",
	Long: `Recomputes the denormalized listing row for every product and bumps the
cache generation once at the end, invalidating all cached query results.`,
	RunE: runMaterialize,
}

func init() {
	RootCmd.AddCommand(materializeCmd)
}

func runMaterialize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	var backend cache.Backend
	if b, err := cache.New(cfg.Cache); err != nil {
		l.Warn("Cache unavailable, rebuilding without generation bump", zap.Error(err))
	} else {
		backend = b
		defer backend.Close()
	}

	l.Info("Rebuilding listing projections...")

	mat := materializer.New(db, backend, l)
	count, err := mat.RebuildAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to rebuild listings: %w", err)
	}

	l.Info("Listing rebuild finished", zap.Int("products", count))
	return nil
}
