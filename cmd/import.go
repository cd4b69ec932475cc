package cmd

import (
	"context"
	"fmt"
	"os"

	"catalog-manager/core/cache"
	"catalog-manager/core/config"
	"catalog-manager/core/database"
	"catalog-manager/core/logger"
	"catalog-manager/core/storage"
	"catalog-manager/feature/listing/importer"
	"catalog-manager/feature/listing/materializer"
	"catalog-manager/feature/listing/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var inventoryMode string

// importCmd is the parent command for file-based imports, the CLI twin of
// the upload endpoints.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import catalog or inventory CSV files",
	Long: `Reconcile a local CSV file into the catalog store, exactly like the
corresponding upload endpoint. Rejected rows are reported per line.

Examples:
  # Upsert products and variants
  import catalog ./catalog.csv

  # Overwrite stock quantities
  import inventory ./stock.csv --mode replace

  # Add delivery quantities to stock
  import inventory ./delivery.csv --mode increment`,
}

var importCatalogCmd = &cobra.Command{
	Use:   "catalog <file>",
	Short: "Import a catalog CSV (products and variants)",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportCatalog,
}

var importInventoryCmd = &cobra.Command{
	Use:   "inventory <file>",
	Short: "Import an inventory CSV (stock quantities)",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportInventory,
}

func init() {
	importInventoryCmd.Flags().StringVar(&inventoryMode, "mode", "replace",
		"Reconciliation mode: replace, increment, or merge")

	importCmd.AddCommand(importCatalogCmd)
	importCmd.AddCommand(importInventoryCmd)
	RootCmd.AddCommand(importCmd)
}

// setupImporter wires the import pipeline for CLI use. The returned flush
// runs the scheduled materializations synchronously before the process
// exits.
func setupImporter() (*importer.Importer, *zap.Logger, func(), error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	var backend cache.Backend
	if b, err := cache.New(cfg.Cache); err != nil {
		l.Warn("Cache unavailable, skipping generation bump", zap.Error(err))
	} else {
		backend = b
	}

	var store storage.Client
	if s, err := storage.NewClient(cfg.Storage); err != nil {
		l.Warn("Storage unavailable, error reports disabled", zap.Error(err))
	} else {
		store = s
	}

	mat := materializer.New(db, backend, l)
	sched := materializer.NewScheduler(mat, l, materializer.DefaultWindow)
	imp := importer.New(db, store, cfg.Storage.Bucket, sched, l)

	flush := func() {
		sched.Flush()
		if backend != nil {
			_ = backend.Close()
		}
	}
	return imp, l, flush, nil
}

func runImportCatalog(cmd *cobra.Command, args []string) error {
	imp, l, flush, err := setupImporter()
	if err != nil {
		return err
	}
	defer flush()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	res, err := imp.ImportCatalog(context.Background(), f)
	if err != nil {
		return fmt.Errorf("catalog import failed: %w", err)
	}

	l.Info("Catalog import finished",
		zap.Int("rows", res.RowsProcessed),
		zap.Int("products", res.ProductsWritten),
		zap.Int("variants", res.VariantsWritten),
		zap.Int("errors", len(res.Errors)),
	)
	logRowErrors(l, res.Errors, res.ReportObject)
	return nil
}

func runImportInventory(cmd *cobra.Command, args []string) error {
	mode, err := importer.ParseMode(inventoryMode)
	if err != nil {
		return err
	}

	imp, l, flush, err := setupImporter()
	if err != nil {
		return err
	}
	defer flush()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	res, err := imp.ImportInventory(context.Background(), f, mode)
	if err != nil {
		return fmt.Errorf("inventory import failed: %w", err)
	}

	l.Info("Inventory import finished",
		zap.String("mode", string(mode)),
		zap.Int("rows", res.RowsProcessed),
		zap.Int("created", res.RecordsCreated),
		zap.Int("updated", res.RecordsUpdated),
		zap.Int("errors", len(res.Errors)),
	)
	logRowErrors(l, res.Errors, res.ReportObject)
	return nil
}

func logRowErrors(l *zap.Logger, errs []importer.RowError, report string) {
	const maxShow = 10
	for i, e := range errs {
		if i == maxShow {
			l.Warn("Additional rejected rows not shown", zap.Int("count", len(errs)-maxShow))
			break
		}
		l.Warn("Rejected row", zap.Int("line", e.Line), zap.String("reason", e.Reason))
	}
	if report != "" {
		l.Info("Error report stored", zap.String("object", report))
	}
}
