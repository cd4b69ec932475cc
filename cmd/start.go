package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-manager/core/cache"
	"catalog-manager/core/config"
	"catalog-manager/core/database"
	"catalog-manager/core/loader"
	"catalog-manager/core/logger"
	"catalog-manager/core/middleware/rayid"
	"catalog-manager/core/storage"
	"catalog-manager/feature/listing"
	"catalog-manager/feature/listing/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "catalog-manager/docs/swagger"
)

// @title Catalog Manager API
// @version 1.0
// @description Storefront catalog read-model pipeline: cached listings and bulk CSV reconciliation.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-Api-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the catalog manager server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to the catalog store
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := models.AutoMigrate(db); err != nil {
			logg.Fatal("Failed to migrate schema", zap.Error(err))
		}

		// 4. Connect to the listing cache (Optional)
		// Without it the query engine degrades to direct compute and every
		// request recomputes; the service stays up.
		var backend cache.Backend
		if b, err := cache.New(cfg.Cache); err != nil {
			logg.Warn("Cache unavailable, serving in direct-compute mode", zap.Error(err))
		} else {
			backend = b
			defer backend.Close()
			logg.Info("Connected to listing cache")
		}

		// 5. Connect to object storage (Optional)
		// Only import error reports live there; without it imports still run
		// and return their error rows inline.
		var store storage.Client
		if s, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Storage unavailable, error reports disabled", zap.Error(err))
		} else {
			store = s
			ensureBucket(store, cfg.Storage.Bucket, logg)
		}

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
			BodyLimit:             cfg.Server.BodyLimit(),
		})

		// 7. Initialize Feature Loader
		mgr := loader.NewManager()

		listingFeature := listing.NewFeature(db, backend, store, cfg.Storage.Bucket, cfg.Server.ApiKey, logg)
		mgr.Register(listingFeature)

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Swagger Documentation (Public)
		// Write endpoints carry their own API key guard; listing reads are
		// public, so there is no app-wide auth layer here.
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 8. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()

		// Drain pending materializations so a just-finished import is not
		// lost with the process.
		listingFeature.Flush()
	},
}

// ensureBucket creates the report bucket if it does not exist yet.
func ensureBucket(store storage.Client, bucket string, logg *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := store.BucketExists(ctx, bucket)
	if err != nil {
		logg.Warn("Failed to check report bucket", zap.String("bucket", bucket), zap.Error(err))
		return
	}
	if exists {
		return
	}
	if err := store.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		logg.Warn("Failed to create report bucket", zap.String("bucket", bucket), zap.Error(err))
	}
}

func init() {
	RootCmd.AddCommand(startCmd)
}
