package listing

import (
	"catalog-manager/core/cache"
	"catalog-manager/core/storage"
	"catalog-manager/feature/listing/importer"
	"catalog-manager/feature/listing/materializer"
	"catalog-manager/feature/listing/query"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service   *Service
	handler   *Handler
	scheduler *materializer.Scheduler
	apiKey    string
}

// NewFeature wires the whole listing pipeline: materializer and debounce
// scheduler, cached query engine, CSV importer, service, and HTTP handler.
// backend and client may be nil; the pipeline degrades to direct compute and
// inline-only error reports respectively.
func NewFeature(db *gorm.DB, backend cache.Backend, client storage.Client, bucket, apiKey string, logger *zap.Logger) *Feature {
	mat := materializer.New(db, backend, logger)
	sched := materializer.NewScheduler(mat, logger, materializer.DefaultWindow)
	engine := query.NewEngine(db, backend, logger, query.DefaultTTL)
	imp := importer.New(db, client, bucket, sched, logger)

	svc := NewService(db, engine, imp, sched, client, bucket)
	h := NewHandler(svc, logger)

	return &Feature{service: svc, handler: h, scheduler: sched, apiKey: apiKey}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "listing"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app, f.apiKey)
	return nil
}

// Flush drains pending materializations. Called on shutdown so a just-
// finished import is not lost with the process.
func (f *Feature) Flush() {
	f.scheduler.Flush()
}
