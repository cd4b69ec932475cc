package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"catalog-manager/core/storage"
	"catalog-manager/feature/listing/importer"
	"catalog-manager/feature/listing/models"
	"catalog-manager/feature/listing/query"

	"github.com/minio/minio-go/v7"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a product, variant, or report does not exist.
var ErrNotFound = errors.New("not found")

// Scheduler triggers debounced listing re-materializations. Satisfied by
// *materializer.Scheduler.
type Scheduler interface {
	Schedule(productID uint)
}

// Service ties the catalog store, materializer, query engine, and importer
// together behind one API.
type Service struct {
	db        *gorm.DB
	engine    *query.Engine
	importer  *importer.Importer
	scheduler Scheduler
	storage   storage.Client
	bucket    string
}

// NewService creates the listing service.
func NewService(db *gorm.DB, engine *query.Engine, imp *importer.Importer, scheduler Scheduler, client storage.Client, bucket string) *Service {
	return &Service{
		db:        db,
		engine:    engine,
		importer:  imp,
		scheduler: scheduler,
		storage:   client,
		bucket:    bucket,
	}
}

// Query answers a listing read through the cache.
func (s *Service) Query(ctx context.Context, p query.Params) (*query.Page, error) {
	return s.engine.Query(ctx, p)
}

// ImportCatalog reconciles an uploaded catalog CSV.
func (s *Service) ImportCatalog(ctx context.Context, r io.Reader) (*importer.CatalogResult, error) {
	return s.importer.ImportCatalog(ctx, r)
}

// ImportInventory reconciles an uploaded inventory CSV under the given mode.
func (s *Service) ImportInventory(ctx context.Context, r io.Reader, mode importer.Mode) (*importer.InventoryResult, error) {
	return s.importer.ImportInventory(ctx, r, mode)
}

// DeleteProduct removes a product by model code, cascading to its variants
// and their stock records. The scheduled sync observes the missing product
// and retires its listing.
func (s *Service) DeleteProduct(ctx context.Context, modelCode string) error {
	code := models.NormalizeCode(modelCode)

	var product models.Product
	err := s.db.WithContext(ctx).Where("model_code = ?", code).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}

	var variantIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.Variant{}).
		Where("product_id = ?", product.ID).
		Pluck("id", &variantIDs).Error; err != nil {
		return fmt.Errorf("failed to list variants: %w", err)
	}

	if len(variantIDs) > 0 {
		if err := s.db.WithContext(ctx).
			Where("variant_id IN ?", variantIDs).
			Delete(&models.VariantInventory{}).Error; err != nil {
			return fmt.Errorf("failed to delete inventories: %w", err)
		}
		if err := s.db.WithContext(ctx).
			Where("product_id = ?", product.ID).
			Delete(&models.Variant{}).Error; err != nil {
			return fmt.Errorf("failed to delete variants: %w", err)
		}
	}

	if err := s.db.WithContext(ctx).Delete(&product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.scheduler.Schedule(product.ID)
	return nil
}

// DeleteVariant removes one variant by sku code together with its stock
// records, repairs the owner's cached variant list, and schedules the
// owner's re-materialization. The sync also reassigns the default variant
// when the deleted one held that role.
func (s *Service) DeleteVariant(ctx context.Context, skuCode string) error {
	code := models.NormalizeCode(skuCode)

	var variant models.Variant
	err := s.db.WithContext(ctx).Where("sku_code = ?", code).First(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load variant: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Where("variant_id = ?", variant.ID).
		Delete(&models.VariantInventory{}).Error; err != nil {
		return fmt.Errorf("failed to delete inventories: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&variant).Error; err != nil {
		return fmt.Errorf("failed to delete variant: %w", err)
	}

	var remaining []uint
	if err := s.db.WithContext(ctx).Model(&models.Variant{}).
		Where("product_id = ?", variant.ProductID).
		Order("id asc").
		Pluck("id", &remaining).Error; err != nil {
		return fmt.Errorf("failed to list remaining variants: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", variant.ProductID).
		Update("variant_ids", datatypes.NewJSONSlice(remaining)).Error; err != nil {
		return fmt.Errorf("failed to update variant list: %w", err)
	}

	s.scheduler.Schedule(variant.ProductID)
	return nil
}

// GetReport streams a stored import error report.
func (s *Service) GetReport(ctx context.Context, name string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, ErrNotFound
	}
	// Report names are flat uuid.csv files; anything with a path in it is
	// not ours.
	if name == "" || strings.ContainsAny(name, "/\\") {
		return nil, ErrNotFound
	}

	// GetObject defers existence errors until the first read; stat first so
	// a missing report is a 404, not a broken stream.
	if _, err := s.storage.StatObject(ctx, s.bucket, "reports/"+name, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat report: %w", err)
	}

	obj, err := s.storage.GetObject(ctx, s.bucket, "reports/"+name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	return obj, nil
}
