package materializer

import (
	"context"
	"errors"
	"fmt"

	"catalog-manager/core/cache"
	"catalog-manager/feature/listing/generation"
	"catalog-manager/feature/listing/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Materializer rebuilds listing documents from catalog store state.
type Materializer struct {
	db      *gorm.DB
	backend cache.Backend
	logger  *zap.Logger
}

// New creates a materializer. backend may be nil; generation bumps then
// become no-ops, which is consistent with the query engine running in
// always-miss mode.
func New(db *gorm.DB, backend cache.Backend, logger *zap.Logger) *Materializer {
	return &Materializer{db: db, backend: backend, logger: logger}
}

// Sync recomputes the listing document for one product strictly from current
// store state. It is idempotent and safe to run at any time: the document is
// regenerated whole, never patched. A product that no longer exists or has
// zero active variants loses its listing document.
//
// Sync does not bump the generation counter; that happens once per batch in
// the scheduler.
func (m *Materializer) Sync(ctx context.Context, productID uint) error {
	var product models.Product
	err := m.db.WithContext(ctx).Where("id = ?", productID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m.deleteListing(ctx, productID)
	}
	if err != nil {
		return fmt.Errorf("failed to load product %d: %w", productID, err)
	}

	var variants []models.Variant
	if err := m.db.WithContext(ctx).Where("product_id = ?", productID).Order("id asc").Find(&variants).Error; err != nil {
		return fmt.Errorf("failed to load variants for product %d: %w", productID, err)
	}

	variantIDs := make([]uint, 0, len(variants))
	for _, v := range variants {
		variantIDs = append(variantIDs, v.ID)
	}

	var inventories []models.VariantInventory
	if len(variantIDs) > 0 {
		if err := m.db.WithContext(ctx).Where("variant_id IN ?", variantIDs).Find(&inventories).Error; err != nil {
			return fmt.Errorf("failed to load inventory for product %d: %w", productID, err)
		}
	}

	categories, err := m.loadCategories(ctx, &product)
	if err != nil {
		return err
	}

	listing, defaultID := models.ComputeListing(&product, variants, inventories, categories)
	if listing == nil {
		return m.deleteListing(ctx, productID)
	}

	// Correct the product's default-variant pointer as a side effect when the
	// stored pointer no longer resolves inside the active variant set.
	if product.DefaultVariantID == nil || *product.DefaultVariantID != defaultID {
		if err := m.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", productID).
			Update("default_variant_id", defaultID).Error; err != nil {
			return fmt.Errorf("failed to correct default variant for product %d: %w", productID, err)
		}
	}

	// Replace the whole document keyed by product id.
	if err := m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		UpdateAll: true,
	}).Create(listing).Error; err != nil {
		return fmt.Errorf("failed to upsert listing for product %d: %w", productID, err)
	}

	return nil
}

// RebuildAll re-materializes every product and bumps the generation once.
// Used by the materialize CLI command and after large imports.
func (m *Materializer) RebuildAll(ctx context.Context) (int, error) {
	var ids []uint
	if err := m.db.WithContext(ctx).Model(&models.Product{}).Order("id asc").Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("failed to list product ids: %w", err)
	}

	synced := 0
	for _, id := range ids {
		if err := m.Sync(ctx, id); err != nil {
			// Per-product failures leave a stale listing behind; the next
			// trigger retries. The rebuild keeps going.
			m.logger.Warn("Listing sync failed during rebuild",
				zap.Uint("product_id", id), zap.Error(err))
			continue
		}
		synced++
	}

	if _, err := generation.Bump(ctx, m.backend); err != nil {
		m.logger.Warn("Generation bump failed after rebuild", zap.Error(err))
	}

	return synced, nil
}

// BumpGeneration bumps the cache generation once. Failures are logged and
// swallowed: stale cached pages remain valid data, just older.
func (m *Materializer) BumpGeneration(ctx context.Context) {
	if _, err := generation.Bump(ctx, m.backend); err != nil {
		m.logger.Warn("Generation bump failed", zap.Error(err))
	}
}

func (m *Materializer) deleteListing(ctx context.Context, productID uint) error {
	if err := m.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.Listing{}).Error; err != nil {
		return fmt.Errorf("failed to delete listing for product %d: %w", productID, err)
	}
	return nil
}

func (m *Materializer) loadCategories(ctx context.Context, p *models.Product) (map[uint]models.Category, error) {
	ids := make([]uint, 0, 3)
	for _, ref := range []*uint{p.CategoryID, p.SubcategoryID, p.SubsubcategoryID} {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var cats []models.Category
	if err := m.db.WithContext(ctx).Where("id IN ?", ids).Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories for product %d: %w", p.ID, err)
	}

	out := make(map[uint]models.Category, len(cats))
	for _, c := range cats {
		out[c.ID] = c
	}
	return out, nil
}
