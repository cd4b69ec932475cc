package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Category levels. Categories form a three-level chain; each level points to
// its parent through ParentID.
const (
	LevelCategory       = "category"
	LevelSubcategory    = "subcategory"
	LevelSubsubcategory = "subsubcategory"
)

// Category is one node of the category directory. Imports resolve-or-create
// entries by title-cased name within a level and parent.
type Category struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:191;uniqueIndex:uniq_category_node,priority:2" json:"name"`
	Level     string `gorm:"size:16;uniqueIndex:uniq_category_node,priority:1" json:"level"`
	ParentID  *uint  `gorm:"uniqueIndex:uniq_category_node,priority:3" json:"parentId,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Warehouse is a stock location, resolvable by name or id during imports.
type Warehouse struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:191;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// City is an optional finer stock location inside a warehouse's region.
type City struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"size:191;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Product is the vendor-model-level entity grouping sellable variants.
// ModelCode is the normalized natural key used for idempotent upserts.
type Product struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	ModelCode        string  `gorm:"size:64;uniqueIndex" json:"modelCode"`
	Title            string  `gorm:"size:255" json:"title"`
	Brand            string  `gorm:"size:128;index" json:"brand"`
	Description      string  `gorm:"type:text" json:"description,omitempty"`
	CategoryID       *uint   `gorm:"index" json:"categoryId,omitempty"`
	SubcategoryID    *uint   `json:"subcategoryId,omitempty"`
	SubsubcategoryID *uint   `json:"subsubcategoryId,omitempty"`
	// LegacyCategory carries free-text category names from data that predates
	// the category directory. Either CategoryID or LegacyCategory is set.
	LegacyCategory   string  `gorm:"size:191" json:"legacyCategory,omitempty"`
	DefaultVariantID *uint   `json:"defaultVariantId,omitempty"`
	VariantIDs       datatypes.JSONSlice[uint] `json:"variantIds"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Variant is a concrete sellable unit owned by exactly one Product.
// SkuCode is the normalized natural key; writes always filter by
// (SkuCode, ProductID) so a variant can never be silently reassigned.
type Variant struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	SkuCode    string  `gorm:"size:64;uniqueIndex" json:"skuCode"`
	ProductID  uint    `gorm:"index" json:"productId"`
	Price      float64 `json:"price"`
	Currency   string  `gorm:"size:8;default:USD" json:"currency"`
	Color      string  `gorm:"size:64" json:"color,omitempty"`
	Type       string  `gorm:"size:64" json:"type,omitempty"`
	Size       string  `gorm:"size:64" json:"size,omitempty"`
	// Attributes is the open attribute bag: arbitrary extra CSV columns become
	// filterable attributes. Values are restricted to scalars at ingest.
	Attributes datatypes.JSONMap `json:"attributes,omitempty"`
	Active     bool    `gorm:"default:true" json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// VariantInventory is a quantity record for one variant at one warehouse,
// optionally one city. A NULL city means warehouse-level stock.
type VariantInventory struct {
	ID          uint  `gorm:"primaryKey" json:"id"`
	VariantID   uint  `gorm:"index:idx_stock_triple,priority:1" json:"variantId"`
	WarehouseID uint  `gorm:"index:idx_stock_triple,priority:2" json:"warehouseId"`
	CityID      *uint `gorm:"index:idx_stock_triple,priority:3" json:"cityId,omitempty"`
	Quantity    int64 `json:"quantity"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// AutoMigrate creates or updates the schema for all catalog entities.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Category{},
		&Warehouse{},
		&City{},
		&Product{},
		&Variant{},
		&VariantInventory{},
		&Listing{},
	)
}

// NormalizeCode normalizes a natural key (model code, sku code): trimmed,
// uppercased. Natural keys compare and store in this form only.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeToken normalizes a filterable token (color, type, size, attribute
// values) the same way natural keys are normalized.
func NormalizeToken(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// TitleCase normalizes a directory name (category, warehouse, city) for
// case-insensitive matching: trimmed, each word capitalized.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
