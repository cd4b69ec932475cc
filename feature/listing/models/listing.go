package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Listing is the denormalized, query-optimized read projection of a Product.
// One document per product, entirely regenerated on every materialization
// pass and deleted outright when the product has no active variants.
type Listing struct {
	ID                 uint    `gorm:"primaryKey" json:"-"`
	ProductID          uint    `gorm:"uniqueIndex" json:"productId"`
	ModelCode          string  `gorm:"size:64;index" json:"modelCode"`
	Title              string  `gorm:"size:255" json:"title"`
	Brand              string  `gorm:"size:128;index" json:"brand"`
	CategoryID         *uint   `gorm:"index" json:"categoryId,omitempty"`
	CategoryName       string  `gorm:"size:191" json:"categoryName,omitempty"`
	SubcategoryID      *uint   `json:"subcategoryId,omitempty"`
	SubcategoryName    string  `gorm:"size:191" json:"subcategoryName,omitempty"`
	SubsubcategoryID   *uint   `json:"subsubcategoryId,omitempty"`
	SubsubcategoryName string  `gorm:"size:191" json:"subsubcategoryName,omitempty"`
	MinPrice           float64 `gorm:"index" json:"minPrice"`
	MaxPrice           float64 `json:"maxPrice"`
	TotalInventory     int64   `gorm:"index" json:"totalInventory"`
	VariantCount       int     `json:"variantCount"`
	DefaultSku         string  `gorm:"size:64" json:"defaultSku"`
	DefaultPrice       float64 `json:"defaultPrice"`
	DefaultColor       string  `gorm:"size:64" json:"defaultColor,omitempty"`
	DefaultType        string  `gorm:"size:64" json:"defaultType,omitempty"`
	DefaultSize        string  `gorm:"size:64" json:"defaultSize,omitempty"`
	DefaultAttributes  datatypes.JSONMap `json:"defaultAttributes,omitempty"`
	ColorKeys          datatypes.JSONSlice[string] `json:"colorKeys"`
	TypeKeys           datatypes.JSONSlice[string] `json:"typeKeys"`
	SizeKeys           datatypes.JSONSlice[string] `json:"sizeKeys"`
	SearchBlob         string    `gorm:"type:text" json:"-"`
	ProductCreatedAt   time.Time `gorm:"index" json:"productCreatedAt"`
	ProductUpdatedAt   time.Time `gorm:"index" json:"productUpdatedAt"`
	CreatedAt          time.Time `json:"-"`
	UpdatedAt          time.Time `json:"-"`
}

// ComputeListing rebuilds the listing projection for a product strictly from
// current catalog state. Inactive variants are excluded from every aggregate:
// price range, inventory sum, key sets, variant count, and default-variant
// resolution alike.
//
// It returns the listing and the resolved default variant id. A nil listing
// means the product has no active variants and any stored listing document
// must be deleted. If the returned default id differs from the product's
// pointer, the caller is expected to correct the product as a side effect.
func ComputeListing(p *Product, variants []Variant, inventories []VariantInventory, categories map[uint]Category) (*Listing, uint) {
	active := make([]Variant, 0, len(variants))
	for _, v := range variants {
		if v.Active {
			active = append(active, v)
		}
	}
	if len(active) == 0 {
		return nil, 0
	}

	// Earliest variant first, so the default fallback is deterministic.
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	activeIDs := make(map[uint]struct{}, len(active))
	for _, v := range active {
		activeIDs[v.ID] = struct{}{}
	}

	var totalInventory int64
	for _, inv := range inventories {
		if _, ok := activeIDs[inv.VariantID]; ok {
			totalInventory += inv.Quantity
		}
	}

	// Resolve the default variant: the product's pointer if it still belongs
	// to the active set, otherwise the earliest remaining variant.
	def := active[0]
	if p.DefaultVariantID != nil {
		if _, ok := activeIDs[*p.DefaultVariantID]; ok {
			for _, v := range active {
				if v.ID == *p.DefaultVariantID {
					def = v
					break
				}
			}
		}
	}

	minPrice, maxPrice := active[0].Price, active[0].Price
	colorSet := map[string]struct{}{}
	typeSet := map[string]struct{}{}
	sizeSet := map[string]struct{}{}
	blobParts := []string{p.Title, p.Brand, p.ModelCode}

	for _, v := range active {
		if v.Price < minPrice {
			minPrice = v.Price
		}
		if v.Price > maxPrice {
			maxPrice = v.Price
		}
		addKey(colorSet, v.Color)
		addKey(typeSet, v.Type)
		addKey(sizeSet, v.Size)
		blobParts = append(blobParts, v.SkuCode, v.Color, v.Type, v.Size)
		for _, av := range v.Attributes {
			blobParts = append(blobParts, fmt.Sprintf("%v", av))
		}
	}

	l := &Listing{
		ProductID:         p.ID,
		ModelCode:         p.ModelCode,
		Title:             p.Title,
		Brand:             p.Brand,
		CategoryID:        p.CategoryID,
		SubcategoryID:     p.SubcategoryID,
		SubsubcategoryID:  p.SubsubcategoryID,
		MinPrice:          minPrice,
		MaxPrice:          maxPrice,
		TotalInventory:    totalInventory,
		VariantCount:      len(active),
		DefaultSku:        def.SkuCode,
		DefaultPrice:      def.Price,
		DefaultColor:      def.Color,
		DefaultType:       def.Type,
		DefaultSize:       def.Size,
		DefaultAttributes: def.Attributes,
		ColorKeys:         sortedKeys(colorSet),
		TypeKeys:          sortedKeys(typeSet),
		SizeKeys:          sortedKeys(sizeSet),
		SearchBlob:        buildBlob(blobParts),
		ProductCreatedAt:  p.CreatedAt,
		ProductUpdatedAt:  p.UpdatedAt,
	}

	// Category snapshots: resolved names when the product carries references,
	// the legacy free-text name otherwise.
	if p.CategoryID != nil {
		if c, ok := categories[*p.CategoryID]; ok {
			l.CategoryName = c.Name
		}
	} else if p.LegacyCategory != "" {
		l.CategoryName = p.LegacyCategory
	}
	if p.SubcategoryID != nil {
		if c, ok := categories[*p.SubcategoryID]; ok {
			l.SubcategoryName = c.Name
		}
	}
	if p.SubsubcategoryID != nil {
		if c, ok := categories[*p.SubsubcategoryID]; ok {
			l.SubsubcategoryName = c.Name
		}
	}

	return l, def.ID
}

func addKey(set map[string]struct{}, raw string) {
	if tok := NormalizeToken(raw); tok != "" {
		set[tok] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) datatypes.JSONSlice[string] {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return datatypes.NewJSONSlice(keys)
}

func buildBlob(parts []string) string {
	out := make([]string, 0, len(parts))
	seen := map[string]struct{}{}
	for _, part := range parts {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, " ")
}
