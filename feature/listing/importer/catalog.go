package importer

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"catalog-manager/core/utils"
	"catalog-manager/feature/listing/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// catalogRow is one validated catalog CSV row.
type catalogRow struct {
	row
	model    string
	sku      string
	price    float64
	currency string
	color    string
	typ      string
	size     string
	active   bool
	attrs    map[string]any
}

// catalogGroup collects the rows of one model code. Metadata may be spread
// across rows: a later row fills any field the earlier rows left empty.
type catalogGroup struct {
	model          string
	title          string
	brand          string
	description    string
	category       string
	subcategory    string
	subsubcategory string
	rows           []catalogRow
}

func parseCatalogRow(r row) (catalogRow, *RowError) {
	cr := catalogRow{row: r, active: true}

	cr.model = models.NormalizeCode(r.cells["model"])
	if cr.model == "" {
		e := r.reject(ReasonMissingModelCode)
		return cr, &e
	}
	cr.sku = models.NormalizeCode(r.cells["sku"])
	if cr.sku == "" {
		e := r.reject(ReasonMissingSkuCode)
		return cr, &e
	}

	priceCell := r.cells["price"]
	if priceCell == "" {
		e := r.reject(ReasonMissingPrice)
		return cr, &e
	}
	cr.price = utils.ToFloat(priceCell)
	if cr.price <= 0 {
		e := r.reject(ReasonInvalidPrice)
		return cr, &e
	}

	cr.currency = strings.ToUpper(r.cells["currency"])
	cr.color = r.cells["color"]
	cr.typ = r.cells["type"]
	cr.size = r.cells["size"]
	if v := r.cells["active"]; v != "" {
		cr.active = utils.ToBool(v)
	}

	if len(r.extra) > 0 {
		cr.attrs = make(map[string]any, len(r.extra))
		for k, v := range r.extra {
			cr.attrs[k] = coerceScalar(v)
		}
	}

	return cr, nil
}

// groupCatalog validates rows and groups them by normalized model code.
// Groups without a category are rejected in full rather than silently
// defaulted: every row of such a group becomes an error row.
func groupCatalog(rows []row) ([]*catalogGroup, []RowError) {
	var (
		ordered []*catalogGroup
		byModel = make(map[string]*catalogGroup)
		errs    []RowError
	)

	for _, r := range rows {
		cr, rejected := parseCatalogRow(r)
		if rejected != nil {
			errs = append(errs, *rejected)
			continue
		}

		g, ok := byModel[cr.model]
		if !ok {
			g = &catalogGroup{model: cr.model}
			byModel[cr.model] = g
			ordered = append(ordered, g)
		}
		g.rows = append(g.rows, cr)

		// Later rows fill metadata the first row was missing.
		fill(&g.title, cr.cells["title"])
		fill(&g.brand, cr.cells["brand"])
		fill(&g.description, cr.cells["description"])
		fill(&g.category, cr.cells["category"])
		fill(&g.subcategory, cr.cells["subcategory"])
		fill(&g.subsubcategory, cr.cells["subsubcategory"])
	}

	kept := ordered[:0]
	for _, g := range ordered {
		if g.category == "" {
			for _, cr := range g.rows {
				errs = append(errs, cr.reject(ReasonMissingCategory))
			}
			continue
		}
		kept = append(kept, g)
	}

	return kept, errs
}

func fill(dst *string, val string) {
	if *dst == "" && val != "" {
		*dst = val
	}
}

// ImportCatalog stream-parses a catalog CSV and idempotently upserts its
// products and variants. Row failures never abort the batch; re-running the
// same file produces no net new rows. Every written product gets a listing
// sync scheduled.
func (i *Importer) ImportCatalog(ctx context.Context, r io.Reader) (*CatalogResult, error) {
	rows, headers, err := readRows(r, catalogAliases)
	if err != nil {
		return nil, err
	}

	groups, errs := groupCatalog(rows)
	res := &CatalogResult{RowsProcessed: len(rows), Errors: errs}

	for _, g := range groups {
		productWritten, variantsWritten, rowErrs := i.importGroup(ctx, g)
		res.Errors = append(res.Errors, rowErrs...)
		if productWritten {
			res.ProductsWritten++
			res.VariantsWritten += variantsWritten
		}
	}

	res.ReportObject = i.uploadReport(ctx, headers, res.Errors)
	return res, nil
}

// importGroup writes one model-code group: category chain, product upsert,
// variant bulk upsert, cached variant list, default variant. Infrastructure
// failures reject the whole group's rows but never the batch.
func (i *Importer) importGroup(ctx context.Context, g *catalogGroup) (bool, int, []RowError) {
	catID, subID, subsubID, reject, err := i.resolveCategoryChain(ctx, g)
	if err != nil {
		i.logger.Warn("Category resolution failed",
			zap.String("model_code", g.model), zap.Error(err))
		return false, 0, rejectAll(g.rows, "failed to resolve category")
	}
	if reject != "" {
		return false, 0, rejectAll(g.rows, reject)
	}

	product, err := i.upsertProduct(ctx, g, catID, subID, subsubID)
	if err != nil {
		i.logger.Warn("Product upsert failed",
			zap.String("model_code", g.model), zap.Error(err))
		return false, 0, rejectAll(g.rows, "failed to write product")
	}

	variantsWritten, rowErrs, err := i.upsertVariants(ctx, g, product)
	if err != nil {
		i.logger.Warn("Variant upsert failed",
			zap.String("model_code", g.model), zap.Error(err))
		return false, 0, append(rowErrs, rejectAll(g.rows, "failed to write variants")...)
	}

	i.scheduler.Schedule(product.ID)
	return true, variantsWritten, rowErrs
}

func rejectAll(rows []catalogRow, reason string) []RowError {
	errs := make([]RowError, 0, len(rows))
	for _, cr := range rows {
		errs = append(errs, cr.reject(reason))
	}
	return errs
}

// resolveCategoryChain resolves or creates the group's category chain. The
// top-level category may be a numeric reference id, which must resolve to an
// existing entry; names are matched title-cased and created when absent.
func (i *Importer) resolveCategoryChain(ctx context.Context, g *catalogGroup) (cat, sub, subsub *uint, reject string, err error) {
	if id, numeric := asID(g.category); numeric {
		var c models.Category
		err = i.db.WithContext(ctx).
			First(&c, "id = ? AND level = ?", id, models.LevelCategory).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ReasonUnknownCategory, nil
		}
		if err != nil {
			return nil, nil, nil, "", err
		}
		cat = &c.ID
	} else {
		cat, err = i.resolveCategoryNode(ctx, models.LevelCategory, g.category, nil)
		if err != nil {
			return nil, nil, nil, "", err
		}
	}

	if g.subcategory != "" {
		sub, err = i.resolveCategoryNode(ctx, models.LevelSubcategory, g.subcategory, cat)
		if err != nil {
			return nil, nil, nil, "", err
		}
	}
	if sub != nil && g.subsubcategory != "" {
		subsub, err = i.resolveCategoryNode(ctx, models.LevelSubsubcategory, g.subsubcategory, sub)
		if err != nil {
			return nil, nil, nil, "", err
		}
	}

	return cat, sub, subsub, "", nil
}

func (i *Importer) resolveCategoryNode(ctx context.Context, level, name string, parent *uint) (*uint, error) {
	node := models.Category{Level: level, Name: models.TitleCase(name), ParentID: parent}

	q := i.db.WithContext(ctx).Where("level = ? AND name = ?", node.Level, node.Name)
	if parent != nil {
		q = q.Where("parent_id = ?", *parent)
	} else {
		q = q.Where("parent_id IS NULL")
	}
	if err := q.FirstOrCreate(&node).Error; err != nil {
		return nil, err
	}
	return &node.ID, nil
}

func (i *Importer) upsertProduct(ctx context.Context, g *catalogGroup, catID, subID, subsubID *uint) (*models.Product, error) {
	var product models.Product
	err := i.db.WithContext(ctx).Where("model_code = ?", g.model).First(&product).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		product = models.Product{
			ModelCode:        g.model,
			Title:            g.title,
			Brand:            g.brand,
			Description:      g.description,
			CategoryID:       catID,
			SubcategoryID:    subID,
			SubsubcategoryID: subsubID,
		}
		if err := i.db.WithContext(ctx).Create(&product).Error; err != nil {
			return nil, err
		}
		return &product, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"category_id": catID}
	if g.title != "" {
		updates["title"] = g.title
	}
	if g.brand != "" {
		updates["brand"] = g.brand
	}
	if g.description != "" {
		updates["description"] = g.description
	}
	if subID != nil {
		updates["subcategory_id"] = subID
	}
	if subsubID != nil {
		updates["subsubcategory_id"] = subsubID
	}
	if err := i.db.WithContext(ctx).Model(&product).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// upsertVariants bulk-writes the group's variants. A sku already owned by a
// different product is rejected per-row rather than reassigned. The write is
// an unordered upsert keyed by sku code that deliberately never touches
// product_id on conflict.
func (i *Importer) upsertVariants(ctx context.Context, g *catalogGroup, product *models.Product) (int, []RowError, error) {
	skus := make([]string, 0, len(g.rows))
	for _, cr := range g.rows {
		skus = append(skus, cr.sku)
	}

	var existing []models.Variant
	if err := i.db.WithContext(ctx).
		Select("id", "sku_code", "product_id").
		Where("sku_code IN ?", skus).
		Find(&existing).Error; err != nil {
		return 0, nil, err
	}
	owner := make(map[string]uint, len(existing))
	for _, v := range existing {
		owner[v.SkuCode] = v.ProductID
	}

	var (
		upserts  []models.Variant
		rowErrs  []RowError
		firstSku string
	)
	for _, cr := range g.rows {
		if pid, ok := owner[cr.sku]; ok && pid != product.ID {
			rowErrs = append(rowErrs, cr.reject(ReasonSkuConflict))
			continue
		}
		if firstSku == "" {
			firstSku = cr.sku
		}

		currency := cr.currency
		if currency == "" {
			currency = "USD"
		}
		v := models.Variant{
			SkuCode:   cr.sku,
			ProductID: product.ID,
			Price:     cr.price,
			Currency:  currency,
			Color:     cr.color,
			Type:      cr.typ,
			Size:      cr.size,
			Active:    cr.active,
		}
		if len(cr.attrs) > 0 {
			v.Attributes = datatypes.JSONMap(cr.attrs)
		}
		upserts = append(upserts, v)
	}

	if len(upserts) > 0 {
		err := i.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sku_code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"price", "currency", "color", "type", "size", "attributes", "active",
			}),
		}).CreateInBatches(&upserts, batchSize).Error
		if err != nil {
			return 0, rowErrs, err
		}
	}

	if err := i.refreshVariantList(ctx, product, firstSku); err != nil {
		return 0, rowErrs, err
	}

	return len(upserts), rowErrs, nil
}

// refreshVariantList rewrites the product's cached variant id list and
// assigns a default variant only if none exists yet.
func (i *Importer) refreshVariantList(ctx context.Context, product *models.Product, firstSku string) error {
	var ids []uint
	if err := i.db.WithContext(ctx).Model(&models.Variant{}).
		Where("product_id = ?", product.ID).
		Order("id asc").
		Pluck("id", &ids).Error; err != nil {
		return err
	}

	updates := map[string]any{"variant_ids": datatypes.NewJSONSlice(ids)}

	if product.DefaultVariantID == nil && firstSku != "" {
		var def models.Variant
		err := i.db.WithContext(ctx).
			Select("id").
			Where("sku_code = ? AND product_id = ?", firstSku, product.ID).
			First(&def).Error
		if err == nil {
			updates["default_variant_id"] = def.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	return i.db.WithContext(ctx).Model(product).Updates(updates).Error
}

func asID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
