package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"catalog-manager/feature/listing/models"

	"go.uber.org/zap"
)

// Mode selects how an inventory file reconciles against stored quantities.
type Mode string

const (
	// ModeReplace overwrites stored quantities with the file values.
	ModeReplace Mode = "replace"
	// ModeIncrement adds file values to stored quantities.
	ModeIncrement Mode = "increment"
	// ModeMerge behaves like increment for existing records; the distinction
	// from increment is only in how duplicate file rows pre-merge.
	ModeMerge Mode = "merge"
)

// ParseMode validates a mode string from the API.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReplace, ModeIncrement, ModeMerge:
		return Mode(s), nil
	case "":
		return ModeReplace, nil
	default:
		return "", fmt.Errorf("unknown inventory mode %q", s)
	}
}

// inventoryRow is one validated inventory CSV row.
type inventoryRow struct {
	row
	sku       string
	warehouse string
	city      string
	quantity  int64
}

// triple identifies one stock record. cityID 0 means warehouse-level stock.
type triple struct {
	variantID   uint
	warehouseID uint
	cityID      uint
}

func parseInventoryRow(r row) (inventoryRow, *RowError) {
	ir := inventoryRow{row: r}

	ir.sku = models.NormalizeCode(r.cells["sku"])
	if ir.sku == "" {
		e := r.reject(ReasonMissingSkuCode)
		return ir, &e
	}
	ir.warehouse = r.cells["warehouse"]
	if ir.warehouse == "" {
		e := r.reject(ReasonMissingWarehouse)
		return ir, &e
	}

	qty := r.cells["quantity"]
	if qty == "" {
		e := r.reject(ReasonMissingQuantity)
		return ir, &e
	}
	n, err := strconv.ParseInt(qty, 10, 64)
	if err != nil {
		e := r.reject(ReasonInvalidQuantity)
		return ir, &e
	}
	ir.quantity = n
	ir.city = r.cells["city"]

	return ir, nil
}

// mergeTriples pre-merges duplicate rows resolving to the same triple inside
// one file: under increment and merge their quantities sum, under replace
// the last row wins. Returns the merged quantities in first-seen order.
func mergeTriples(rows []inventoryRow, resolve func(inventoryRow) (triple, bool), mode Mode) ([]triple, map[triple]int64) {
	var order []triple
	merged := make(map[triple]int64)

	for _, ir := range rows {
		t, ok := resolve(ir)
		if !ok {
			continue
		}
		if _, seen := merged[t]; !seen {
			order = append(order, t)
		}
		if mode == ModeReplace {
			merged[t] = ir.quantity
		} else {
			merged[t] += ir.quantity
		}
	}

	return order, merged
}

// ImportInventory reconciles an inventory CSV against stored stock records.
// Unresolved variants and warehouses fail their rows; an unresolved city
// degrades the row to warehouse-level stock. Existing records are replaced
// or incremented per mode; absent records are created with the file value
// regardless of mode. Stored quantities never go below zero: replace mode
// rejects negative file values outright, increment and merge accept them as
// adjustments and the reconciled result is floored at zero. Work proceeds in
// fixed-size batches so memory stays flat for arbitrarily large files.
func (i *Importer) ImportInventory(ctx context.Context, r io.Reader, mode Mode) (*InventoryResult, error) {
	rows, headers, err := readRows(r, inventoryAliases)
	if err != nil {
		return nil, err
	}

	res := &InventoryResult{RowsProcessed: len(rows)}

	var valid []inventoryRow
	for _, rw := range rows {
		ir, rejected := parseInventoryRow(rw)
		if rejected != nil {
			res.Errors = append(res.Errors, *rejected)
			continue
		}
		if mode == ModeReplace && ir.quantity < 0 {
			res.Errors = append(res.Errors, ir.reject(ReasonNegativeQuantity))
			continue
		}
		valid = append(valid, ir)
	}

	variants, err := i.loadVariants(ctx, valid)
	if err != nil {
		return nil, err
	}
	warehouses, err := i.loadWarehouses(ctx, valid)
	if err != nil {
		return nil, err
	}
	cities, err := i.loadCities(ctx, valid)
	if err != nil {
		return nil, err
	}

	products := make(map[uint]struct{})
	var resolved []inventoryRow
	for _, ir := range valid {
		v, ok := variants[ir.sku]
		if !ok {
			res.Errors = append(res.Errors, ir.reject(ReasonUnknownSku))
			continue
		}
		if _, ok := warehouses[warehouseKey(ir.warehouse)]; !ok {
			res.Errors = append(res.Errors, ir.reject(ReasonUnknownWarehouse))
			continue
		}
		products[v.ProductID] = struct{}{}
		resolved = append(resolved, ir)
	}

	order, merged := mergeTriples(resolved, func(ir inventoryRow) (triple, bool) {
		v := variants[ir.sku]
		w := warehouses[warehouseKey(ir.warehouse)]
		t := triple{variantID: v.ID, warehouseID: w}
		if ir.city != "" {
			// Unresolved city degrades to warehouse-level stock.
			if cid, ok := cities[models.TitleCase(ir.city)]; ok {
				t.cityID = cid
			}
		}
		return t, true
	}, mode)

	for start := 0; start < len(order); start += batchSize {
		end := start + batchSize
		if end > len(order) {
			end = len(order)
		}
		created, updated, err := i.reconcileBatch(ctx, order[start:end], merged, mode)
		if err != nil {
			i.logger.Warn("Inventory batch failed", zap.Error(err))
			continue
		}
		res.RecordsCreated += created
		res.RecordsUpdated += updated
	}

	for pid := range products {
		i.scheduler.Schedule(pid)
	}

	res.ReportObject = i.uploadReport(ctx, headers, res.Errors)
	return res, nil
}

// reconcileBatch applies one batch of merged triples: existing records are
// overwritten (replace) or added to (increment, merge), absent records are
// created with the file value.
func (i *Importer) reconcileBatch(ctx context.Context, batch []triple, merged map[triple]int64, mode Mode) (int, int, error) {
	variantIDs := make([]uint, 0, len(batch))
	warehouseIDs := make([]uint, 0, len(batch))
	for _, t := range batch {
		variantIDs = append(variantIDs, t.variantID)
		warehouseIDs = append(warehouseIDs, t.warehouseID)
	}

	var existing []models.VariantInventory
	if err := i.db.WithContext(ctx).
		Where("variant_id IN ? AND warehouse_id IN ?", variantIDs, warehouseIDs).
		Find(&existing).Error; err != nil {
		return 0, 0, err
	}
	stored := make(map[triple]*models.VariantInventory, len(existing))
	for idx := range existing {
		rec := &existing[idx]
		t := triple{variantID: rec.VariantID, warehouseID: rec.WarehouseID}
		if rec.CityID != nil {
			t.cityID = *rec.CityID
		}
		stored[t] = rec
	}

	var (
		creates          []models.VariantInventory
		created, updated int
	)
	for _, t := range batch {
		qty := merged[t]

		rec, ok := stored[t]
		if !ok {
			// An adjustment against nothing cannot leave negative stock.
			if qty < 0 {
				qty = 0
			}
			inv := models.VariantInventory{
				VariantID:   t.variantID,
				WarehouseID: t.warehouseID,
				Quantity:    qty,
			}
			if t.cityID != 0 {
				cid := t.cityID
				inv.CityID = &cid
			}
			creates = append(creates, inv)
			continue
		}

		next := qty
		if mode != ModeReplace {
			next = rec.Quantity + qty
		}
		if next < 0 {
			next = 0
		}
		if err := i.db.WithContext(ctx).Model(rec).Update("quantity", next).Error; err != nil {
			return created, updated, err
		}
		updated++
	}

	if len(creates) > 0 {
		if err := i.db.WithContext(ctx).Create(&creates).Error; err != nil {
			return created, updated, err
		}
		created += len(creates)
	}

	return created, updated, nil
}

func (i *Importer) loadVariants(ctx context.Context, rows []inventoryRow) (map[string]models.Variant, error) {
	skus := make([]string, 0, len(rows))
	for _, ir := range rows {
		skus = append(skus, ir.sku)
	}
	out := make(map[string]models.Variant)
	if len(skus) == 0 {
		return out, nil
	}

	var variants []models.Variant
	if err := i.db.WithContext(ctx).
		Select("id", "sku_code", "product_id").
		Where("sku_code IN ?", skus).
		Find(&variants).Error; err != nil {
		return nil, err
	}
	for _, v := range variants {
		out[v.SkuCode] = v
	}
	return out, nil
}

// warehouseKey normalizes a warehouse reference for map lookup: numeric ids
// pass through, names are title-cased.
func warehouseKey(ref string) string {
	if id, numeric := asID(ref); numeric {
		return strconv.FormatUint(uint64(id), 10)
	}
	return models.TitleCase(ref)
}

// loadWarehouses resolves the file's warehouse references, by id or by
// title-cased name, into one lookup map keyed by warehouseKey.
func (i *Importer) loadWarehouses(ctx context.Context, rows []inventoryRow) (map[string]uint, error) {
	var ids []uint
	var names []string
	seen := make(map[string]struct{})
	for _, ir := range rows {
		key := warehouseKey(ir.warehouse)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if id, numeric := asID(ir.warehouse); numeric {
			ids = append(ids, id)
		} else {
			names = append(names, key)
		}
	}

	out := make(map[string]uint)
	if len(ids) > 0 {
		var byID []models.Warehouse
		if err := i.db.WithContext(ctx).Where("id IN ?", ids).Find(&byID).Error; err != nil {
			return nil, err
		}
		for _, w := range byID {
			out[strconv.FormatUint(uint64(w.ID), 10)] = w.ID
		}
	}
	if len(names) > 0 {
		var byName []models.Warehouse
		if err := i.db.WithContext(ctx).Where("name IN ?", names).Find(&byName).Error; err != nil {
			return nil, err
		}
		// The SQL name match is collation-insensitive; key by the same
		// normalized form the lookups use so stored casing cannot matter.
		for _, w := range byName {
			out[models.TitleCase(w.Name)] = w.ID
		}
	}
	return out, nil
}

func (i *Importer) loadCities(ctx context.Context, rows []inventoryRow) (map[string]uint, error) {
	var names []string
	seen := make(map[string]struct{})
	for _, ir := range rows {
		if ir.city == "" {
			continue
		}
		name := models.TitleCase(ir.city)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	out := make(map[string]uint)
	if len(names) == 0 {
		return out, nil
	}

	var cities []models.City
	if err := i.db.WithContext(ctx).Where("name IN ?", names).Find(&cities).Error; err != nil {
		return nil, err
	}
	for _, c := range cities {
		out[models.TitleCase(c.Name)] = c.ID
	}
	return out, nil
}
