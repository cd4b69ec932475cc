package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalog-manager/core/cache"
	"catalog-manager/feature/listing/generation"
	"catalog-manager/feature/listing/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	// DefaultTTL is the cache lifetime of a result page.
	DefaultTTL = time.Minute
	// generationMemo is how long the generation value is reused in-process
	// before being re-read from the backend.
	generationMemo = time.Second
	// refreshTimeout bounds detached stale-while-revalidate recomputes.
	refreshTimeout = 30 * time.Second
)

// Engine answers listing queries through the generation-versioned cache.
type Engine struct {
	db      *gorm.DB
	backend cache.Backend
	logger  *zap.Logger
	ttl     time.Duration

	// sf collapses concurrent recomputes of the same key into one.
	sf singleflight.Group

	genMu sync.Mutex
	gen   int64
	genAt time.Time
}

// NewEngine creates a query engine. backend may be nil: the engine then runs
// in always-miss mode and computes every request directly.
func NewEngine(db *gorm.DB, backend cache.Backend, logger *zap.Logger, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Engine{db: db, backend: backend, logger: logger, ttl: ttl}
}

// Query resolves one listing request.
//
// On a cache hit the cached page is returned immediately and a detached
// refresh overwrites the same key with a fresh TTL (stale-while-revalidate).
// On a miss the page is computed synchronously and stored before returning.
// Cache backend failures degrade to direct compute; they never fail the
// request.
func (e *Engine) Query(ctx context.Context, p Params) (*Page, error) {
	np := normalize(p)
	key := np.cacheKey(e.generation(ctx))

	if e.backend != nil {
		raw, err := e.backend.Get(ctx, key)
		if err == nil {
			var page Page
			if jerr := json.Unmarshal([]byte(raw), &page); jerr == nil {
				go e.refresh(key, np)
				return &page, nil
			}
			// Undecodable entry: recompute and overwrite below.
		} else if !errors.Is(err, cache.ErrMiss) {
			e.logger.Warn("Listing cache read failed, computing directly", zap.Error(err))
		}
	}

	return e.computeAndStore(ctx, key, np)
}

func (e *Engine) computeAndStore(ctx context.Context, key string, np normalized) (*Page, error) {
	v, err, _ := e.sf.Do(key, func() (any, error) {
		page, err := e.compute(ctx, np)
		if err != nil {
			return nil, err
		}
		e.store(ctx, key, page)
		return page, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Page), nil
}

// refresh recomputes a key in the background. It is fire-and-forget:
// detached from the triggering request and its failures never surface.
func (e *Engine) refresh(key string, np normalized) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if _, err := e.computeAndStore(ctx, key, np); err != nil {
		e.logger.Warn("Background listing refresh failed", zap.Error(err))
	}
}

func (e *Engine) store(ctx context.Context, key string, page *Page) {
	if e.backend == nil {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		e.logger.Warn("Failed to encode listing page for cache", zap.Error(err))
		return
	}
	if err := e.backend.Set(ctx, key, string(data), e.ttl); err != nil {
		e.logger.Warn("Listing cache write failed", zap.Error(err))
	}
}

// generation returns the current cache generation, memoized briefly so hot
// query paths don't hit the backend for every request.
func (e *Engine) generation(ctx context.Context) int64 {
	if e.backend == nil {
		return 1
	}

	e.genMu.Lock()
	defer e.genMu.Unlock()

	if e.gen != 0 && time.Since(e.genAt) < generationMemo {
		return e.gen
	}

	e.gen = generation.Current(ctx, e.backend)
	e.genAt = time.Now()
	return e.gen
}

// compute produces a page from storage. The listing collection is the fast
// path; when it is empty (cold start, before the first materialization) the
// engine falls back to composing summaries live from the source entities.
// Both paths feed the same pipeline, so shapes and ordering are identical.
func (e *Engine) compute(ctx context.Context, np normalized) (*Page, error) {
	var count int64
	if err := e.db.WithContext(ctx).Model(&models.Listing{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	if count == 0 {
		listings, err := e.coldPath(ctx)
		if err != nil {
			return nil, err
		}
		return buildPage(listings, np), nil
	}

	if np.sqlPageable() {
		return e.fastPage(ctx, np)
	}

	listings, err := e.fastPath(ctx, np)
	if err != nil {
		return nil, err
	}
	return buildPage(listings, np), nil
}

// sqlPageable reports whether every active filter is applied exactly by the
// fast-path SQL. Brand, category, set, attribute, and search filters are
// re-checked in memory and may narrow further, so sort and page bounds can
// only move into SQL when none of them is present.
func (np normalized) sqlPageable() bool {
	return len(np.brands) == 0 &&
		np.category == "" && np.subcategory == "" && np.subsubcategory == "" &&
		len(np.colors) == 0 && len(np.types) == 0 && len(np.sizes) == 0 &&
		len(np.attrs) == 0 && len(np.searchTokens) == 0
}

// sortClause is the SQL equivalent of sortListings, tie-break included.
func sortClause(rule string) string {
	switch rule {
	case SortPriceAsc:
		return "min_price asc, product_id asc"
	case SortPriceDesc:
		return "min_price desc, product_id asc"
	case SortNewest:
		return "product_created_at desc, product_id asc"
	default:
		return "product_updated_at desc, product_id asc"
	}
}

// fastPage answers a pageable query entirely in SQL, touching at most one
// page of rows instead of materializing the whole result set.
func (e *Engine) fastPage(ctx context.Context, np normalized) (*Page, error) {
	if np.cursor != nil {
		return e.fastPageCursor(ctx, np)
	}

	var total int64
	if err := e.listingQuery(ctx, np).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	offset := (np.page - 1) * np.limit
	listings := make([]models.Listing, 0, np.limit)
	if err := e.listingQuery(ctx, np).
		Order(sortClause(np.sort)).
		Limit(np.limit).Offset(offset).
		Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	return &Page{
		Items: listings,
		Pagination: Pagination{
			Mode:    "offset",
			Page:    np.page,
			Limit:   np.limit,
			Total:   &total,
			HasNext: int64(offset+len(listings)) < total,
		},
	}, nil
}

// fastPageCursor fetches limit+1 rows past the cursor position; the extra
// row only signals has-next and is never returned.
func (e *Engine) fastPageCursor(ctx context.Context, np normalized) (*Page, error) {
	q := e.listingQuery(ctx, np)
	if *np.cursor != 0 {
		var after models.Listing
		err := e.db.WithContext(ctx).
			Where("product_id = ?", *np.cursor).
			First(&after).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Unknown cursor restarts from the top, same as the in-memory
			// pipeline.
		case err != nil:
			return nil, fmt.Errorf("failed to resolve cursor: %w", err)
		default:
			q = keysetAfter(q, np.sort, &after)
		}
	}

	listings := make([]models.Listing, 0, np.limit+1)
	if err := q.Order(sortClause(np.sort)).Limit(np.limit + 1).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	hasNext := len(listings) > np.limit
	if hasNext {
		listings = listings[:np.limit]
	}

	page := &Page{
		Items: listings,
		Pagination: Pagination{
			Mode:    "cursor",
			Limit:   np.limit,
			HasNext: hasNext,
		},
	}
	if hasNext && len(listings) > 0 {
		next := listings[len(listings)-1].ProductID
		page.Pagination.NextCursor = &next
	}
	return page, nil
}

// keysetAfter resumes strictly after the cursor row in sort order, with the
// same product-id tie-break sortListings uses.
func keysetAfter(q *gorm.DB, rule string, after *models.Listing) *gorm.DB {
	switch rule {
	case SortPriceAsc:
		return q.Where("min_price > ? OR (min_price = ? AND product_id > ?)",
			after.MinPrice, after.MinPrice, after.ProductID)
	case SortPriceDesc:
		return q.Where("min_price < ? OR (min_price = ? AND product_id > ?)",
			after.MinPrice, after.MinPrice, after.ProductID)
	case SortNewest:
		return q.Where("product_created_at < ? OR (product_created_at = ? AND product_id > ?)",
			after.ProductCreatedAt, after.ProductCreatedAt, after.ProductID)
	default:
		return q.Where("product_updated_at < ? OR (product_updated_at = ? AND product_id > ?)",
			after.ProductUpdatedAt, after.ProductUpdatedAt, after.ProductID)
	}
}

// listingQuery applies the fast-path SQL predicates. They only narrow: the
// result is a superset of the final match, and the shared pipeline
// re-applies every filter in memory so the fast path can never diverge from
// the fallback.
func (e *Engine) listingQuery(ctx context.Context, np normalized) *gorm.DB {
	q := e.db.WithContext(ctx).Model(&models.Listing{})

	if len(np.brands) > 0 {
		q = q.Where("UPPER(brand) IN ?", np.brands)
	}
	if np.priceMin != nil {
		q = q.Where("max_price >= ?", *np.priceMin)
	}
	if np.priceMax != nil {
		q = q.Where("min_price <= ?", *np.priceMax)
	}
	if np.minInventory != nil {
		q = q.Where("total_inventory >= ?", *np.minInventory)
	}
	for _, tok := range np.searchTokens {
		q = q.Where("search_blob LIKE ?", "%"+tok+"%")
	}
	return q
}

// fastPath reads candidate rows from the listing collection for the shared
// in-memory pipeline.
func (e *Engine) fastPath(ctx context.Context, np normalized) ([]models.Listing, error) {
	var listings []models.Listing
	if err := e.listingQuery(ctx, np).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	return listings, nil
}

// coldPath composes listing summaries live from the source entities,
// reproducing exactly what the materializer would have written.
func (e *Engine) coldPath(ctx context.Context) ([]models.Listing, error) {
	var products []models.Product
	if err := e.db.WithContext(ctx).Order("id asc").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}

	var variants []models.Variant
	if err := e.db.WithContext(ctx).Order("id asc").Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}

	var inventories []models.VariantInventory
	if err := e.db.WithContext(ctx).Find(&inventories).Error; err != nil {
		return nil, fmt.Errorf("failed to load inventories: %w", err)
	}

	var cats []models.Category
	if err := e.db.WithContext(ctx).Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	categories := make(map[uint]models.Category, len(cats))
	for _, c := range cats {
		categories[c.ID] = c
	}

	variantsByProduct := make(map[uint][]models.Variant)
	for _, v := range variants {
		variantsByProduct[v.ProductID] = append(variantsByProduct[v.ProductID], v)
	}
	variantOwner := make(map[uint]uint, len(variants))
	for _, v := range variants {
		variantOwner[v.ID] = v.ProductID
	}
	invByProduct := make(map[uint][]models.VariantInventory)
	for _, inv := range inventories {
		if owner, ok := variantOwner[inv.VariantID]; ok {
			invByProduct[owner] = append(invByProduct[owner], inv)
		}
	}

	listings := make([]models.Listing, 0, len(products))
	for i := range products {
		p := &products[i]
		l, _ := models.ComputeListing(p, variantsByProduct[p.ID], invByProduct[p.ID], categories)
		if l != nil {
			listings = append(listings, *l)
		}
	}
	return listings, nil
}
