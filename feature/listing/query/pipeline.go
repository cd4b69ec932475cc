package query

import (
	"fmt"
	"sort"
	"strings"

	"catalog-manager/feature/listing/models"
)

// Page is one page of listing summaries plus pagination metadata.
type Page struct {
	Items      []models.Listing `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

// Pagination describes the position of a page. Offset mode carries a total
// count; cursor mode deliberately does not, reporting only has-next and the
// next cursor.
type Pagination struct {
	Mode       string `json:"mode"` // offset | cursor
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit"`
	Total      *int64 `json:"total,omitempty"`
	HasNext    bool   `json:"hasNext"`
	NextCursor *uint  `json:"nextCursor,omitempty"`
}

// buildPage runs the shared filter/sort/paginate pipeline over listing
// summaries. Both the fast path and the cold-start fallback feed this
// function, which is what guarantees identical shapes and, for identical
// data, identical ordering on both paths.
func buildPage(listings []models.Listing, np normalized) *Page {
	matched := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if matches(&l, np) {
			matched = append(matched, l)
		}
	}

	sortListings(matched, np.sort)

	if np.cursor != nil {
		return paginateCursor(matched, np)
	}
	return paginateOffset(matched, np)
}

func matches(l *models.Listing, np normalized) bool {
	if len(np.brands) > 0 && !containsToken(np.brands, l.Brand) {
		return false
	}

	if !matchReference(np.category, l.CategoryID, l.CategoryName) {
		return false
	}
	if !matchReference(np.subcategory, l.SubcategoryID, l.SubcategoryName) {
		return false
	}
	if !matchReference(np.subsubcategory, l.SubsubcategoryID, l.SubsubcategoryName) {
		return false
	}

	if len(np.colors) > 0 && !intersects(np.colors, l.ColorKeys) {
		return false
	}
	if len(np.types) > 0 && !intersects(np.types, l.TypeKeys) {
		return false
	}
	if len(np.sizes) > 0 && !intersects(np.sizes, l.SizeKeys) {
		return false
	}

	// Price-range filters match listings whose [MinPrice, MaxPrice] range
	// overlaps the requested range.
	if np.priceMin != nil && l.MaxPrice < *np.priceMin {
		return false
	}
	if np.priceMax != nil && l.MinPrice > *np.priceMax {
		return false
	}

	if np.minInventory != nil && l.TotalInventory < *np.minInventory {
		return false
	}

	for _, tok := range np.searchTokens {
		if !strings.Contains(l.SearchBlob, tok) {
			return false
		}
	}

	// Non-reserved filters match the default variant's attribute bag by
	// exact value or set membership.
	for key, wanted := range np.attrs {
		raw, ok := l.DefaultAttributes[key]
		if !ok {
			return false
		}
		if !containsToken(wanted, fmt.Sprintf("%v", raw)) {
			return false
		}
	}

	return true
}

func containsToken(set []string, raw string) bool {
	tok := models.NormalizeToken(raw)
	for _, s := range set {
		if s == tok {
			return true
		}
	}
	return false
}

func intersects(wanted []string, keys []string) bool {
	for _, w := range wanted {
		for _, k := range keys {
			if w == k {
				return true
			}
		}
	}
	return false
}

func sortListings(listings []models.Listing, rule string) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := &listings[i], &listings[j]
		switch rule {
		case SortPriceAsc:
			if a.MinPrice != b.MinPrice {
				return a.MinPrice < b.MinPrice
			}
		case SortPriceDesc:
			if a.MinPrice != b.MinPrice {
				return a.MinPrice > b.MinPrice
			}
		case SortNewest:
			if !a.ProductCreatedAt.Equal(b.ProductCreatedAt) {
				return a.ProductCreatedAt.After(b.ProductCreatedAt)
			}
		default: // SortUpdated
			if !a.ProductUpdatedAt.Equal(b.ProductUpdatedAt) {
				return a.ProductUpdatedAt.After(b.ProductUpdatedAt)
			}
		}
		return a.ProductID < b.ProductID
	})
}

func paginateOffset(matched []models.Listing, np normalized) *Page {
	total := int64(len(matched))

	start := (np.page - 1) * np.limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + np.limit
	if end > len(matched) {
		end = len(matched)
	}

	return &Page{
		Items: matched[start:end],
		Pagination: Pagination{
			Mode:    "offset",
			Page:    np.page,
			Limit:   np.limit,
			Total:   &total,
			HasNext: end < len(matched),
		},
	}
}

// paginateCursor resumes after the last-seen product id. It never computes a
// total; has-more is determined from what lies past the page boundary.
func paginateCursor(matched []models.Listing, np normalized) *Page {
	start := 0
	if *np.cursor != 0 {
		for i, l := range matched {
			if l.ProductID == *np.cursor {
				start = i + 1
				break
			}
		}
	}

	end := start + np.limit
	if end > len(matched) {
		end = len(matched)
	}
	items := matched[start:end]

	page := &Page{
		Items: items,
		Pagination: Pagination{
			Mode:    "cursor",
			Limit:   np.limit,
			HasNext: end < len(matched),
		},
	}
	if page.Pagination.HasNext && len(items) > 0 {
		next := items[len(items)-1].ProductID
		page.Pagination.NextCursor = &next
	}
	return page
}
