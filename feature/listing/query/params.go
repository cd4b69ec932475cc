package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"catalog-manager/feature/listing/models"
)

// Sort rules. Ties are always broken by product id ascending so pagination
// stays stable across requests.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
	SortUpdated   = "updated" // default: recently updated first
)

const (
	// DefaultLimit is the page size when none is requested.
	DefaultLimit = 20
	// MaxLimit caps the page size.
	MaxLimit = 100
)

// Params is a raw listing query as parsed from the request. Set-valued
// filters accept single tokens or separator-delimited lists; everything is
// normalized before filtering or cache keying.
type Params struct {
	Brands         []string
	Category       string // reference id or legacy free-text name
	Subcategory    string
	Subsubcategory string
	Colors         []string
	Types          []string
	Sizes          []string
	PriceMin       *float64
	PriceMax       *float64
	MinInventory   *int64
	Search         string
	// Attributes holds non-reserved filter names matched against the default
	// variant's attribute bag.
	Attributes map[string][]string
	Sort       string
	Page       int
	Limit      int
	// Cursor switches pagination to forward-only cursor mode: the value is
	// the last-seen product id.
	Cursor *uint
}

// normalized is the canonical form of Params: trimmed, uppercased,
// order-insensitive. Two logically identical requests always normalize to
// the same value, and therefore to the same cache key.
type normalized struct {
	brands         []string
	category       string
	subcategory    string
	subsubcategory string
	colors         []string
	types          []string
	sizes          []string
	priceMin       *float64
	priceMax       *float64
	minInventory   *int64
	searchTokens   []string
	attrs          map[string][]string
	sort           string
	page           int
	limit          int
	cursor         *uint
}

// SplitList splits set-valued filter input on commas, semicolons, and pipes,
// so "gold,SILVER" and "Gold|silver" carry the same tokens.
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, tok := range strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ';' || r == '|'
		}) {
			if t := strings.TrimSpace(tok); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

func normalizeSet(values []string) []string {
	set := map[string]struct{}{}
	for _, v := range SplitList(values) {
		set[models.NormalizeToken(v)] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func normalize(p Params) normalized {
	np := normalized{
		brands:         normalizeSet(p.Brands),
		category:       strings.TrimSpace(p.Category),
		subcategory:    strings.TrimSpace(p.Subcategory),
		subsubcategory: strings.TrimSpace(p.Subsubcategory),
		colors:         normalizeSet(p.Colors),
		types:          normalizeSet(p.Types),
		sizes:          normalizeSet(p.Sizes),
		priceMin:       p.PriceMin,
		priceMax:       p.PriceMax,
		minInventory:   p.MinInventory,
		sort:           p.Sort,
		page:           p.Page,
		limit:          p.Limit,
		cursor:         p.Cursor,
	}

	for _, tok := range strings.Fields(strings.ToLower(strings.TrimSpace(p.Search))) {
		np.searchTokens = append(np.searchTokens, tok)
	}

	if len(p.Attributes) > 0 {
		np.attrs = make(map[string][]string, len(p.Attributes))
		for k, vals := range p.Attributes {
			key := strings.ToLower(strings.TrimSpace(k))
			if key == "" {
				continue
			}
			np.attrs[key] = normalizeSet(vals)
		}
	}

	switch np.sort {
	case SortPriceAsc, SortPriceDesc, SortNewest, SortUpdated:
	default:
		np.sort = SortUpdated
	}

	if np.page < 1 {
		np.page = 1
	}
	if np.limit < 1 {
		np.limit = DefaultLimit
	}
	if np.limit > MaxLimit {
		np.limit = MaxLimit
	}

	return np
}

// canonical serializes the normalized query into a stable shape. Field order
// is fixed and attribute keys are sorted, so serialization never depends on
// map iteration or input order.
func (np normalized) canonical() string {
	var b strings.Builder

	writeList := func(name string, vals []string) {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strings.Join(vals, ","))
		b.WriteByte(';')
	}

	writeList("brand", np.brands)
	fmt.Fprintf(&b, "cat=%s;sub=%s;subsub=%s;", np.category, np.subcategory, np.subsubcategory)
	writeList("color", np.colors)
	writeList("type", np.types)
	writeList("size", np.sizes)

	if np.priceMin != nil {
		fmt.Fprintf(&b, "pmin=%g;", *np.priceMin)
	}
	if np.priceMax != nil {
		fmt.Fprintf(&b, "pmax=%g;", *np.priceMax)
	}
	if np.minInventory != nil {
		fmt.Fprintf(&b, "minv=%d;", *np.minInventory)
	}

	writeList("q", np.searchTokens)

	attrKeys := make([]string, 0, len(np.attrs))
	for k := range np.attrs {
		attrKeys = append(attrKeys, k)
	}
	sort.Strings(attrKeys)
	for _, k := range attrKeys {
		writeList("attr:"+k, np.attrs[k])
	}

	fmt.Fprintf(&b, "sort=%s;page=%d;limit=%d;", np.sort, np.page, np.limit)
	if np.cursor != nil {
		fmt.Fprintf(&b, "cursor=%d;", *np.cursor)
	}

	return b.String()
}

// cacheKey builds the generation-prefixed cache key for this query.
// Requests under different generations can never collide.
func (np normalized) cacheKey(gen int64) string {
	sum := sha256.Sum256([]byte(np.canonical()))
	return fmt.Sprintf("listing:q:%d:%s", gen, hex.EncodeToString(sum[:]))
}

// matchReference matches a category filter against a listing's reference id
// and snapshot name. The filter accepts a numeric reference id or a legacy
// free-text name.
func matchReference(filter string, id *uint, name string) bool {
	if filter == "" {
		return true
	}
	if n, err := strconv.ParseUint(filter, 10, 64); err == nil {
		return id != nil && uint(n) == *id
	}
	return strings.EqualFold(filter, name)
}
