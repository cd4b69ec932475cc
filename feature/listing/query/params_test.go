package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func float64Ptr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64       { return &v }
func uintPtr(v uint) *uint          { return &v }

func TestCacheKey_OrderInsensitive(t *testing.T) {
	a := Params{
		Brands:     []string{"rayban", "gucci"},
		Colors:     []string{"Gold|silver"},
		Attributes: map[string][]string{"Lens": {"polarized"}, "frame": {"metal"}},
	}
	b := Params{
		Brands:     []string{"GUCCI", " rayban "},
		Colors:     []string{"SILVER", "gold"},
		Attributes: map[string][]string{"frame": {"Metal"}, "lens": {"POLARIZED"}},
	}

	assert.Equal(t, normalize(a).cacheKey(1), normalize(b).cacheKey(1))
}

func TestCacheKey_GenerationNamespaces(t *testing.T) {
	p := normalize(Params{Brands: []string{"rayban"}})
	assert.NotEqual(t, p.cacheKey(1), p.cacheKey(2))
}

func TestCacheKey_DifferentQueriesDiffer(t *testing.T) {
	a := normalize(Params{Brands: []string{"rayban"}})
	b := normalize(Params{Brands: []string{"gucci"}})
	assert.NotEqual(t, a.cacheKey(1), b.cacheKey(1))

	// Pagination position participates in the key.
	c := normalize(Params{Page: 1})
	d := normalize(Params{Page: 2})
	assert.NotEqual(t, c.cacheKey(1), d.cacheKey(1))

	e := normalize(Params{Cursor: uintPtr(10)})
	f := normalize(Params{Cursor: uintPtr(11)})
	assert.NotEqual(t, e.cacheKey(1), f.cacheKey(1))
}

func TestNormalize_Defaults(t *testing.T) {
	np := normalize(Params{Sort: "bogus", Page: -3, Limit: 0})
	assert.Equal(t, SortUpdated, np.sort)
	assert.Equal(t, 1, np.page)
	assert.Equal(t, DefaultLimit, np.limit)

	np = normalize(Params{Limit: 5000})
	assert.Equal(t, MaxLimit, np.limit)
}

func TestNormalize_SearchTokens(t *testing.T) {
	np := normalize(Params{Search: "  Round METAL  "})
	assert.Equal(t, []string{"round", "metal"}, np.searchTokens)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "d"}, SplitList([]string{"a,b", "c|d"}))
	assert.Empty(t, SplitList([]string{"  ", ""}))
}

func TestMatchReference(t *testing.T) {
	id := uint(12)

	assert.True(t, matchReference("", nil, ""))
	assert.True(t, matchReference("12", &id, "Sunglasses"))
	assert.False(t, matchReference("13", &id, "Sunglasses"))
	// Legacy free-text match is case-insensitive.
	assert.True(t, matchReference("sunglasses", &id, "Sunglasses"))
	assert.True(t, matchReference("sunglasses", nil, "Sunglasses"))
	assert.False(t, matchReference("hats", &id, "Sunglasses"))
}
