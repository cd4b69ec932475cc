package importer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenReader serves a prefix and then fails on every subsequent read, the
// way a dropped upload stream does.
type brokenReader struct {
	data []byte
	err  error
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if len(r.data) > 0 {
		n := copy(p, r.data)
		r.data = r.data[n:]
		return n, nil
	}
	return 0, r.err
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "modelcode", normalizeHeader("Model Code"))
	assert.Equal(t, "modelcode", normalizeHeader("model_code"))
	assert.Equal(t, "modelcode", normalizeHeader("  MODEL-CODE "))
	assert.Equal(t, "skucode", normalizeHeader("SKU Code"))
}

func TestReadRows_AliasesAndExtras(t *testing.T) {
	csv := strings.Join([]string{
		"Model Code,SKU,Price,Category,Lens Material",
		"RB-7883,160009WR,120.50,Sunglasses,polycarbonate",
	}, "\n")

	rows, headers, err := readRows(strings.NewReader(csv), catalogAliases)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Model Code", "SKU", "Price", "Category", "Lens Material"}, headers)

	r := rows[0]
	assert.Equal(t, 2, r.line)
	assert.Equal(t, "RB-7883", r.cells["model"])
	assert.Equal(t, "160009WR", r.cells["sku"])
	assert.Equal(t, "120.50", r.cells["price"])
	assert.Equal(t, "Sunglasses", r.cells["category"])

	// Unrecognized columns land in the attribute extras.
	assert.Equal(t, "polycarbonate", r.extra["Lens Material"])

	// The raw view keeps the original headers for error reports.
	assert.Equal(t, "RB-7883", r.raw["Model Code"])
}

func TestReadRows_ShortRecordsPad(t *testing.T) {
	csv := "sku,warehouse,quantity\nA-1,Main\n"

	rows, _, err := readRows(strings.NewReader(csv), inventoryAliases)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].cells["quantity"])
}

func TestReadRows_EmptyInputFails(t *testing.T) {
	_, _, err := readRows(strings.NewReader(""), catalogAliases)
	assert.Error(t, err)
}

// A reader that fails persistently mid-file must surface a top-level error,
// not loop on the failing read.
func TestReadRows_ReaderFailureIsFatal(t *testing.T) {
	cause := errors.New("connection reset by peer")
	r := &brokenReader{
		data: []byte("sku,warehouse,quantity\nA-1,Main,5\n"),
		err:  cause,
	}

	type result struct {
		rows []row
		err  error
	}
	done := make(chan result, 1)
	go func() {
		rows, _, err := readRows(r, inventoryAliases)
		done <- result{rows: rows, err: err}
	}()

	select {
	case res := <-done:
		require.Error(t, res.err)
		assert.ErrorIs(t, res.err, cause)
		assert.Nil(t, res.rows)
	case <-time.After(2 * time.Second):
		t.Fatal("readRows did not return on a persistently failing reader")
	}
}

func TestCoerceScalar(t *testing.T) {
	assert.Equal(t, true, coerceScalar("TRUE"))
	assert.Equal(t, false, coerceScalar("false"))
	assert.Equal(t, 12.5, coerceScalar("12,5"))
	assert.Equal(t, float64(3), coerceScalar("3"))
	assert.Equal(t, "polarized", coerceScalar("polarized"))
}
