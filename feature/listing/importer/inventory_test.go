package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"replace", "increment", "merge"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), m)
	}

	// Absent mode defaults to replace.
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeReplace, m)

	_, err = ParseMode("upsert")
	assert.Error(t, err)
}

func TestParseInventoryRow_Validation(t *testing.T) {
	csv := strings.Join([]string{
		"sku,warehouse,city,quantity",
		",Main,,5",
		"A-1,,,5",
		"A-1,Main,,",
		"A-1,Main,,lots",
		"A-1,Main,Porto,5",
	}, "\n")

	rows := parseRows(t, csv, inventoryAliases)
	require.Len(t, rows, 5)

	reasons := make([]string, 0, 4)
	var valid []inventoryRow
	for _, r := range rows {
		ir, rejected := parseInventoryRow(r)
		if rejected != nil {
			reasons = append(reasons, rejected.Reason)
			continue
		}
		valid = append(valid, ir)
	}

	assert.Equal(t, []string{
		ReasonMissingSkuCode,
		ReasonMissingWarehouse,
		ReasonMissingQuantity,
		ReasonInvalidQuantity,
	}, reasons)

	require.Len(t, valid, 1)
	assert.Equal(t, "A-1", valid[0].sku)
	assert.Equal(t, "Porto", valid[0].city)
	assert.Equal(t, int64(5), valid[0].quantity)
}

func TestMergeTriples_DuplicateRows(t *testing.T) {
	resolve := func(ir inventoryRow) (triple, bool) {
		return triple{variantID: 21, warehouseID: 1}, true
	}
	rows := []inventoryRow{{quantity: 5}, {quantity: 7}}

	// Under merge and increment duplicate quantities sum.
	order, merged := mergeTriples(rows, resolve, ModeMerge)
	require.Len(t, order, 1)
	assert.Equal(t, int64(12), merged[order[0]])

	_, merged = mergeTriples(rows, resolve, ModeIncrement)
	assert.Equal(t, int64(12), merged[triple{variantID: 21, warehouseID: 1}])

	// Under replace the last row wins.
	_, merged = mergeTriples(rows, resolve, ModeReplace)
	assert.Equal(t, int64(7), merged[triple{variantID: 21, warehouseID: 1}])
}

func TestMergeTriples_DistinctCitiesStaySeparate(t *testing.T) {
	cities := []uint{0, 4}
	idx := 0
	resolve := func(ir inventoryRow) (triple, bool) {
		t := triple{variantID: 21, warehouseID: 1, cityID: cities[idx]}
		idx++
		return t, true
	}

	order, merged := mergeTriples([]inventoryRow{{quantity: 5}, {quantity: 7}}, resolve, ModeMerge)
	require.Len(t, order, 2)
	assert.Equal(t, int64(5), merged[triple{variantID: 21, warehouseID: 1}])
	assert.Equal(t, int64(7), merged[triple{variantID: 21, warehouseID: 1, cityID: 4}])
}

// Two file rows for the same triple merge to 12 and are added to the stored
// quantity in one update.
func TestImportInventory_MergeAddsToStored(t *testing.T) {
	db, mock := setupMockDB(t)
	sched := &fakeScheduler{}
	imp := New(db, nil, "catalog", sched, zap.NewNop())

	mock.ExpectQuery("SELECT `id`,`sku_code`,`product_id` FROM `variants`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sku_code", "product_id"}).
			AddRow(21, "160009WR", 1))
	mock.ExpectQuery("SELECT \\* FROM `warehouses`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Main"))

	mock.ExpectQuery("SELECT \\* FROM `variant_inventories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "variant_id", "warehouse_id", "city_id", "quantity"}).
			AddRow(3, 21, 1, nil, 10))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `variant_inventories`").
		WithArgs(int64(22), sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	csv := strings.Join([]string{
		"sku,warehouse,quantity",
		"160009WR,Main,5",
		"160009WR,main,7",
	}, "\n")

	res, err := imp.ImportInventory(context.Background(), strings.NewReader(csv), ModeMerge)
	require.NoError(t, err)

	assert.Equal(t, 2, res.RowsProcessed)
	assert.Equal(t, 0, res.RecordsCreated)
	assert.Equal(t, 1, res.RecordsUpdated)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []uint{1}, sched.ids)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Replace mode cannot set negative stock; the row is rejected before any
// store access.
func TestImportInventory_ReplaceRejectsNegative(t *testing.T) {
	db, mock := setupMockDB(t)
	imp := New(db, nil, "catalog", &fakeScheduler{}, zap.NewNop())

	csv := "sku,warehouse,quantity\nA-1,Main,-5\n"

	res, err := imp.ImportInventory(context.Background(), strings.NewReader(csv), ModeReplace)
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, ReasonNegativeQuantity, res.Errors[0].Reason)
	assert.Equal(t, 0, res.RecordsCreated)
	assert.Equal(t, 0, res.RecordsUpdated)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// A negative adjustment is a valid increment but the stored quantity floors
// at zero.
func TestImportInventory_IncrementFloorsAtZero(t *testing.T) {
	db, mock := setupMockDB(t)
	sched := &fakeScheduler{}
	imp := New(db, nil, "catalog", sched, zap.NewNop())

	mock.ExpectQuery("SELECT `id`,`sku_code`,`product_id` FROM `variants`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sku_code", "product_id"}).
			AddRow(21, "160009WR", 1))
	mock.ExpectQuery("SELECT \\* FROM `warehouses`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Main"))

	mock.ExpectQuery("SELECT \\* FROM `variant_inventories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "variant_id", "warehouse_id", "city_id", "quantity"}).
			AddRow(3, 21, 1, nil, 5))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `variant_inventories`").
		WithArgs(int64(0), sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	csv := "sku,warehouse,quantity\n160009WR,Main,-8\n"

	res, err := imp.ImportInventory(context.Background(), strings.NewReader(csv), ModeIncrement)
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, res.RecordsUpdated)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Directory names match regardless of stored casing, the same way the SQL
// lookup does.
func TestImportInventory_DirectoryCasingDoesNotMatter(t *testing.T) {
	db, mock := setupMockDB(t)
	sched := &fakeScheduler{}
	imp := New(db, nil, "catalog", sched, zap.NewNop())

	mock.ExpectQuery("SELECT `id`,`sku_code`,`product_id` FROM `variants`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sku_code", "product_id"}).
			AddRow(21, "A-1", 1))
	mock.ExpectQuery("SELECT \\* FROM `warehouses`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "MAIN"))
	mock.ExpectQuery("SELECT \\* FROM `cities`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "warehouse_id"}).AddRow(4, "PORTO", 1))

	mock.ExpectQuery("SELECT \\* FROM `variant_inventories`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `variant_inventories`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	csv := "sku,warehouse,city,quantity\nA-1,main,porto,5\n"

	res, err := imp.ImportInventory(context.Background(), strings.NewReader(csv), ModeReplace)
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, res.RecordsCreated)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// An absent record is created with the file value regardless of mode.
func TestImportInventory_AbsentRecordCreated(t *testing.T) {
	db, mock := setupMockDB(t)
	sched := &fakeScheduler{}
	imp := New(db, nil, "catalog", sched, zap.NewNop())

	mock.ExpectQuery("SELECT `id`,`sku_code`,`product_id` FROM `variants`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sku_code", "product_id"}).
			AddRow(21, "160009WR", 1))
	mock.ExpectQuery("SELECT \\* FROM `warehouses`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Main"))

	mock.ExpectQuery("SELECT \\* FROM `variant_inventories`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `variant_inventories`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	csv := "sku,warehouse,quantity\n160009WR,Main,5\n"

	res, err := imp.ImportInventory(context.Background(), strings.NewReader(csv), ModeIncrement)
	require.NoError(t, err)

	assert.Equal(t, 1, res.RecordsCreated)
	assert.Equal(t, 0, res.RecordsUpdated)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Unresolved variant and warehouse fail their rows; an unresolved city only
// degrades the row to warehouse-level stock.
func TestImportInventory_ResolutionFailures(t *testing.T) {
	db, mock := setupMockDB(t)
	sched := &fakeScheduler{}
	imp := New(db, nil, "catalog", sched, zap.NewNop())

	mock.ExpectQuery("SELECT `id`,`sku_code`,`product_id` FROM `variants`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sku_code", "product_id"}).
			AddRow(21, "A-1", 1))
	mock.ExpectQuery("SELECT \\* FROM `warehouses`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Main"))
	// No city directory entry for "Atlantis".
	mock.ExpectQuery("SELECT \\* FROM `cities`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	mock.ExpectQuery("SELECT \\* FROM `variant_inventories`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `variant_inventories`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	csv := strings.Join([]string{
		"sku,warehouse,city,quantity",
		"GHOST,Main,,5",
		"A-1,Nowhere,,5",
		"A-1,Main,Atlantis,5",
	}, "\n")

	res, err := imp.ImportInventory(context.Background(), strings.NewReader(csv), ModeReplace)
	require.NoError(t, err)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, ReasonUnknownSku, res.Errors[0].Reason)
	assert.Equal(t, ReasonUnknownWarehouse, res.Errors[1].Reason)

	// The degraded row was still written, at warehouse level.
	assert.Equal(t, 1, res.RecordsCreated)

	assert.NoError(t, mock.ExpectationsWereMet())
}
