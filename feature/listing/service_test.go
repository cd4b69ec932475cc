package listing

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"catalog-manager/core/storage/mocks"
	"catalog-manager/feature/listing/importer"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type fakeScheduler struct {
	mu  sync.Mutex
	ids []uint
}

func (f *fakeScheduler) Schedule(productID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, productID)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestDeleteProduct_CascadesAndSchedules(t *testing.T) {
	db, dbmock := setupMockDB(t)
	sched := &fakeScheduler{}
	svc := NewService(db, nil, nil, sched, nil, "catalog")

	dbmock.ExpectQuery("SELECT \\* FROM `products`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "model_code"}).AddRow(1, "RB-7883"))
	dbmock.ExpectQuery("SELECT `id` FROM `variants`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21).AddRow(22))

	dbmock.ExpectBegin()
	dbmock.ExpectExec("DELETE FROM `variant_inventories`").
		WillReturnResult(sqlmock.NewResult(0, 3))
	dbmock.ExpectCommit()
	dbmock.ExpectBegin()
	dbmock.ExpectExec("DELETE FROM `variants`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	dbmock.ExpectCommit()
	dbmock.ExpectBegin()
	dbmock.ExpectExec("DELETE FROM `products`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbmock.ExpectCommit()

	require.NoError(t, svc.DeleteProduct(context.Background(), "rb-7883"))
	assert.Equal(t, []uint{1}, sched.ids)
	assert.NoError(t, dbmock.ExpectationsWereMet())
}

func TestDeleteProduct_NotFound(t *testing.T) {
	db, dbmock := setupMockDB(t)
	svc := NewService(db, nil, nil, &fakeScheduler{}, nil, "catalog")

	dbmock.ExpectQuery("SELECT \\* FROM `products`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	assert.ErrorIs(t, svc.DeleteProduct(context.Background(), "GHOST"), ErrNotFound)
}

func TestDeleteVariant_RepairsOwnerAndSchedules(t *testing.T) {
	db, dbmock := setupMockDB(t)
	sched := &fakeScheduler{}
	svc := NewService(db, nil, nil, sched, nil, "catalog")

	dbmock.ExpectQuery("SELECT \\* FROM `variants`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sku_code", "product_id"}).
			AddRow(21, "160009WR", 1))

	dbmock.ExpectBegin()
	dbmock.ExpectExec("DELETE FROM `variant_inventories`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbmock.ExpectCommit()
	dbmock.ExpectBegin()
	dbmock.ExpectExec("DELETE FROM `variants`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbmock.ExpectCommit()

	// The owner's cached variant list is rewritten from what remains.
	dbmock.ExpectQuery("SELECT `id` FROM `variants`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(22))
	dbmock.ExpectBegin()
	dbmock.ExpectExec("UPDATE `products`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbmock.ExpectCommit()

	require.NoError(t, svc.DeleteVariant(context.Background(), "160009wr"))
	assert.Equal(t, []uint{1}, sched.ids)
	assert.NoError(t, dbmock.ExpectationsWereMet())
}

func TestGetReport_RejectsPathyNames(t *testing.T) {
	client := new(mocks.Client)
	svc := NewService(nil, nil, nil, &fakeScheduler{}, client, "catalog")

	_, err := svc.GetReport(context.Background(), "../secrets.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetReport(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)

	client.AssertNotCalled(t, "GetObject")
}

func TestGetReport_StreamsObject(t *testing.T) {
	client := new(mocks.Client)
	client.On("StatObject", mock.Anything, "catalog", "reports/abc.csv", mock.Anything).
		Return(minio.ObjectInfo{Key: "reports/abc.csv"}, nil)
	client.On("GetObject", mock.Anything, "catalog", "reports/abc.csv", mock.Anything).
		Return(io.NopCloser(strings.NewReader("sku,reason\n")), nil)

	svc := NewService(nil, nil, nil, &fakeScheduler{}, client, "catalog")

	obj, err := svc.GetReport(context.Background(), "abc.csv")
	require.NoError(t, err)
	defer obj.Close()

	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, "sku,reason\n", string(data))
	client.AssertExpectations(t)
}

// A report that does not exist is a 404, not a stream that fails on first
// read.
func TestGetReport_MissingReportNotFound(t *testing.T) {
	client := new(mocks.Client)
	client.On("StatObject", mock.Anything, "catalog", "reports/ghost.csv", mock.Anything).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})

	svc := NewService(nil, nil, nil, &fakeScheduler{}, client, "catalog")

	_, err := svc.GetReport(context.Background(), "ghost.csv")
	assert.ErrorIs(t, err, ErrNotFound)
	client.AssertNotCalled(t, "GetObject")
}

// The object name an import returns feeds straight back into the report
// download.
func TestImportReportRoundTrip(t *testing.T) {
	db, _ := setupMockDB(t)
	client := new(mocks.Client)

	var objectName string
	client.On("PutObject", mock.Anything, "catalog", mock.AnythingOfType("string"),
		mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { objectName = args.String(2) }).
		Return(minio.UploadInfo{}, nil)

	sched := &fakeScheduler{}
	imp := importer.New(db, client, "catalog", sched, zap.NewNop())
	svc := NewService(db, nil, imp, sched, client, "catalog")

	// Every row fails validation, so the import produces a report without
	// touching the store.
	csv := "sku,warehouse,quantity\n,,\n"
	res, err := svc.ImportInventory(context.Background(), strings.NewReader(csv), importer.ModeReplace)
	require.NoError(t, err)
	require.NotEmpty(t, res.ReportObject)
	assert.Equal(t, "reports/"+res.ReportObject, objectName)

	client.On("StatObject", mock.Anything, "catalog", objectName, mock.Anything).
		Return(minio.ObjectInfo{Key: objectName}, nil)
	client.On("GetObject", mock.Anything, "catalog", objectName, mock.Anything).
		Return(io.NopCloser(strings.NewReader("sku,warehouse,quantity,reason\n")), nil)

	obj, err := svc.GetReport(context.Background(), res.ReportObject)
	require.NoError(t, err)
	defer obj.Close()

	data, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.Split(string(data), "\n")[0], "reason"))
	client.AssertExpectations(t)
}
