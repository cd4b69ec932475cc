package importer

import (
	"catalog-manager/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// batchSize bounds how many records one reconciliation round trip touches,
// keeping memory flat regardless of file size.
const batchSize = 500

// SyncScheduler receives a re-materialization request for every product an
// import wrote to. Satisfied by *materializer.Scheduler.
type SyncScheduler interface {
	Schedule(productID uint)
}

// Importer reconciles uploaded CSVs into the catalog store.
type Importer struct {
	db        *gorm.DB
	storage   storage.Client
	bucket    string
	scheduler SyncScheduler
	logger    *zap.Logger
}

// New creates an importer. storage may be nil, in which case error reports
// are returned inline but never uploaded.
func New(db *gorm.DB, client storage.Client, bucket string, scheduler SyncScheduler, logger *zap.Logger) *Importer {
	return &Importer{
		db:        db,
		storage:   client,
		bucket:    bucket,
		scheduler: scheduler,
		logger:    logger,
	}
}

// CatalogResult summarizes one catalog import. Partial success is still
// success: rejected rows are listed in Errors and the import reports what it
// did write.
type CatalogResult struct {
	RowsProcessed   int        `json:"rowsProcessed"`
	ProductsWritten int        `json:"productsWritten"`
	VariantsWritten int        `json:"variantsWritten"`
	Errors          []RowError `json:"errors,omitempty"`
	ReportObject    string     `json:"reportObject,omitempty"`
}

// InventoryResult summarizes one inventory import.
type InventoryResult struct {
	RowsProcessed  int        `json:"rowsProcessed"`
	RecordsCreated int        `json:"recordsCreated"`
	RecordsUpdated int        `json:"recordsUpdated"`
	Errors         []RowError `json:"errors,omitempty"`
	ReportObject   string     `json:"reportObject,omitempty"`
}
