// Package importer reconciles uploaded catalog and inventory CSVs into the
// catalog store.
//
// Rows are validated and written individually: a bad row is retained with a
// reason string and never aborts the batch. Only a structurally unusable
// input (no header row) fails an import outright. When any rows were
// rejected, a downloadable error-report CSV is produced containing the
// original columns plus the reason, so operators can fix and resubmit only
// the failed rows.
//
// Catalog imports group rows by normalized model code, merge metadata
// spread across rows of one group, and upsert products and variants by
// their natural keys. Inventory imports reconcile quantity records per
// (variant, warehouse, city) triple under one of three modes: replace,
// increment, or merge.
//
// Every accepted write schedules a listing re-materialization for the
// owning product.
package importer
