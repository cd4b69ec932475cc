// Package listing is the catalog read-model pipeline: a denormalized
// listing projection materialized from products, variants, and stock,
// served through a generation-versioned cache and fed by bulk CSV imports.
//
// The feature wires four parts together. The importer reconciles uploaded
// catalog and inventory CSVs into the catalog store. Every accepted write
// schedules a debounced re-materialization of the owning product's listing
// row. The materializer recomputes listing rows and bumps the cache
// generation once per settled batch. The query engine serves reads from the
// versioned cache with stale-while-revalidate semantics.
package listing
