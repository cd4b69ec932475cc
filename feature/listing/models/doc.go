// Package models defines the catalog store entities and the listing
// projection.
//
// # Source of truth
//
// Product, Variant, and VariantInventory are the mutable source entities,
// written by imports and admin actions. Category, Warehouse, and City form
// the directories imports resolve names against.
//
// # Read projection
//
// Listing is the denormalized read model, one document per product. It is
// never patched in place: ComputeListing rebuilds the whole document from
// current store state, and the materializer replaces the stored row. This
// trades a little write amplification for the guarantee that a listing can
// never drift from its sources in a partial way.
package models
