// Package materializer keeps listing documents in sync with the catalog store.
//
// # Sync
//
// Sync(productID) is idempotent and side-effect-only: it recomputes the
// listing projection strictly from current store state and replaces the
// stored document whole. Products without active variants lose their
// document. The default-variant pointer on the product is corrected as a
// side effect when it no longer resolves.
//
// # Scheduling
//
// Write paths never call Sync directly; they call Scheduler.Schedule, which
// debounces bursts of triggers per product id into one recompute and bumps
// the cache generation once per settled batch. Sync failures are logged and
// swallowed so a background recompute can never fail the write that
// triggered it; the cache layer already tolerates the resulting staleness.
package materializer
