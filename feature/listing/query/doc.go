// Package query serves listing reads through a generation-versioned cache.
//
// # Cache keying
//
// Every filter is normalized (trimmed, uppercased, set values sorted), the
// result is serialized to a stable shape, hashed, and prefixed with the
// current generation counter. Identical logical requests always hash
// identically; requests under different generations never collide, which is
// how materialization invalidates the whole cache with one atomic increment.
//
// # Read path
//
// Hits are served immediately while a detached goroutine recomputes and
// overwrites the same key with a fresh TTL (stale-while-revalidate). Misses
// compute synchronously under singleflight and store before returning. A
// missing or failing cache backend degrades the engine to always-miss
// direct compute; it never fails a request.
//
// # Computation
//
// The listing collection is the fast path. When it is empty (cold start)
// the engine composes summaries live from products, variants, and inventory.
// Both paths feed one shared filter/sort/paginate pipeline, so they produce
// identical shapes and, for identical data, identical ordering.
package query
