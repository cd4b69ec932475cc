// Package generation manages the listing cache generation counter.
//
// The counter is a single monotonic integer stored in the shared cache
// backend, never in process memory, so every service instance sees the same
// generation. Query cache keys are prefixed with the current value; bumping
// the counter therefore invalidates every cached page at once without
// touching individual keys.
package generation

import (
	"context"
	"errors"
	"strconv"

	"catalog-manager/core/cache"
)

// Key is the cache key holding the generation counter.
const Key = "listing:gen"

// Current returns the current generation. An absent counter is lazily
// initialized to 1. Any backend failure (or a nil backend) degrades to
// generation 1 rather than failing the read path; the caller is already
// operating in always-miss mode in that case.
func Current(ctx context.Context, backend cache.Backend) int64 {
	if backend == nil {
		return 1
	}

	val, err := backend.Get(ctx, Key)
	if errors.Is(err, cache.ErrMiss) {
		// SETNX keeps concurrent initializers from clobbering a bump that
		// lands in between.
		if _, err := backend.SetNX(ctx, Key, "1", 0); err != nil {
			return 1
		}
		return Current(ctx, backend)
	}
	if err != nil {
		return 1
	}

	gen, err := strconv.ParseInt(val, 10, 64)
	if err != nil || gen < 1 {
		return 1
	}
	return gen
}

// Bump atomically increments the generation and returns the new value.
// The increment must go through the backend's atomic INCR; a read-modify-write
// here would lose updates under concurrent materialization batches.
func Bump(ctx context.Context, backend cache.Backend) (int64, error) {
	if backend == nil {
		return 1, nil
	}
	return backend.Incr(ctx, Key)
}
