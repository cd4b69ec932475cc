// Package cache provides the shared Redis cache backend.
//
// It wraps the go-redis client behind a small Backend interface covering the
// operations the listing pipeline needs: TTL-bound key/value storage for
// query result pages and an atomic counter for the cache generation.
//
// # Degraded Mode
//
// The cache is an optional dependency. When Redis is unreachable at startup
// the service runs without a Backend and every read computes directly against
// the database; cache errors at runtime are treated as misses. The service
// never fails a request because the cache is down.
//
// # Mocking
//
// The Backend interface is mocked in core/cache/mocks for unit tests, and the
// listing query tests use a map-backed in-memory implementation.
package cache
