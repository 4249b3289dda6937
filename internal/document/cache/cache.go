package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss reports that the cache has no entry for the requested id.
// Distinct from operational errors so callers can count misses separately.
var ErrMiss = errors.New("cache miss")

// Cache is the volatile read-acceleration tier. It is never
// authoritative: every operation is advisory and the coordinator absorbs
// all failures. Expiry is delegated to the backend via the ttl passed to
// Set; entries past their ttl surface as ErrMiss.
type Cache interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Set(ctx context.Context, id string, content []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
