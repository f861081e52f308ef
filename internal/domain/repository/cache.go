package repository

import (
	"context"
)

// Cache memoizes computed values by key. Implementations must be safe for
// concurrent use. A failed Get is reported as a miss.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Put(ctx context.Context, key string, value V) error
	// Invalidate drops a single key. Missing keys are not an error.
	Invalidate(ctx context.Context, key string) error
	// Clear drops every key owned by this cache.
	Clear(ctx context.Context) error
}
