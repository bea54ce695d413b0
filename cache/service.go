package cache

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// KeySerializer builds a cache key from an entry kind + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(kind string, args ...any) string
}

// FetchFn is the producer CacheService invokes when an entry is missing or expired.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Entry bundles everything needed to fill one cache slot.
type Entry struct {
	Key string
	// TTL is a fixed window from the last fill or refresh, reads do not extend
	// it. Zero uses the service default.
	TTL time.Duration
	// AutoRefresh refreshes the entry in the background before it expires.
	AutoRefresh bool
	Fetch       FetchFn[any]
}

// CacheService exposes the read-through caching operations shared by every
// management component. Implementations must coalesce concurrent fills of the
// same key and must not cache producer failures.
type CacheService interface {
	GetOrAdd(ctx context.Context, entry Entry) (any, error)
	Remove(ctx context.Context, key string) error
}

// ErrInvalidResultType is returned when a cached value does not have the type
// the caller asked for. It means two producers share one key.
var ErrInvalidResultType = goerrors.New("cache: cached value has unexpected type", goerrors.CategoryInternal)

// GetOrAdd is a type-safe wrapper function that provides generic support for CacheService.
func GetOrAdd[T any](ctx context.Context, service CacheService, key string, ttl time.Duration, autoRefresh bool, fetchFn FetchFn[T]) (T, error) {
	var zero T
	result, err := service.GetOrAdd(ctx, Entry{
		Key:         key,
		TTL:         ttl,
		AutoRefresh: autoRefresh,
		Fetch: func(ctx context.Context) (any, error) {
			return fetchFn(ctx)
		},
	})
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %T", ErrInvalidResultType, key, result)
	}
	return typed, nil
}
