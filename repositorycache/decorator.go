package repositorycache

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-hackathon-store/cache"
	"github.com/goliatone/go-hackathon-store/storage"
)

// DefaultTTL is the lifetime of a cached partition list.
const DefaultTTL = 4 * time.Hour

// Interface assertion to ensure CachedTable implements storage.Table
var _ storage.Table[storage.Entity] = (*CachedTable[storage.Entity])(nil)

// Option configures a CachedTable.
type Option func(*options)

type options struct {
	ttl         time.Duration
	autoRefresh bool
	logger      *slog.Logger
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithAutoRefresh toggles background refresh of partition lists. On by default.
func WithAutoRefresh(enabled bool) Option {
	return func(o *options) { o.autoRefresh = enabled }
}

// WithLogger sets the logger used to report failed invalidations.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// CachedTable decorates a base table with a per-partition list cache.
// Point reads and paged queries go to the base table. Every write removes the
// cached list of the partition it touched.
type CachedTable[T storage.Entity] struct {
	base          storage.Table[T]
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	kind          string
	opts          options
}

// New creates a new CachedTable. kind is the first cache key segment, for
// example cache.KindEnrollment.
func New[T storage.Entity](base storage.Table[T], cacheService cache.CacheService, keySerializer cache.KeySerializer, kind string, opts ...Option) *CachedTable[T] {
	o := options{ttl: DefaultTTL, autoRefresh: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &CachedTable[T]{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
		kind:          kind,
		opts:          o,
	}
}

// Key returns the cache key of a partition list.
func (c *CachedTable[T]) Key(partitionKey string) string {
	return c.keySerializer.SerializeKey(c.kind, partitionKey)
}

// Base returns the undecorated table.
func (c *CachedTable[T]) Base() storage.Table[T] {
	return c.base
}

// Retrieve passes through to the base table.
func (c *CachedTable[T]) Retrieve(ctx context.Context, partitionKey, rowKey string) (T, error) {
	return c.base.Retrieve(ctx, partitionKey, rowKey)
}

// QueryPaged passes through to the base table.
func (c *CachedTable[T]) QueryPaged(ctx context.Context, q storage.Query) (storage.Page[T], error) {
	return c.base.QueryPaged(ctx, q)
}

// ListPartition returns the cached partition list, filling it from the base
// table on a miss. The returned slice is a copy, callers may reorder it.
func (c *CachedTable[T]) ListPartition(ctx context.Context, partitionKey string) ([]T, error) {
	records, err := cache.GetOrAdd(ctx, c.cache, c.Key(partitionKey), c.opts.ttl, c.opts.autoRefresh, func(ctx context.Context) ([]T, error) {
		return c.base.ListPartition(ctx, partitionKey)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(records), nil
}

// Insert writes a record, then invalidates its partition list
func (c *CachedTable[T]) Insert(ctx context.Context, record T) error {
	err := c.base.Insert(ctx, record)
	if writeMayHaveLanded(err) {
		c.Invalidate(ctx, record.GetPartitionKey())
	}
	return err
}

// Merge writes a partial record, then invalidates its partition list
func (c *CachedTable[T]) Merge(ctx context.Context, record T, columns ...string) error {
	err := c.base.Merge(ctx, record, columns...)
	if writeMayHaveLanded(err) {
		c.Invalidate(ctx, record.GetPartitionKey())
	}
	return err
}

// Delete removes a record, then invalidates its partition list
func (c *CachedTable[T]) Delete(ctx context.Context, partitionKey, rowKey string) error {
	err := c.base.Delete(ctx, partitionKey, rowKey)
	if writeMayHaveLanded(err) {
		c.Invalidate(ctx, partitionKey)
	}
	return err
}

// Invalidate removes the cached list of a partition. It runs even if ctx is
// already cancelled and never fails the caller, errors are only logged.
func (c *CachedTable[T]) Invalidate(ctx context.Context, partitionKey string) {
	key := c.Key(partitionKey)
	ctx = context.WithoutCancel(ctx)
	if err := c.cache.Remove(ctx, key); err != nil {
		attrs := append([]slog.Attr{slog.String("key", key)}, goerrors.ToSlogAttributes(err)...)
		c.opts.logger.LogAttrs(ctx, slog.LevelWarn, "cache invalidation failed", attrs...)
	}
}

// writeMayHaveLanded is true for successful writes and for writes whose
// outcome is unknown because the context ended while the store call was in
// flight.
func writeMayHaveLanded(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
