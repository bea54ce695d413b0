package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/goliatone/go-hackathon-store/internal/cacheinfra"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Capacity           int                 `yaml:"capacity"`
	NumShards          int                 `yaml:"num_shards"`
	TTL                time.Duration       `yaml:"ttl"`
	EvictionPercentage int                 `yaml:"eviction_percentage"`
	EarlyRefresh       *EarlyRefreshConfig `yaml:"early_refresh"`
	EvictionInterval   time.Duration       `yaml:"eviction_interval"`
}

// EarlyRefreshConfig places the background refresh window of auto refreshed
// entries, as fractions of the entry TTL.
type EarlyRefreshConfig struct {
	MinAsyncRefresh float64       `yaml:"min_async"`
	MaxAsyncRefresh float64       `yaml:"max_async"`
	RetryBaseDelay  time.Duration `yaml:"retry_base_delay"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewCacheService constructs the default cache service implementation using the provided configuration.
func NewCacheService(cfg Config, logger *slog.Logger) (CacheService, error) {
	svc, err := cacheinfra.NewSturdycService(cfg.toInternal(), logger)
	if err != nil {
		return nil, err
	}
	return &sturdycCache{svc: svc}, nil
}

// sturdycCache adapts the sturdyc service to CacheService.
type sturdycCache struct {
	svc *cacheinfra.SturdycService
}

func (c *sturdycCache) GetOrAdd(ctx context.Context, entry Entry) (any, error) {
	var fetch cacheinfra.FetchFn
	if entry.Fetch != nil {
		fetch = cacheinfra.FetchFn(entry.Fetch)
	}
	return c.svc.GetOrAdd(ctx, entry.Key, entry.TTL, entry.AutoRefresh, fetch)
}

func (c *sturdycCache) Remove(ctx context.Context, key string) error {
	return c.svc.Remove(ctx, key)
}

// Keys lists the keys currently cached.
func (c *sturdycCache) Keys() []string {
	return c.svc.Keys()
}

func (c Config) toInternal() cacheinfra.Config {
	var early *cacheinfra.EarlyRefreshConfig
	if c.EarlyRefresh != nil {
		early = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefresh: c.EarlyRefresh.MinAsyncRefresh,
			MaxAsyncRefresh: c.EarlyRefresh.MaxAsyncRefresh,
			RetryBaseDelay:  c.EarlyRefresh.RetryBaseDelay,
		}
	}

	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EarlyRefresh:       early,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	var early *EarlyRefreshConfig
	if cfg.EarlyRefresh != nil {
		early = &EarlyRefreshConfig{
			MinAsyncRefresh: cfg.EarlyRefresh.MinAsyncRefresh,
			MaxAsyncRefresh: cfg.EarlyRefresh.MaxAsyncRefresh,
			RetryBaseDelay:  cfg.EarlyRefresh.RetryBaseDelay,
		}
	}

	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EarlyRefresh:       early,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
