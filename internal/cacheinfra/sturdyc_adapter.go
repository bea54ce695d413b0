package cacheinfra

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc cache adapter.
type Config struct {
	// Capacity defines the maximum number of entries each TTL profile can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Higher values improve concurrency but increase memory overhead.
	// Must be greater than 0. Default: 256
	NumShards int

	// TTL applies to entries that do not set their own.
	// Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	// Default: 10 (evict 10% of entries)
	EvictionPercentage int

	// EarlyRefresh places the refresh window of auto refreshed entries as
	// fractions of their TTL. If nil, DefaultEarlyRefresh is used.
	EarlyRefresh *EarlyRefreshConfig

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig configures when auto refreshed entries are reloaded.
// A read after MinAsyncRefresh*TTL (jittered up to MaxAsyncRefresh*TTL)
// triggers a background refresh and still returns the cached value. Reads
// never wait on a refresh: the synchronous threshold is pinned to the TTL,
// so an entry expires before sturdyc would refresh it inline.
type EarlyRefreshConfig struct {
	MinAsyncRefresh float64
	MaxAsyncRefresh float64

	// RetryBaseDelay is the base delay for retry attempts when early refresh fails
	RetryBaseDelay time.Duration
}

// DefaultEarlyRefresh refreshes during the trailing quarter of the TTL.
func DefaultEarlyRefresh() *EarlyRefreshConfig {
	return &EarlyRefreshConfig{
		MinAsyncRefresh: 0.75,
		MaxAsyncRefresh: 0.90,
		RetryBaseDelay:  100 * time.Millisecond,
	}
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh:       DefaultEarlyRefresh(),
		EvictionInterval:   0, // Use default
	}
}

// ToSturdycOptions converts the Config to sturdyc options for one entry profile.
// Capacity, NumShards, TTL, and EvictionPercentage are passed directly
// to sturdyc.New() and are not included in the options.
func (c Config) ToSturdycOptions(ttl time.Duration, autoRefresh bool) []sturdyc.Option {
	var options []sturdyc.Option

	if autoRefresh {
		early := c.EarlyRefresh
		if early == nil {
			early = DefaultEarlyRefresh()
		}
		options = append(options, sturdyc.WithEarlyRefreshes(
			fraction(ttl, early.MinAsyncRefresh),
			fraction(ttl, early.MaxAsyncRefresh),
			ttl,
			early.RetryBaseDelay,
		))
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

func fraction(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}

// Validate checks if the configuration values are valid.
// Returns an error if any configuration parameter is invalid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if e := c.EarlyRefresh; e != nil {
		if e.MinAsyncRefresh <= 0 || e.MinAsyncRefresh > e.MaxAsyncRefresh {
			return &ConfigError{Field: "EarlyRefresh.MinAsyncRefresh", Message: "must be in (0, MaxAsyncRefresh]"}
		}
		if e.MaxAsyncRefresh >= 1 {
			return &ConfigError{Field: "EarlyRefresh.MaxAsyncRefresh", Message: "must be below 1"}
		}
		if e.RetryBaseDelay < 0 {
			return &ConfigError{Field: "EarlyRefresh.RetryBaseDelay", Message: "must be non-negative"}
		}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// profile groups entries that share a sturdyc client. sturdyc applies one TTL
// and one refresh policy per client.
type profile struct {
	ttl         time.Duration
	autoRefresh bool
}

// FetchFn produces the value of a missing or expired entry.
type FetchFn func(ctx context.Context) (any, error)

// SturdycService is a read-through cache on top of sturdyc clients, one per
// entry profile.
type SturdycService struct {
	cfg     Config
	clients *xsync.MapOf[profile, *sturdyc.Client[any]]
	logger  *slog.Logger
}

// NewSturdycService creates a new sturdyc cache service adapter.
// It validates the configuration, clients are created lazily per profile.
//
// Missing record storage is never enabled: a failed fetch must leave no
// entry behind.
func NewSturdycService(cfg Config, logger *slog.Logger) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SturdycService{
		cfg:     cfg,
		clients: xsync.NewMapOf[profile, *sturdyc.Client[any]](),
		logger:  logger,
	}, nil
}

func (s *SturdycService) client(p profile) *sturdyc.Client[any] {
	client, _ := s.clients.LoadOrCompute(p, func() *sturdyc.Client[any] {
		s.logger.Debug("creating cache client",
			"ttl", p.ttl,
			"autoRefresh", p.autoRefresh,
		)
		return sturdyc.New[any](
			s.cfg.Capacity,
			s.cfg.NumShards,
			p.ttl,
			s.cfg.EvictionPercentage,
			s.cfg.ToSturdycOptions(p.ttl, p.autoRefresh)...,
		)
	})
	return client
}

// GetOrAdd returns the cached value of key or fills it with fetchFn.
// Concurrent calls for the same key share one in-flight fetch. Fetch errors
// are returned to every waiter and nothing is stored. A non-positive ttl
// uses the configured default.
func (s *SturdycService) GetOrAdd(ctx context.Context, key string, ttl time.Duration, autoRefresh bool, fetchFn FetchFn) (any, error) {
	if key == "" {
		return nil, goerrors.New("cache: entry key is required", goerrors.CategoryBadInput)
	}
	if fetchFn == nil {
		return nil, goerrors.New("cache: entry fetch function is required", goerrors.CategoryBadInput)
	}
	if ttl <= 0 {
		ttl = s.cfg.TTL
	}

	client := s.client(profile{ttl: ttl, autoRefresh: autoRefresh})
	value, err := client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	return s.failOpen(ctx, key, value, err)
}

// failOpen serves the cached value when sturdyc could not refresh it but
// still holds a live entry.
func (s *SturdycService) failOpen(ctx context.Context, key string, value any, err error) (any, error) {
	if err == nil || value == nil || !errors.Is(err, sturdyc.ErrOnlyCachedRecords) {
		return value, err
	}
	s.logger.WarnContext(ctx, "cache refresh failed, serving cached value",
		"key", key,
		"error", err,
	)
	return value, nil
}

// Remove evicts key immediately.
// The key is evicted from every profile, callers do not need to remember
// which TTL an entry was filled with.
func (s *SturdycService) Remove(ctx context.Context, key string) error {
	s.clients.Range(func(_ profile, client *sturdyc.Client[any]) bool {
		client.Delete(key)
		return true
	})
	return nil
}

// Keys lists the cached keys across every profile.
func (s *SturdycService) Keys() []string {
	var keys []string
	s.clients.Range(func(_ profile, client *sturdyc.Client[any]) bool {
		keys = append(keys, client.ScanKeys()...)
		return true
	})
	return keys
}
