//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

// Package cache provides the read-through cache shared by the management
// services, and the key serializer used to name its entries.
//
// # Overview
//
// This package exports two main interfaces and their default implementations:
//
//   - CacheService: read-through GetOrAdd plus explicit Remove
//   - KeySerializer: builds stable keys such as "Enrollment-hack"
//
// A cache service is created once per process and passed to every component
// that needs it. Tests substitute it with a fake or a gomock mock.
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig(), logger)
//	key := cache.NewDefaultKeySerializer().SerializeKey(cache.KindEnrollment, "hack")
//	list, err := cache.GetOrAdd(ctx, svc, key, 4*time.Hour, true, func(ctx context.Context) ([]model.Enrollment, error) {
//		return table.ListPartition(ctx, "hack")
//	})
//
// # Entry Semantics
//
//   - A valid entry is returned without calling the producer.
//   - A missing or expired entry calls the producer once, concurrent callers
//     of the same key wait on that single call.
//   - Producer errors are returned and never cached.
//   - TTL is a fixed window from the last fill, reads do not extend it.
//   - AutoRefresh entries are reloaded in the background during the trailing
//     part of their TTL. A failed refresh keeps the current value.
//   - Remove evicts unconditionally. A fill already in flight when Remove runs
//     may store its result afterwards, writers invalidate after every
//     successful mutation so this window closes on the next write or expiry.
//
// # Key Serialization
//
// Scalars are written verbatim and joined with KeySeparator. Composite values
// (structs, slices, maps) are encoded with msgpack, map keys sorted, and
// replaced by their xxhash digest. Function and channel values are formatted
// with %p and are only stable within one process.
package cache
