// Package repositorycache decorates a storage.Table with a per-partition list
// cache.
//
// # Overview
//
// Management services page small partitions (the works of one team, the
// admins of one hackathon) in memory. CachedTable keeps the full list of each
// partition in the shared cache.CacheService so repeated list calls do not hit
// the backing store.
//
// # Basic Usage
//
//	base := storage.NewMemTable[model.TeamWork]()
//	works := repositorycache.New[model.TeamWork](base, cacheService, cache.NewDefaultKeySerializer(), cache.KindTeamWork)
//
//	list, err := works.ListPartition(ctx, "team-1") // cached under "TeamWork-team-1"
//
// # Cached vs Pass-through Operations
//
// Cached:
//   - ListPartition, with DefaultTTL and background refresh unless configured
//     otherwise through WithTTL and WithAutoRefresh
//
// Pass-through:
//   - Retrieve (point reads always hit the store)
//   - QueryPaged (native store pagination)
//
// # Invalidation
//
// Insert, Merge and Delete remove the cached list of the record's partition
// after the base write returns. The invalidation also runs when the write
// failed with a context error, since the store may have accepted it before
// the caller gave up, and it uses a context detached from cancellation. A
// failed invalidation is logged and never returned: the store write already
// happened and is the source of truth.
package repositorycache
