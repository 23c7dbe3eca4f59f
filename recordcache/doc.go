// Package recordcache caches single record reads under invalidation tags.
//
// # Overview
//
// Reader wraps a record finder and caches Find. Every cached read is
// registered under the entity tag of the record and the table tag of its
// collection, so the invalidate package can drop it when the record is
// updated or deleted, or when the table is altered or dropped.
//
// Only raw store rows are cached. The event pipeline runs on every read, so
// per caller redaction never ends up in the cache. Callers must treat
// returned rows as read-only.
//
// Missing rows are not cached, so a later insert is visible at once. List
// reads are not cached: inserts invalidate no tag and would leave them stale.
//
// Register subscribes the reader to table drops, which delete every cached
// read of the table by key prefix.
//
// # Basic Usage
//
//	tc, _ := cache.NewTaggedCache(cache.DefaultConfig(), logger)
//	reader := recordcache.New(store, tc, cache.NewDefaultKeySerializer())
//	row, err := reader.Find(ctx, "articles", 42)
//
// Extra tags can be attached per call:
//
//	ctx = recordcache.WithCacheTags(ctx, invalidate.PermissionsTag("articles", 3))
package recordcache
