// Package cache provides the caching contracts used by cached record reads
// and by tag invalidation.
//
// # Overview
//
//   - CacheService: read-through operations keyed by string
//   - TagInvalidator: the sink the invalidator writes tags to
//   - TaggedCache: a CacheService whose entries are grouped under tags
//   - KeySerializer: builds stable cache keys from a method name and arguments
//
// Two backends implement TaggedCache. The memory backend keeps values in
// sturdyc and tags in an in-process index. The redis backend keeps values as
// msgpack and every tag as a Redis set, so invalidations reach every process
// sharing the instance. Values read back from Redis are decoded into the
// result type of the fetch function with int64, float64 and []byte values
// intact. Both backends implement PrefixDeleter.
//
// # Basic Usage
//
//	tc, err := cache.NewTaggedCache(cache.DefaultConfig(), logger)
//	key := cache.NewDefaultKeySerializer().SerializeKey("Find", "articles", 42)
//	row, err := cache.GetOrFetchTagged(ctx, tc, key,
//		[]string{"entity_articles_42", "table_articles"},
//		func(ctx context.Context) (map[string]any, error) {
//			return store.Find(ctx, "articles", 42)
//		})
//
// A later tc.InvalidateTags(ctx, []string{"entity_articles_42"}) drops the
// entry and the next read fetches again.
//
// # Keys
//
// The default serializer joins the method and one segment per argument with
// KeySeparator. Map arguments are written with sorted keys. Values without a
// natural text form fall back to JSON.
package cache
