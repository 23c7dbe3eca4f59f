package cache

import (
	"context"
	"errors"
)

// ErrInvalidResultType is returned when a cached value does not hold the type
// requested by the caller.
var ErrInvalidResultType = errors.New("cache: cached value has an unexpected type")

// KeySerializer builds a cache key from a method name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn is the function signature CacheService expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through caching operations used by cached readers.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)
	Delete(ctx context.Context, key string) error
}

// TagInvalidator drops every entry registered under any of the given tags.
// Implementations must be safe for concurrent use.
type TagInvalidator interface {
	InvalidateTags(ctx context.Context, tags []string) error
}

// PrefixDeleter removes every entry whose key starts with prefix.
type PrefixDeleter interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// TaggedCache is a CacheService whose entries can be grouped under tags and
// evicted by tag.
type TaggedCache interface {
	CacheService
	TagInvalidator

	// Tag registers key under every tag. Tagging a key that is not cached yet
	// is allowed.
	Tag(ctx context.Context, key string, tags ...string) error
}

// GetOrFetch is a type-safe wrapper function that provides generic support for CacheService.
// A nil cached value yields the zero value of T.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T
	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	v, ok := result.(T)
	if !ok {
		return zero, ErrInvalidResultType
	}
	return v, nil
}

// GetOrFetchTagged reads through the cache and registers key under tags
// whenever fetchFn runs. Tags are written once the fetch succeeds and again
// after the value is stored, so an invalidation racing the write either
// removes the entry or finds it tagged.
func GetOrFetchTagged[T any](ctx context.Context, service TaggedCache, key string, tags []string, fetchFn FetchFn[T]) (T, error) {
	if len(tags) == 0 {
		return GetOrFetch(ctx, service, key, fetchFn)
	}

	fetched := false
	v, err := GetOrFetch(ctx, service, key, FetchFn[T](func(ctx context.Context) (T, error) {
		v, err := fetchFn(ctx)
		if err != nil {
			return v, err
		}
		fetched = true
		if err := service.Tag(ctx, key, tags...); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	}))
	if err != nil || !fetched {
		return v, err
	}
	if err := service.Tag(ctx, key, tags...); err != nil {
		_ = service.Delete(ctx, key)
		var zero T
		return zero, err
	}
	return v, nil
}
