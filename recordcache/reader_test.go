package recordcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-collections/cache"
	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/invalidate"
	"github.com/goliatone/go-collections/schema"
)

type countingFinder struct {
	mu    sync.Mutex
	rows  map[string]map[string]any
	calls map[string]int
	err   error
}

func newCountingFinder() *countingFinder {
	return &countingFinder{rows: map[string]map[string]any{}, calls: map[string]int{}}
}

func (f *countingFinder) Find(_ context.Context, collection string, id any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := collection + "/" + fmt.Sprint(id)
	f.calls[k]++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[k], nil
}

func (f *countingFinder) count(k string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[k]
}

type recordingCache struct {
	cache.TaggedCache
	tagged map[string][]string
}

func (c *recordingCache) Tag(ctx context.Context, key string, tags ...string) error {
	if c.tagged == nil {
		c.tagged = map[string][]string{}
	}
	c.tagged[key] = append(c.tagged[key], tags...)
	return c.TaggedCache.Tag(ctx, key, tags...)
}

type nopSchema struct{}

func (nopSchema) Collection(_ context.Context, name string, _ bool) (*schema.Collection, error) {
	return schema.NewCollection(name), nil
}

func (nopSchema) SystemCollection(name string) string { return "directus_" + name }

func newTaggedCache(t *testing.T) cache.TaggedCache {
	t.Helper()
	tc, err := cache.NewTaggedCache(cache.DefaultConfig(), nil)
	require.NoError(t, err)
	return tc
}

func TestReader_CachesFind(t *testing.T) {
	base := newCountingFinder()
	base.rows["articles/42"] = map[string]any{"id": int64(42), "title": "Hello"}
	r := New(base, newTaggedCache(t), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		row, err := r.Find(ctx, "articles", 42)
		require.NoError(t, err)
		assert.Equal(t, "Hello", row["title"])
	}
	assert.Equal(t, 1, base.count("articles/42"))
}

func TestReader_MissingRow(t *testing.T) {
	base := newCountingFinder()
	r := New(base, newTaggedCache(t), nil)

	ctx := context.Background()

	row, err := r.Find(ctx, "articles", 404)
	require.NoError(t, err)
	assert.Nil(t, row)

	base.mu.Lock()
	base.rows["articles/404"] = map[string]any{"id": int64(404)}
	base.mu.Unlock()

	row, err = r.Find(ctx, "articles", 404)
	require.NoError(t, err)
	assert.Equal(t, int64(404), row["id"])
	assert.Equal(t, 2, base.count("articles/404"))
}

func TestReader_ErrorsAreNotCached(t *testing.T) {
	base := newCountingFinder()
	base.err = errors.New("db down")
	r := New(base, newTaggedCache(t), nil)
	ctx := context.Background()

	_, err := r.Find(ctx, "articles", 1)
	require.Error(t, err)
	_, err = r.Find(ctx, "articles", 1)
	require.Error(t, err)
	assert.Equal(t, 2, base.count("articles/1"))
}

func TestReader_RegistersTags(t *testing.T) {
	tc := &recordingCache{TaggedCache: newTaggedCache(t)}
	base := newCountingFinder()
	base.rows["articles/42"] = map[string]any{"id": int64(42)}
	r := New(base, tc, cache.NewKeySerializer("app"))

	ctx := WithCacheTags(context.Background(), invalidate.PermissionsTag("articles", 3), "table_articles")
	_, err := r.Find(ctx, "articles", 42)
	require.NoError(t, err)

	tags := []string{
		"entity_articles_42",
		"table_articles",
		"permissions_collection_articles_group_3",
	}
	assert.Equal(t, append(append([]string{}, tags...), tags...), tc.tagged["app::Find::articles::42"])

	_, err = r.Find(ctx, "articles", 42)
	require.NoError(t, err)
	assert.Len(t, tc.tagged["app::Find::articles::42"], 2*len(tags))

	_, err = r.Find(ctx, "articles", 404)
	require.NoError(t, err)
	assert.Empty(t, tc.tagged["app::Find::articles::404"])
}

func TestReader_InvalidatedByLifecycleEvents(t *testing.T) {
	base := newCountingFinder()
	base.rows["articles/42"] = map[string]any{"id": int64(42)}
	base.rows["articles/7"] = map[string]any{"id": int64(7)}
	tc := newTaggedCache(t)
	r := New(base, tc, nil)

	e := hook.NewEmitter()
	invalidate.New(tc, nopSchema{}, base).Register(e)
	ctx := context.Background()

	read := func(id int) {
		t.Helper()
		_, err := r.Find(ctx, "articles", id)
		require.NoError(t, err)
	}

	read(42)
	read(7)

	p := hook.NewPayload(map[string]any{"title": "x"}).WithAttribute(hook.AttrIDs, []any{42})
	_, err := e.Dispatch(ctx, hook.EventUpdate, "articles", p, nil)
	require.NoError(t, err)

	read(42)
	read(7)
	assert.Equal(t, 2, base.count("articles/42"))
	assert.Equal(t, 1, base.count("articles/7"))

	drop := hook.NewPayload(nil).WithAttribute(hook.AttrCollection, "articles")
	_, err = e.Run(ctx, hook.After(hook.EventTableDrop), drop)
	require.NoError(t, err)

	read(42)
	read(7)
	assert.Equal(t, 3, base.count("articles/42"))
	assert.Equal(t, 2, base.count("articles/7"))
}

func TestReader_TableDropEvictsUntaggedEntries(t *testing.T) {
	base := newCountingFinder()
	base.rows["articles/1"] = map[string]any{"id": int64(1)}
	base.rows["articles_archive/1"] = map[string]any{"id": int64(1)}
	tc := newTaggedCache(t)
	r := New(base, tc, nil)
	e := hook.NewEmitter()
	r.Register(e)
	ctx := context.Background()

	for _, c := range []string{"articles", "articles_archive"} {
		_, err := r.Find(ctx, c, 1)
		require.NoError(t, err)
	}
	stale, err := cache.GetOrFetch(ctx, tc, "Find::articles::2", func(ctx context.Context) (map[string]any, error) {
		return map[string]any{"id": int64(2), "title": "untagged"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "untagged", stale["title"])

	drop := hook.NewPayload(nil).WithAttribute(hook.AttrCollection, "articles")
	_, err = e.Run(ctx, hook.After(hook.EventTableDrop), drop)
	require.NoError(t, err)

	_, err = r.Find(ctx, "articles", 1)
	require.NoError(t, err)
	_, err = r.Find(ctx, "articles_archive", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, base.count("articles/1"))
	assert.Equal(t, 1, base.count("articles_archive/1"))

	row, err := r.Find(ctx, "articles", 2)
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.Equal(t, 1, base.count("articles/2"))
}

func TestReader_EvictCollectionWithoutPrefixSupport(t *testing.T) {
	r := New(newCountingFinder(), tagOnlyCache{}, nil)
	assert.NoError(t, r.EvictCollection(context.Background(), "articles"))
}

type tagOnlyCache struct{}

func (tagOnlyCache) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	return nil, nil
}

func (tagOnlyCache) Delete(ctx context.Context, key string) error { return nil }

func (tagOnlyCache) InvalidateTags(ctx context.Context, tags []string) error { return nil }

func (tagOnlyCache) Tag(ctx context.Context, key string, tags ...string) error { return nil }

func TestWithCacheTags(t *testing.T) {
	ctx := WithCacheTags(context.Background())
	assert.Nil(t, cacheTagsFromContext(ctx))

	ctx = WithCacheTags(ctx, "a", "", "b", "a")
	ctx = WithCacheTags(ctx, "b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, cacheTagsFromContext(ctx))
}
