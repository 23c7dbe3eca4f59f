package recordcache

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goliatone/go-collections/cache"
	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/internal/logger"
	"github.com/goliatone/go-collections/invalidate"
)

// Finder reads a single row. A missing row is nil with a nil error.
type Finder interface {
	Find(ctx context.Context, collection string, id any) (map[string]any, error)
}

// errMissingRow keeps a missing row out of the cache.
var errMissingRow = errors.New("recordcache: row not found")

// Reader decorates a Finder with a tagged read-through cache.
type Reader struct {
	base          Finder
	cache         cache.TaggedCache
	keySerializer cache.KeySerializer
	logger        *zap.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the fallback logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Reader over base.
func New(base Finder, tc cache.TaggedCache, keySerializer cache.KeySerializer, opts ...Option) *Reader {
	if keySerializer == nil {
		keySerializer = cache.NewDefaultKeySerializer()
	}
	r := &Reader{base: base, cache: tc, keySerializer: keySerializer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register drops every cached read of a table once the table is dropped.
func (r *Reader) Register(e *hook.Emitter) {
	e.AddAction(hook.After(hook.EventTableDrop), r.tableDropped, hook.WithName("recordcache.evict_table"))
}

// EvictCollection deletes every cached read of collection, tagged or not.
// Backends that cannot delete by prefix are left to tag invalidation.
func (r *Reader) EvictCollection(ctx context.Context, collection string) error {
	pd, ok := r.cache.(cache.PrefixDeleter)
	if !ok {
		return nil
	}
	return pd.DeleteByPrefix(ctx, r.keySerializer.SerializeKey("Find", collection)+cache.KeySeparator)
}

func (r *Reader) tableDropped(ctx context.Context, p *hook.Payload) error {
	c := p.Collection()
	if c == "" {
		return nil
	}
	if err := r.EvictCollection(ctx, c); err != nil {
		logger.FromContext(ctx, r.logger).Error("evict dropped table", zap.String("collection", c), zap.Error(err))
	}
	return nil
}

// Find returns the row of collection identified by id, from the cache when
// present. Missing rows are not cached.
func (r *Reader) Find(ctx context.Context, collection string, id any) (map[string]any, error) {
	key := r.keySerializer.SerializeKey("Find", collection, id)
	row, err := cache.GetOrFetchTagged(ctx, r.cache, key, r.tags(ctx, collection, id), func(ctx context.Context) (map[string]any, error) {
		row, err := r.base.Find(ctx, collection, id)
		if err == nil && row == nil {
			return nil, errMissingRow
		}
		return row, err
	})
	if errors.Is(err, errMissingRow) {
		return nil, nil
	}
	return row, err
}

func (r *Reader) tags(ctx context.Context, collection string, id any) []string {
	tags := []string{
		invalidate.EntityTag(collection, id),
		invalidate.TableTag(collection),
	}
	return dedupeTags(append(tags, cacheTagsFromContext(ctx)...))
}
