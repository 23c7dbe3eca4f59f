package invalidate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-collections/cache"
	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/internal/logger"
	"github.com/goliatone/go-collections/internal/metrics"
	"github.com/goliatone/go-collections/schema"
)

// SchemaReader resolves primary keys and system collection names.
type SchemaReader interface {
	Collection(ctx context.Context, name string, skipCache bool) (*schema.Collection, error)
	SystemCollection(name string) string
}

// RecordFinder reads a single row. A missing row is nil with a nil error.
type RecordFinder interface {
	Find(ctx context.Context, collection string, id any) (map[string]any, error)
}

// Invalidator turns after-phase events into tag invalidations.
type Invalidator struct {
	cache       cache.TagInvalidator
	schema      SchemaReader
	records     RecordFinder
	logger      *zap.Logger
	permissions string
}

// Option configures an Invalidator.
type Option func(*Invalidator)

// WithLogger sets the fallback logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Invalidator) {
		if l != nil {
			i.logger = l
		}
	}
}

// New builds an Invalidator writing to sink.
func New(sink cache.TagInvalidator, reader SchemaReader, records RecordFinder, opts ...Option) *Invalidator {
	i := &Invalidator{
		cache:       sink,
		schema:      reader,
		records:     records,
		logger:      zap.NewNop(),
		permissions: reader.SystemCollection("permissions"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Register subscribes the invalidator to e.
func (i *Invalidator) Register(e *hook.Emitter) {
	e.AddAction(hook.After(hook.EventUpdate), i.entityUpdated, hook.WithName("invalidate.entity_update"))
	e.AddAction(hook.After(hook.EventDelete), i.entitiesDeleted, hook.WithName("invalidate.entity_delete"))
	e.AddAction(hook.After(hook.EventTableAlter), i.tableChanged, hook.WithName("invalidate.table_alter"))
	e.AddAction(hook.After(hook.EventTableDrop), i.tableChanged, hook.WithName("invalidate.table_drop"))
	e.AddAction(hook.After(hook.For(hook.EventUpdate, i.permissions)), i.permissionUpdated, hook.WithName("invalidate.permissions"))
}

func (i *Invalidator) entityUpdated(ctx context.Context, p *hook.Payload) error {
	c := p.Collection()
	ids := i.targetIDs(ctx, p)
	tags := make([]string, 0, len(ids))
	for _, id := range ids {
		tags = append(tags, EntityTag(c, id))
	}
	i.invalidate(ctx, KindEntity, tags)
	return nil
}

func (i *Invalidator) entitiesDeleted(ctx context.Context, p *hook.Payload) error {
	c := p.Collection()
	ids := p.IDs()
	tags := make([]string, 0, len(ids))
	for _, id := range ids {
		tags = append(tags, EntityTag(c, id))
	}
	i.invalidate(ctx, KindEntity, tags)
	return nil
}

func (i *Invalidator) tableChanged(ctx context.Context, p *hook.Payload) error {
	if c := p.Collection(); c != "" {
		i.invalidate(ctx, KindTable, []string{TableTag(c)})
	}
	return nil
}

// permissionUpdated reads the updated rows back to learn which collection
// and group they govern.
func (i *Invalidator) permissionUpdated(ctx context.Context, p *hook.Payload) error {
	log := logger.FromContext(ctx, i.logger)
	var tags []string
	for _, id := range i.targetIDs(ctx, p) {
		row, err := i.records.Find(ctx, i.permissions, id)
		if err != nil {
			log.Error("read permission row", zap.Any("id", id), zap.Error(err))
			continue
		}
		if row == nil {
			continue
		}
		tags = append(tags, PermissionsTag(fmt.Sprint(row["collection"]), row["group"]))
	}
	i.invalidate(ctx, KindPermissions, tags)
	return nil
}

// targetIDs returns the ids attribute, or the primary key value held by the
// payload when the attribute is missing.
func (i *Invalidator) targetIDs(ctx context.Context, p *hook.Payload) []any {
	if ids := p.IDs(); len(ids) > 0 {
		return ids
	}
	pk := "id"
	if c, err := i.schema.Collection(ctx, p.Collection(), false); err == nil {
		pk = c.PrimaryKeyName()
	}
	if v, ok := p.Get(pk); ok && v != nil {
		return []any{v}
	}
	return nil
}

func (i *Invalidator) invalidate(ctx context.Context, kind string, tags []string) {
	if len(tags) == 0 {
		return
	}
	log := logger.FromContext(ctx, i.logger)
	if err := i.cache.InvalidateTags(ctx, tags); err != nil {
		log.Error("cache invalidation failed", zap.String("kind", kind), zap.Strings("tags", tags), zap.Error(err))
		return
	}
	metrics.ObserveInvalidation(kind, len(tags))
	log.Debug("cache tags invalidated", zap.String("kind", kind), zap.Strings("tags", tags))
}
