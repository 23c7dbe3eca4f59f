package di

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/goliatone/go-collections/cache"
	"github.com/goliatone/go-collections/config"
	"github.com/goliatone/go-collections/ddl"
	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/internal/hash"
	"github.com/goliatone/go-collections/internal/logger"
	"github.com/goliatone/go-collections/internal/metrics"
	"github.com/goliatone/go-collections/invalidate"
	"github.com/goliatone/go-collections/lifecycle"
	"github.com/goliatone/go-collections/recordcache"
	"github.com/goliatone/go-collections/records"
	"github.com/goliatone/go-collections/schema"
	"github.com/goliatone/go-collections/source/bunsource"
)

// Container wires the collections engine together: database, schema
// manager, DDL factory, event pipeline, tagged cache and record service.
// Every component is built once by NewContainer and shared afterwards.
type Container struct {
	cfg    config.Config
	logger *zap.Logger

	db            *bun.DB
	ownsDB        bool
	source        *bunsource.Source
	schema        *schema.Manager
	emitter       *hook.Emitter
	factory       *ddl.Factory
	cache         cache.TaggedCache
	keySerializer cache.KeySerializer
	store         *records.Store
	reader        *recordcache.Reader
	lifecycle     *lifecycle.Handlers
	invalidator   *invalidate.Invalidator
	records       *records.Service
}

type options struct {
	logger     *zap.Logger
	db         *bun.DB
	hasher     lifecycle.Hasher
	registerer prometheus.Registerer
}

// Option customizes NewContainer.
type Option func(*options)

// WithLogger overrides the logger built from the logging section.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDB uses db instead of opening the configured database. The caller
// keeps ownership of db.
func WithDB(db *bun.DB) Option {
	return func(o *options) { o.db = db }
}

// WithHasher overrides the bcrypt password hasher.
func WithHasher(h lifecycle.Hasher) Option {
	return func(o *options) { o.hasher = h }
}

// WithRegisterer registers the engine metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// NewContainer builds every component described by cfg.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{cfg: cfg, logger: o.logger}
	if c.logger == nil {
		l, err := logger.New(cfg.Logging.Env, cfg.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		c.logger = l
	}

	if o.registerer != nil {
		if err := metrics.Register(o.registerer); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	c.db = o.db
	if c.db == nil {
		db, err := bunsource.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		c.db = db
		c.ownsDB = true
	}

	if err := c.build(ctx, o); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// NewContainerWithDefaults builds a container over the default
// configuration: in-memory sqlite and the memory cache.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return NewContainer(ctx, config.Default(), opts...)
}

func (c *Container) build(ctx context.Context, o options) error {
	srcOpts := []bunsource.Option{
		bunsource.WithPrefix(c.cfg.System.CollectionPrefix),
		bunsource.WithLogger(c.logger),
	}
	if c.cfg.Database.Schema != "" {
		srcOpts = append(srcOpts, bunsource.WithSchema(c.cfg.Database.Schema))
	}
	src, err := bunsource.New(ctx, c.db, srcOpts...)
	if err != nil {
		return fmt.Errorf("open schema source: %w", err)
	}
	c.source = src

	c.schema = schema.NewManager(src,
		schema.WithSystemPrefix(c.cfg.System.CollectionPrefix),
		schema.WithLogger(c.logger),
	)
	c.emitter = hook.NewEmitter(hook.WithLogger(c.logger))
	c.factory = ddl.NewFactory(c.schema, ddl.WithEmitter(c.emitter), ddl.WithLogger(c.logger))

	tc, err := cache.NewTaggedCache(c.cfg.CacheConfig(), c.logger)
	if err != nil {
		return fmt.Errorf("build cache: %w", err)
	}
	c.cache = tc
	c.keySerializer = cache.NewKeySerializer("records")

	c.store = records.NewStore(c.db, c.schema)
	c.reader = recordcache.New(c.store, c.cache, c.keySerializer, recordcache.WithLogger(c.logger))

	hasher := o.hasher
	if hasher == nil {
		hasher = hash.NewBcrypt(0)
	}
	c.lifecycle = lifecycle.New(c.schema, c.store, hasher, c.cfg.LifecycleConfig(), lifecycle.WithLogger(c.logger))
	c.lifecycle.Register(c.emitter)

	c.invalidator = invalidate.New(c.cache, c.schema, c.store, invalidate.WithLogger(c.logger))
	c.invalidator.Register(c.emitter)
	c.reader.Register(c.emitter)

	c.records = records.NewService(c.store, c.emitter,
		records.WithReader(c.reader),
		records.WithLogger(c.logger),
	)
	return nil
}

// Close releases the database pool when the container opened it and the
// redis client when that backend is in use.
func (c *Container) Close() error {
	if closer, ok := c.cache.(interface{ Close() }); ok {
		closer.Close()
	}
	if c.ownsDB && c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() config.Config { return c.cfg }

// Logger returns the root logger.
func (c *Container) Logger() *zap.Logger { return c.logger }

// DB returns the bun database.
func (c *Container) DB() *bun.DB { return c.db }

// Source returns the schema source backed by the database.
func (c *Container) Source() *bunsource.Source { return c.source }

// Schema returns the schema manager.
func (c *Container) Schema() *schema.Manager { return c.schema }

// Emitter returns the event pipeline.
func (c *Container) Emitter() *hook.Emitter { return c.emitter }

// Factory returns the DDL factory.
func (c *Container) Factory() *ddl.Factory { return c.factory }

// Cache returns the tagged cache.
func (c *Container) Cache() cache.TaggedCache { return c.cache }

// KeySerializer returns the key serializer of cached reads.
func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }

// Store returns the direct record store. Writes made through it bypass
// the pipeline.
func (c *Container) Store() *records.Store { return c.store }

// Records returns the record service.
func (c *Container) Records() *records.Service { return c.records }
