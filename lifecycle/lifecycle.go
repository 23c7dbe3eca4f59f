package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-collections/acl"
	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/schema"
)

// SchemaReader is the slice of the schema manager the handlers read.
type SchemaReader interface {
	Collection(ctx context.Context, name string, skipCache bool) (*schema.Collection, error)
	IsSystemCollection(name string) bool
	SystemCollection(name string) string
}

// RecordStore is the direct record access the handlers need for lookups
// and provisioning. Find returns a nil row without error when id does not
// exist. Calls made through it do not go through the pipeline.
type RecordStore interface {
	Find(ctx context.Context, collection string, id any) (map[string]any, error)
	FindMany(ctx context.Context, collection, column string, values []any) ([]map[string]any, error)
	Insert(ctx context.Context, collection string, data map[string]any) (map[string]any, error)
}

// Hasher hashes password values before storage.
type Hasher interface {
	Hash(plain string) (string, error)
}

// Config holds the settings the handlers read.
type Config struct {
	FilesRootURL string
	ThumbRootURL string
	AdminGroupID int64
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{AdminGroupID: 1}
}

// Handlers is the catalog of record lifecycle filters and actions.
type Handlers struct {
	schema SchemaReader
	store  RecordStore
	hasher Hasher
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	users       string
	groups      string
	files       string
	messages    string
	permissions string
}

// Option configures Handlers.
type Option func(*Handlers)

// WithLogger sets the fallback logger of the handlers.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handlers) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClock overrides the time source used for date stamps.
func WithClock(now func() time.Time) Option {
	return func(h *Handlers) { h.now = now }
}

// New builds the handler catalog.
func New(reader SchemaReader, store RecordStore, hasher Hasher, cfg Config, opts ...Option) *Handlers {
	h := &Handlers{
		schema:      reader,
		store:       store,
		hasher:      hasher,
		cfg:         cfg,
		logger:      zap.NewNop(),
		now:         time.Now,
		users:       reader.SystemCollection("users"),
		groups:      reader.SystemCollection("groups"),
		files:       reader.SystemCollection("files"),
		messages:    reader.SystemCollection("messages"),
		permissions: reader.SystemCollection("permissions"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register attaches every handler to e.
func (h *Handlers) Register(e *hook.Emitter) {
	high := hook.WithPriority(hook.PriorityHigh)
	insertBefore := hook.Before(hook.EventInsert)
	updateBefore := hook.Before(hook.EventUpdate)

	e.AddFilter(insertBefore, h.stampInsert, high, hook.WithName("stamp insert"))
	e.AddFilter(updateBefore, h.stampUpdate, high, hook.WithName("stamp update"))

	e.AddFilter(insertBefore, h.encodeFields, hook.WithName("encode fields"))
	e.AddFilter(updateBefore, h.encodeFields, hook.WithName("encode fields"))
	e.AddFilter(hook.EventSelect, h.castRows, high, hook.WithName("cast rows"))
	e.AddFilter(hook.EventSelect, h.decodeRows, hook.WithName("decode rows"))
	e.AddFilter(hook.EventSelect, h.shapeRows, hook.WithName("shape rows"))

	e.AddFilter(insertBefore, h.slugInsert, hook.WithName("slug"))
	e.AddFilter(updateBefore, h.slugUpdate, hook.WithName("slug"))
	e.AddFilter(insertBefore, h.hashPasswordFields, hook.WithName("hash password fields"))
	e.AddFilter(updateBefore, h.hashPasswordFields, hook.WithName("hash password fields"))

	usersInsert := hook.Before(hook.For(hook.EventInsert, h.users))
	usersUpdate := hook.Before(hook.For(hook.EventUpdate, h.users))
	e.AddFilter(usersUpdate, h.guardSelfUpdate, hook.WithName("guard self update"))
	e.AddFilter(usersInsert, h.preventPublicGroup, hook.WithName("prevent public group"))
	e.AddFilter(usersUpdate, h.preventPublicGroup, hook.WithName("prevent public group"))
	e.AddFilter(usersInsert, h.hashUserPassword, hook.WithName("hash user password"))
	e.AddFilter(usersUpdate, h.hashUserPassword, hook.WithName("hash user password"))
	e.AddFilter(hook.For(hook.EventSelect, h.users), h.redactUsers, hook.WithName("redact users"))

	e.AddAction(hook.EventFilesSaving, h.guardFiles, hook.WithName("guard files"))
	e.AddAction(hook.EventFilesThumbSaving, h.guardFiles, hook.WithName("guard files"))
	for _, event := range []string{hook.EventInsert, hook.EventUpdate, hook.EventDelete} {
		e.AddFilter(hook.Before(hook.For(event, h.files)), h.guardFilesFilter, hook.WithName("guard files"))
	}
	e.AddFilter(hook.Before(hook.For(hook.EventSelect, h.files)), h.selectFilename, hook.WithName("select filename"))

	e.AddAction(hook.For(hook.EventInsert, h.groups), h.provisionGroup, hook.WithName("provision group"))

	e.AddFilter(hook.EventLoadOneToMany, h.indexTranslations, high, hook.WithName("index translations"))
	e.AddFilter(hook.EventResponse, h.markPublic, hook.WithName("mark public"))
	e.AddAction(hook.EventApplicationError, h.logError, hook.WithName("log error"))
}

func (h *Handlers) collection(ctx context.Context, p *hook.Payload) (*schema.Collection, error) {
	return h.schema.Collection(ctx, p.Collection(), false)
}

// userValue is the value written into user stamp fields.
func userValue(a acl.ACL) any {
	if id := a.UserID(); id != 0 {
		return id
	}
	return nil
}
