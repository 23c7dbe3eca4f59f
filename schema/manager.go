package schema

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/goliatone/go-collections/catalog"
	"github.com/goliatone/go-collections/errs"
)

// DefaultSystemPrefix is the prefix of reserved collection names.
const DefaultSystemPrefix = "directus_"

// Reserved collection names, without prefix.
var systemCollections = []string{
	"activity",
	"activity_read",
	"collections",
	"collection_presets",
	"fields",
	"files",
	"folders",
	"groups",
	"migrations",
	"permissions",
	"relations",
	"revisions",
	"settings",
	"users",
}

// Manager memoizes collections and fields loaded from a Source.
//
// The memo maps are safe for concurrent use but first loads are not
// serialized: two callers missing the same name both hit the source and the
// last write wins. Both writes hold the same data.
type Manager struct {
	source Source
	prefix string
	logger *zap.Logger

	collections *xsync.MapOf[string, *Collection]
	fields      *xsync.MapOf[string, []*Field]
	single      *xsync.MapOf[string, *Field]
}

// Option configures a Manager.
type Option func(*Manager)

// WithSystemPrefix overrides the reserved collection prefix.
func WithSystemPrefix(prefix string) Option {
	return func(m *Manager) { m.prefix = prefix }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager builds a Manager reading from source.
func NewManager(source Source, opts ...Option) *Manager {
	m := &Manager{
		source:      source,
		prefix:      DefaultSystemPrefix,
		logger:      zap.NewNop(),
		collections: xsync.NewMapOf[string, *Collection](),
		fields:      xsync.NewMapOf[string, []*Field](),
		single:      xsync.NewMapOf[string, *Field](),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Source returns the underlying schema source.
func (m *Manager) Source() Source { return m.source }

// Prefix returns the reserved collection prefix.
func (m *Manager) Prefix() string { return m.prefix }

// Collection returns the named collection with its fields attached. When
// skipCache is set both the collection row and its fields are reloaded and
// the memo entries overwritten.
func (m *Manager) Collection(ctx context.Context, name string, skipCache bool) (*Collection, error) {
	c, ok := m.collections.Load(name)
	if !ok || skipCache {
		info, err := m.source.Collection(ctx, name)
		if err != nil {
			return nil, m.sourceError("get collection", name, err)
		}
		c = newCollection(info, m.source.SchemaName(), m.IsSystemCollection(info.Name))
		m.collections.Store(name, c)
		if skipCache {
			m.evictFields(name)
		}
	}

	if !c.HasFields() {
		fields, err := m.Fields(ctx, name)
		if err != nil {
			return nil, err
		}
		c.setFields(fields)
	}
	return c, nil
}

// Fields loads the field list of a collection with relations attached.
func (m *Manager) Fields(ctx context.Context, collection string) ([]*Field, error) {
	if fields, ok := m.fields.Load(collection); ok {
		return fields, nil
	}

	rows, err := m.source.Fields(ctx, collection, FieldFilter{})
	if err != nil {
		return nil, m.sourceError("get fields", collection, err)
	}
	relations, err := m.source.Relations(ctx, collection)
	if err != nil {
		return nil, m.sourceError("get relations", collection, err)
	}

	idx := newRelationIndex(relations)
	fields := make([]*Field, 0, len(rows))
	for _, row := range rows {
		f := m.FieldFromInfo(row)
		if r, side, ok := idx.lookup(f.Name); ok {
			f.setRelation(r, side)
		}
		fields = append(fields, f)
	}

	m.fields.Store(collection, fields)
	m.logger.Debug("schema fields loaded",
		zap.String("collection", collection),
		zap.Int("fields", len(fields)),
		zap.Int("relations", len(relations)),
	)
	return fields, nil
}

// Field returns a single field, loading only that column from the source on
// a miss. It returns nil without error when the column does not exist.
func (m *Manager) Field(ctx context.Context, collection, name string, skipCache bool) (*Field, error) {
	key := collection + "." + name
	if f, ok := m.single.Load(key); ok && !skipCache {
		return f, nil
	}

	rows, err := m.source.Fields(ctx, collection, FieldFilter{Column: name})
	if err != nil {
		return nil, m.sourceError("get field", collection, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	f := m.FieldFromInfo(rows[0])
	m.single.Store(key, f)
	return f, nil
}

// FieldNames returns the field names of a collection in load order.
func (m *Manager) FieldNames(ctx context.Context, collection string) ([]string, error) {
	fields, err := m.Fields(ctx, collection)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names, nil
}

// Collections lists every collection known to the source. Fields are not
// attached; they load on the first Collection call for each name.
func (m *Manager) Collections(ctx context.Context) ([]*Collection, error) {
	infos, err := m.source.Collections(ctx)
	if err != nil {
		return nil, m.sourceError("get collections", "", err)
	}
	out := make([]*Collection, 0, len(infos))
	for _, info := range infos {
		c := newCollection(info, m.source.SchemaName(), m.IsSystemCollection(info.Name))
		if cached, ok := m.collections.LoadOrStore(info.Name, c); ok {
			c = cached
		}
		out = append(out, c)
	}
	return out, nil
}

// AllFields returns every field of every collection.
func (m *Manager) AllFields(ctx context.Context) ([]*Field, error) {
	rows, err := m.source.AllFields(ctx)
	if err != nil {
		return nil, m.sourceError("get all fields", "", err)
	}
	out := make([]*Field, len(rows))
	for i, row := range rows {
		out[i] = m.FieldFromInfo(row)
	}
	return out, nil
}

// AllFieldsByCollection groups AllFields by collection name.
func (m *Manager) AllFieldsByCollection(ctx context.Context) (map[string][]*Field, error) {
	fields, err := m.AllFields(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]*Field)
	for _, f := range fields {
		out[f.Collection] = append(out[f.Collection], f)
	}
	return out, nil
}

// PrimaryKeyName returns the primary key field name of a collection.
func (m *Manager) PrimaryKeyName(ctx context.Context, collection string) (string, error) {
	c, err := m.Collection(ctx, collection, false)
	if err != nil {
		return "", err
	}
	return c.PrimaryKeyName(), nil
}

// HasSystemDateField reports whether the collection stamps creation or
// modification dates.
func (m *Manager) HasSystemDateField(ctx context.Context, collection string) (bool, error) {
	c, err := m.Collection(ctx, collection, false)
	if err != nil {
		return false, err
	}
	return c.DateCreateField() != nil || c.DateUpdateField() != nil, nil
}

// CollectionExists asks the source whether the collection exists.
func (m *Manager) CollectionExists(ctx context.Context, name string) (bool, error) {
	ok, err := m.source.CollectionExists(ctx, name)
	if err != nil {
		return false, m.sourceError("collection exists", name, err)
	}
	return ok, nil
}

// SystemCollections returns the reserved collection names with prefix.
func (m *Manager) SystemCollections() []string {
	return m.DirectusCollections()
}

// DirectusCollections returns the prefixed reserved names, restricted to
// the unprefixed names in filter when any are given.
func (m *Manager) DirectusCollections(filter ...string) []string {
	allowed := make(map[string]bool, len(filter))
	for _, name := range filter {
		allowed[name] = true
	}
	out := make([]string, 0, len(systemCollections))
	for _, name := range systemCollections {
		if len(allowed) > 0 && !allowed[name] {
			continue
		}
		out = append(out, m.prefix+name)
	}
	return out
}

// SystemCollection returns the prefixed name of a reserved collection.
func (m *Manager) SystemCollection(name string) string { return m.prefix + name }

// IsSystemCollection reports whether name is a reserved collection.
func (m *Manager) IsSystemCollection(name string) bool {
	if !strings.HasPrefix(name, m.prefix) {
		return false
	}
	bare := strings.TrimPrefix(name, m.prefix)
	for _, n := range systemCollections {
		if n == bare {
			return true
		}
	}
	return false
}

// IsSystemField reports whether the interface name is engine managed.
func (m *Manager) IsSystemField(iface string) bool {
	return ParseInterface(iface).IsSystem()
}

// IsPrimaryKeyInterface reports whether the interface name is primary_key.
func (m *Manager) IsPrimaryKeyInterface(iface string) bool {
	return ParseInterface(iface).Is(InterfacePrimaryKey)
}

// DataType resolves a raw type name through the source.
func (m *Manager) DataType(raw string) catalog.Type { return m.source.DataType(raw) }

// DefaultInterface returns the source default interface for t.
func (m *Manager) DefaultInterface(t catalog.Type) string { return m.source.DefaultInterface(t) }

// DefaultLength returns the source default length for t.
func (m *Manager) DefaultLength(t catalog.Type) string { return m.source.DefaultLength(t) }

// CastValue casts v as a value of logical type t.
func (m *Manager) CastValue(v any, t catalog.Type) any { return CastValue(v, t) }

// CastDefaultValue casts a column default of logical type t.
func (m *Manager) CastDefaultValue(v any, t catalog.Type) any { return CastDefaultValue(v, t) }

// AddPrimaryKey adds a primary key on table.column.
func (m *Manager) AddPrimaryKey(ctx context.Context, table, column string) error {
	if err := m.source.AddPrimaryKey(ctx, table, column); err != nil {
		return errs.AdapterExecution("add primary key", table, err)
	}
	m.Evict(table)
	return nil
}

// DropPrimaryKey drops the primary key on table.column.
func (m *Manager) DropPrimaryKey(ctx context.Context, table, column string) error {
	if err := m.source.DropPrimaryKey(ctx, table, column); err != nil {
		return errs.AdapterExecution("drop primary key", table, err)
	}
	m.Evict(table)
	return nil
}

// Evict removes every memo entry for a collection.
func (m *Manager) Evict(name string) {
	m.collections.Delete(name)
	m.evictFields(name)
}

func (m *Manager) evictFields(name string) {
	m.fields.Delete(name)
	prefix := name + "."
	m.single.Range(func(key string, _ *Field) bool {
		if strings.HasPrefix(key, prefix) {
			m.single.Delete(key)
		}
		return true
	})
}

// FieldFromInfo normalizes a raw field row.
func (m *Manager) FieldFromInfo(row FieldInfo) *Field {
	t := catalog.Normalize(row.Type)

	iface := row.Interface
	required := row.Required
	if strings.EqualFold(row.Key, "PRI") {
		required = true
		iface = "primary_key"
	}
	if iface == "" {
		iface = m.source.DefaultInterface(t)
	}

	nullable := row.Nullable
	if t.IsAlias() {
		nullable = true
	}

	def := row.DefaultValue
	if s, ok := def.(string); ok && nullable && strings.EqualFold(s, "NULL") {
		def = nil
	}

	var options map[string]any
	if row.Options != "" {
		if err := json.Unmarshal([]byte(row.Options), &options); err != nil || len(options) == 0 {
			options = nil
		}
	}

	return &Field{
		Collection:    row.Collection,
		Name:          row.Field,
		Type:          t,
		Interface:     ParseInterface(iface),
		Nullable:      nullable,
		Required:      required,
		DefaultValue:  def,
		Length:        row.Length,
		Unsigned:      row.Unsigned,
		AutoIncrement: row.AutoIncrement,
		Options:       options,
		Sort:          row.Sort,
		Note:          row.Note,
	}
}

func (m *Manager) sourceError(op, collection string, err error) error {
	if errs.IsCollectionNotFound(err) {
		return err
	}
	return errs.AdapterExecution(op, collection, err)
}
