package bunsource

import (
	"context"
	"fmt"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/goliatone/go-collections/catalog"
	"github.com/goliatone/go-collections/ddl"
	"github.com/goliatone/go-collections/errs"
	"github.com/goliatone/go-collections/internal/logger"
	"github.com/goliatone/go-collections/schema"
)

// DefaultPrefix is the name prefix of the metadata tables.
const DefaultPrefix = "directus_"

var _ schema.Source = (*Source)(nil)

// Source reads collection metadata and physical column descriptions from a
// bun database and executes DDL against it.
type Source struct {
	db      bun.IDB
	dialect catalog.Dialect
	schema  string
	prefix  string
	queries queries
	logger  *zap.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithSchema sets the schema (postgres) or database (mysql) name.
func WithSchema(name string) Option {
	return func(s *Source) {
		if name != "" {
			s.schema = name
		}
	}
}

// WithPrefix sets the metadata table prefix.
func WithPrefix(prefix string) Option {
	return func(s *Source) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the fallback logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Source over db. The dialect follows the bun dialect of db.
// On mysql without an explicit schema the current database is used.
func New(ctx context.Context, db bun.IDB, opts ...Option) (*Source, error) {
	d, ok := catalog.ParseDialect(db.Dialect().Name().String())
	if !ok {
		return nil, goerrors.New(
			fmt.Sprintf("unsupported dialect %q", db.Dialect().Name()),
			goerrors.CategoryBadInput,
		)
	}

	s := &Source{
		db:      db,
		dialect: d,
		prefix:  DefaultPrefix,
		queries: dialectQueries[d],
		logger:  zap.NewNop(),
	}
	switch d {
	case catalog.SQLite:
		s.schema = "main"
	case catalog.Postgres:
		s.schema = "public"
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.schema == "" {
		if err := db.NewRaw("SELECT DATABASE()").Scan(ctx, &s.schema); err != nil {
			return nil, errs.AdapterExecution("current database", "", err)
		}
	}
	return s, nil
}

func (s *Source) Dialect() catalog.Dialect { return s.dialect }
func (s *Source) SchemaName() string       { return s.schema }

// Collection returns the metadata of a physical table. Tables without a
// metadata row get zero metadata.
func (s *Source) Collection(ctx context.Context, name string) (schema.CollectionInfo, error) {
	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return schema.CollectionInfo{}, err
	}
	if !exists {
		return schema.CollectionInfo{}, errs.CollectionNotFound(name)
	}

	rows, err := s.collectionRows(ctx, name)
	if err != nil {
		return schema.CollectionInfo{}, err
	}
	info := schema.CollectionInfo{Name: name}
	if len(rows) > 0 {
		info = rows[0].info()
	}
	return info, nil
}

// Collections lists every physical table with its metadata.
func (s *Source) Collections(ctx context.Context) ([]schema.CollectionInfo, error) {
	tables, err := s.tables(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.collectionRows(ctx, "")
	if err != nil {
		return nil, err
	}
	meta := make(map[string]collectionRow, len(rows))
	for _, r := range rows {
		meta[r.Collection] = r
	}

	out := make([]schema.CollectionInfo, 0, len(tables))
	for _, t := range tables {
		info := schema.CollectionInfo{Name: t}
		if r, ok := meta[t]; ok {
			info = r.info()
		}
		out = append(out, info)
	}
	return out, nil
}

// CollectionExists reports whether a physical table named name exists.
func (s *Source) CollectionExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.NewRaw(s.queries.exists, s.schema, name).Scan(ctx, &n); err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

// Fields merges the physical columns of collection with their metadata
// rows. Alias fields, which have no column, follow the physical ones.
func (s *Source) Fields(ctx context.Context, collection string, filter schema.FieldFilter) ([]schema.FieldInfo, error) {
	var columns []columnRow
	if err := s.db.NewRaw(s.queries.columns, s.schema, collection).Scan(ctx, &columns); err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", collection, err)
	}
	if len(columns) == 0 {
		exists, err := s.CollectionExists(ctx, collection)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errs.CollectionNotFound(collection)
		}
	}

	meta, err := s.fieldRows(ctx, collection, filter.Column)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]fieldRow, len(meta))
	for _, m := range meta {
		byName[m.Field] = m
	}

	out := make([]schema.FieldInfo, 0, len(columns))
	for _, c := range columns {
		if filter.Column != "" && c.Name != filter.Column {
			continue
		}
		m, ok := byName[c.Name]
		out = append(out, s.fieldInfo(collection, c, m, ok))
		delete(byName, c.Name)
	}

	var aliases []fieldRow
	for _, m := range byName {
		if catalog.Normalize(m.Type).IsAlias() {
			aliases = append(aliases, m)
		}
	}
	sort.Slice(aliases, func(i, j int) bool {
		if aliases[i].Sort != aliases[j].Sort {
			return aliases[i].Sort < aliases[j].Sort
		}
		return aliases[i].Field < aliases[j].Field
	})
	for _, m := range aliases {
		out = append(out, schema.FieldInfo{
			Collection: collection,
			Field:      m.Field,
			Type:       string(catalog.Alias),
			Interface:  m.Interface,
			Nullable:   true,
			Required:   m.Required,
			Options:    m.Options,
			Sort:       m.Sort,
			Note:       m.Note,
		})
	}
	return out, nil
}

// AllFields lists the fields of every collection.
func (s *Source) AllFields(ctx context.Context) ([]schema.FieldInfo, error) {
	tables, err := s.tables(ctx)
	if err != nil {
		return nil, err
	}
	var out []schema.FieldInfo
	for _, t := range tables {
		fields, err := s.Fields(ctx, t, schema.FieldFilter{})
		if err != nil {
			return nil, err
		}
		out = append(out, fields...)
	}
	return out, nil
}

// Relations lists the relations collection takes part in, on either side.
func (s *Source) Relations(ctx context.Context, collection string) ([]schema.Relation, error) {
	table := s.prefix + "relations"
	ok, err := s.CollectionExists(ctx, table)
	if err != nil || !ok {
		return nil, err
	}

	var rows []relationRow
	err = s.db.NewRaw(
		`SELECT id, collection_a, field_a, junction_key_a, junction_collection,
			junction_key_b, collection_b, field_b
		FROM ? WHERE collection_a = ? OR collection_b = ? ORDER BY id`,
		bun.Ident(table), collection, collection,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("read relations of %s: %w", collection, err)
	}

	out := make([]schema.Relation, 0, len(rows))
	for _, r := range rows {
		out = append(out, schema.Relation{
			ID:                 r.ID,
			CollectionA:        r.CollectionA,
			FieldA:             r.FieldA,
			JunctionKeyA:       r.JunctionKeyA,
			JunctionCollection: r.JunctionCollection,
			JunctionKeyB:       r.JunctionKeyB,
			CollectionB:        r.CollectionB,
			FieldB:             r.FieldB,
		})
	}
	return out, nil
}

// DataType maps a logical or physical type name onto the catalog.
func (s *Source) DataType(raw string) catalog.Type {
	t, _, _ := columnType(raw)
	return t
}

func (s *Source) DefaultInterface(t catalog.Type) string { return catalog.DefaultInterface(t) }
func (s *Source) DefaultLength(t catalog.Type) string    { return catalog.DefaultLength(t) }

// AddPrimaryKey makes column the primary key of table. sqlite cannot add a
// primary key to an existing table.
func (s *Source) AddPrimaryKey(ctx context.Context, table, column string) error {
	if s.dialect == catalog.SQLite {
		return unsupported("add primary key", table)
	}
	_, err := s.db.NewRaw("ALTER TABLE ? ADD PRIMARY KEY (?)", bun.Ident(table), bun.Ident(column)).Exec(ctx)
	return err
}

// DropPrimaryKey removes the primary key of table. sqlite cannot drop a
// primary key.
func (s *Source) DropPrimaryKey(ctx context.Context, table, column string) error {
	switch s.dialect {
	case catalog.SQLite:
		return unsupported("drop primary key", table)
	case catalog.Postgres:
		_, err := s.db.NewRaw("ALTER TABLE ? DROP CONSTRAINT ?", bun.Ident(table), bun.Ident(table+"_pkey")).Exec(ctx)
		return err
	}
	_, err := s.db.NewRaw("ALTER TABLE ? DROP PRIMARY KEY", bun.Ident(table)).Exec(ctx)
	return err
}

// Exec runs statements in order and stops at the first failure.
func (s *Source) Exec(ctx context.Context, statements ...string) error {
	log := logger.FromContext(ctx, s.logger)
	for _, stmt := range statements {
		log.Debug("executing ddl", zap.String("dialect", string(s.dialect)), zap.String("statement", stmt))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Source) tables(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.NewRaw(s.queries.tables, s.schema).Scan(ctx, &names); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// collectionRows reads the collections metadata table. An empty name reads
// every row. A missing metadata table yields no rows.
func (s *Source) collectionRows(ctx context.Context, name string) ([]collectionRow, error) {
	table := s.prefix + "collections"
	ok, err := s.CollectionExists(ctx, table)
	if err != nil || !ok {
		return nil, err
	}

	q := s.db.NewSelect().
		TableExpr("?", bun.Ident(table)).
		ColumnExpr("collection, hidden, single, managed, note")
	if name != "" {
		q = q.Where("collection = ?", name)
	}
	var rows []collectionRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("read collection metadata: %w", err)
	}
	return rows, nil
}

// fieldRows reads the fields metadata rows of collection, optionally a
// single one. A missing metadata table yields no rows.
func (s *Source) fieldRows(ctx context.Context, collection, field string) ([]fieldRow, error) {
	table := s.prefix + "fields"
	ok, err := s.CollectionExists(ctx, table)
	if err != nil || !ok {
		return nil, err
	}

	q := s.db.NewSelect().
		TableExpr("?", bun.Ident(table)).
		ColumnExpr("collection, field, type, interface, options, required, sort, note").
		Where("collection = ?", collection)
	if field != "" {
		q = q.Where("field = ?", field)
	}
	var rows []fieldRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("read field metadata of %s: %w", collection, err)
	}
	return rows, nil
}

func (s *Source) fieldInfo(collection string, c columnRow, m fieldRow, hasMeta bool) schema.FieldInfo {
	t, length, unsigned := columnType(c.Type)
	auto := c.AutoIncrement || (s.dialect == catalog.SQLite && c.PrimaryKey && t == catalog.Integer)

	info := schema.FieldInfo{
		Collection:    collection,
		Field:         c.Name,
		Type:          string(t),
		Nullable:      c.Nullable && !c.PrimaryKey,
		DefaultValue:  cleanDefault(c.Default, auto),
		Length:        length,
		Unsigned:      unsigned,
		AutoIncrement: auto,
		Sort:          c.Position,
	}
	if c.PrimaryKey {
		info.Key = "PRI"
	}
	if hasMeta {
		if m.Type != "" {
			info.Type = m.Type
		}
		info.Interface = m.Interface
		info.Required = m.Required
		info.Options = m.Options
		info.Note = m.Note
		if m.Sort != 0 {
			info.Sort = m.Sort
		}
	}
	return info
}

func (r collectionRow) info() schema.CollectionInfo {
	return schema.CollectionInfo{
		Name:    r.Collection,
		Hidden:  r.Hidden,
		Single:  r.Single,
		Managed: r.Managed,
		Note:    r.Note,
	}
}

func unsupported(op, table string) error {
	return goerrors.New(fmt.Sprintf("sqlite cannot %s on %q", op, table), goerrors.CategoryBadInput).
		WithTextCode(ddl.CodeUnsupportedAlter).
		WithMetadata(map[string]any{"operation": op, "collection": table})
}
