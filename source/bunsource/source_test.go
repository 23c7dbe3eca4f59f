package bunsource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-collections/catalog"
	"github.com/goliatone/go-collections/ddl"
	"github.com/goliatone/go-collections/errs"
	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/pkg/testsupport"
	"github.com/goliatone/go-collections/schema"
)

const metadataTables = `
CREATE TABLE directus_collections (
	collection VARCHAR(64) PRIMARY KEY,
	hidden BOOLEAN DEFAULT 0,
	single BOOLEAN DEFAULT 0,
	managed BOOLEAN DEFAULT 1,
	note VARCHAR(255)
);
CREATE TABLE directus_fields (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	collection VARCHAR(64),
	field VARCHAR(64),
	type VARCHAR(64),
	interface VARCHAR(64),
	options TEXT,
	required BOOLEAN DEFAULT 0,
	sort INTEGER,
	note VARCHAR(255)
);
CREATE TABLE directus_relations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	collection_a VARCHAR(64),
	field_a VARCHAR(64),
	junction_key_a VARCHAR(64),
	junction_collection VARCHAR(64),
	junction_key_b VARCHAR(64),
	collection_b VARCHAR(64),
	field_b VARCHAR(64)
)`

const articlesFixture = `
CREATE TABLE articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title VARCHAR(255) NOT NULL,
	status VARCHAR(16) DEFAULT 'draft',
	price NUMERIC(10,2),
	author INTEGER
);
CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT);
INSERT INTO directus_collections (collection, hidden, single, managed, note) VALUES ('articles', 0, 0, 1, 'Blog posts');
INSERT INTO directus_fields (collection, field, type, interface, options, required, sort, note)
	VALUES ('articles', 'title', 'VARCHAR', 'text-input', '{"size":"large"}', 1, 2, 'Headline');
INSERT INTO directus_fields (collection, field, type, interface, options, required, sort, note)
	VALUES ('articles', 'author', 'INT', 'many_to_one', NULL, 0, 5, NULL);
INSERT INTO directus_fields (collection, field, type, interface, options, required, sort, note)
	VALUES ('articles', 'comments', 'ALIAS', 'one_to_many', NULL, 0, 9, NULL);
INSERT INTO directus_relations (collection_a, field_a, collection_b, field_b)
	VALUES ('articles', 'author', 'authors', NULL);
INSERT INTO directus_relations (collection_a, field_a, collection_b, field_b)
	VALUES ('comments', 'article', 'articles', 'comments')`

func newSource(t *testing.T, fixtures ...string) *Source {
	t.Helper()
	db := testsupport.OpenSQLite(t)
	testsupport.Exec(t, db, fixtures...)
	src, err := New(context.Background(), db)
	require.NoError(t, err)
	return src
}

func TestNew_SQLite(t *testing.T) {
	src := newSource(t)
	assert.Equal(t, catalog.SQLite, src.Dialect())
	assert.Equal(t, "main", src.SchemaName())

	db := testsupport.OpenSQLite(t)
	src, err := New(context.Background(), db, WithSchema("aux"), WithPrefix("app_"))
	require.NoError(t, err)
	assert.Equal(t, "aux", src.SchemaName())
	assert.Equal(t, "app_", src.prefix)
}

func TestCollection_NotFound(t *testing.T) {
	src := newSource(t)

	_, err := src.Collection(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errs.IsCollectionNotFound(err))

	_, err = src.Fields(context.Background(), "missing", schema.FieldFilter{})
	assert.True(t, errs.IsCollectionNotFound(err))
}

func TestCollection_WithoutMetadataTables(t *testing.T) {
	src := newSource(t, `CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`)
	ctx := context.Background()

	info, err := src.Collection(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, schema.CollectionInfo{Name: "notes"}, info)

	fields, err := src.Fields(ctx, "notes", schema.FieldFilter{})
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "PRI", fields[0].Key)
	assert.Equal(t, "text", fields[1].Type)

	relations, err := src.Relations(ctx, "notes")
	require.NoError(t, err)
	assert.Empty(t, relations)
}

func TestCollection_ReadsMetadata(t *testing.T) {
	src := newSource(t, metadataTables, articlesFixture)
	ctx := context.Background()

	info, err := src.Collection(ctx, "articles")
	require.NoError(t, err)
	assert.Equal(t, schema.CollectionInfo{Name: "articles", Managed: true, Note: "Blog posts"}, info)

	all, err := src.Collections(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, c := range all {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"articles", "authors", "directus_collections", "directus_fields", "directus_relations"}, names)
	assert.Equal(t, "Blog posts", all[0].Note)

	exists, err := src.CollectionExists(ctx, "authors")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFields_MergesColumnsAndMetadata(t *testing.T) {
	src := newSource(t, metadataTables, articlesFixture)

	fields, err := src.Fields(context.Background(), "articles", schema.FieldFilter{})
	require.NoError(t, err)
	require.Len(t, fields, 6)

	byName := map[string]schema.FieldInfo{}
	for _, f := range fields {
		byName[f.Field] = f
	}

	id := byName["id"]
	assert.Equal(t, "PRI", id.Key)
	assert.True(t, id.AutoIncrement)
	assert.False(t, id.Nullable)
	assert.Nil(t, id.DefaultValue)

	title := byName["title"]
	assert.Equal(t, "VARCHAR", title.Type)
	assert.Equal(t, "255", title.Length)
	assert.Equal(t, "text-input", title.Interface)
	assert.Equal(t, `{"size":"large"}`, title.Options)
	assert.True(t, title.Required)
	assert.False(t, title.Nullable)
	assert.Equal(t, 2, title.Sort)
	assert.Equal(t, "Headline", title.Note)

	status := byName["status"]
	assert.Equal(t, "varchar", status.Type)
	assert.Equal(t, "16", status.Length)
	assert.Equal(t, "draft", status.DefaultValue)
	assert.True(t, status.Nullable)
	assert.Equal(t, 3, status.Sort)

	assert.Equal(t, "10,2", byName["price"].Length)
	assert.Equal(t, "numeric", byName["price"].Type)

	comments := fields[5]
	assert.Equal(t, "comments", comments.Field)
	assert.Equal(t, "alias", comments.Type)
	assert.Equal(t, "one_to_many", comments.Interface)
	assert.True(t, comments.Nullable)
}

func TestFields_SingleColumn(t *testing.T) {
	src := newSource(t, metadataTables, articlesFixture)

	fields, err := src.Fields(context.Background(), "articles", schema.FieldFilter{Column: "title"})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "title", fields[0].Field)
	assert.Equal(t, "text-input", fields[0].Interface)

	all, err := src.AllFields(context.Background())
	require.NoError(t, err)
	assert.Greater(t, len(all), 6)
}

func TestRelations_BothSides(t *testing.T) {
	src := newSource(t, metadataTables, articlesFixture)

	relations, err := src.Relations(context.Background(), "articles")
	require.NoError(t, err)
	require.Len(t, relations, 2)
	assert.Equal(t, "author", relations[0].FieldA)
	assert.Equal(t, "authors", relations[0].CollectionB)
	assert.Equal(t, "comments", relations[1].FieldB)
}

func TestManager_AttachesRelations(t *testing.T) {
	src := newSource(t, metadataTables, articlesFixture)
	m := schema.NewManager(src)

	c, err := m.Collection(context.Background(), "articles", false)
	require.NoError(t, err)
	assert.Equal(t, "id", c.PrimaryKeyName())

	author, ok := c.Field("author")
	require.True(t, ok)
	r, side, ok := author.Relation()
	require.True(t, ok)
	assert.Equal(t, schema.SideA, side)
	assert.Equal(t, "authors", r.CollectionB)

	comments, ok := c.Field("comments")
	require.True(t, ok)
	_, side, ok = comments.Relation()
	require.True(t, ok)
	assert.Equal(t, schema.SideB, side)
}

func TestPrimaryKeyChanges_UnsupportedOnSQLite(t *testing.T) {
	src := newSource(t)

	err := src.AddPrimaryKey(context.Background(), "articles", "id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add primary key")

	err = src.DropPrimaryKey(context.Background(), "articles", "id")
	require.Error(t, err)
}

func TestBuildTable_RoundTrip(t *testing.T) {
	src := newSource(t)
	m := schema.NewManager(src)
	e := hook.NewEmitter()
	var events []string
	for _, ev := range []string{hook.EventTableCreate, hook.EventTableAlter, hook.EventTableDrop} {
		ev := ev
		e.AddAction(hook.After(ev), func(_ context.Context, p *hook.Payload) error {
			events = append(events, ev+":"+p.Collection())
			return nil
		})
	}
	f := ddl.NewFactory(m, ddl.WithEmitter(e))
	ctx := context.Background()

	create, err := f.CreateTable("articles", []ddl.Description{
		{"field": "id", "type": "integer", "interface": "primary_key", "auto_increment": true},
		{"field": "status", "type": "varchar", "interface": "status", "length": 16, "default_value": "draft", "nullable": false},
		{"field": "title", "type": "varchar", "interface": "text-input"},
	})
	require.NoError(t, err)
	require.NoError(t, f.BuildTable(ctx, create))

	c, err := m.Collection(ctx, "articles", false)
	require.NoError(t, err)
	assert.Equal(t, "id", c.PrimaryKeyName())
	assert.Equal(t, []string{"id", "status", "title"}, c.FieldNames())

	status, ok := c.Field("status")
	require.True(t, ok)
	assert.Equal(t, catalog.Varchar, status.Type)
	assert.Equal(t, "16", status.Length)
	assert.Equal(t, "draft", status.DefaultValue)
	assert.False(t, status.Nullable)

	alter, err := f.AlterTable("articles", ddl.Changes{
		Add: []ddl.Description{{"field": "subtitle", "type": "varchar", "interface": "text-input", "length": "120"}},
	})
	require.NoError(t, err)
	require.NoError(t, f.BuildTable(ctx, alter))

	c, err = m.Collection(ctx, "articles", false)
	require.NoError(t, err)
	subtitle, ok := c.Field("subtitle")
	require.True(t, ok)
	assert.Equal(t, "120", subtitle.Length)

	require.NoError(t, f.BuildTable(ctx, f.DropTable("articles")))
	exists, err := m.CollectionExists(ctx, "articles")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, []string{
		"table.create:articles",
		"table.alter:articles",
		"table.drop:articles",
	}, events)
}

func TestExec_WrapsFailures(t *testing.T) {
	src := newSource(t)

	err := src.Exec(context.Background(), "CREATE TABLE ok (id INTEGER)", "NOT SQL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT SQL")

	exists, err := src.CollectionExists(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, exists)
}
