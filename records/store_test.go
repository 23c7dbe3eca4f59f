package records

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-collections/errs"
	"github.com/goliatone/go-collections/pkg/testsupport"
)

type staticKeys map[string]string

func (k staticKeys) PrimaryKeyName(_ context.Context, collection string) (string, error) {
	if name, ok := k[collection]; ok {
		return name, nil
	}
	return "", errs.CollectionNotFound(collection)
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db := testsupport.OpenSQLite(t)
	testsupport.Exec(t, db, `
		CREATE TABLE articles (id INTEGER PRIMARY KEY AUTOINCREMENT, title VARCHAR(255), status VARCHAR(16) DEFAULT 'draft');
		CREATE TABLE languages (code VARCHAR(2) PRIMARY KEY, name VARCHAR(64))
	`)
	return db
}

func TestStore_InsertAndFind(t *testing.T) {
	s := NewStore(newTestDB(t), nil)
	ctx := context.Background()

	row, err := s.Insert(ctx, "articles", map[string]any{"title": "Hello"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, row["id"])
	assert.Equal(t, "Hello", row["title"])

	found, err := s.Find(ctx, "articles", 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Hello", found["title"])
	assert.Equal(t, "draft", found["status"])
}

func TestStore_InsertDoesNotMutateInput(t *testing.T) {
	s := NewStore(newTestDB(t), nil)
	data := map[string]any{"title": "Hello"}

	_, err := s.Insert(context.Background(), "articles", data)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Hello"}, data)
}

func TestStore_InsertRejectsEmptyRow(t *testing.T) {
	s := NewStore(newTestDB(t), nil)

	_, err := s.Insert(context.Background(), "articles", nil)
	require.Error(t, err)
	assert.True(t, errs.IsAdapterExecution(err))
}

func TestStore_FindMissingRow(t *testing.T) {
	s := NewStore(newTestDB(t), nil)

	row, err := s.Find(context.Background(), "articles", 404)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestStore_FindUnknownTable(t *testing.T) {
	s := NewStore(newTestDB(t), nil)

	_, err := s.Find(context.Background(), "missing", 1)
	require.Error(t, err)
	assert.True(t, errs.IsAdapterExecution(err))
}

func TestStore_UsesResolvedPrimaryKey(t *testing.T) {
	s := NewStore(newTestDB(t), staticKeys{"languages": "code"})
	ctx := context.Background()

	_, err := s.Insert(ctx, "languages", map[string]any{"code": "en", "name": "English"})
	require.NoError(t, err)

	row, err := s.Find(ctx, "languages", "en")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "English", row["name"])

	n, err := s.Update(ctx, "languages", "en", map[string]any{"name": "Inglés"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.Equal(t, "code", s.PrimaryKey(ctx, "languages"))
	assert.Equal(t, DefaultPrimaryKey, s.PrimaryKey(ctx, "articles"))
}

func TestStore_Update(t *testing.T) {
	s := NewStore(newTestDB(t), nil)
	ctx := context.Background()
	_, err := s.Insert(ctx, "articles", map[string]any{"title": "Old"})
	require.NoError(t, err)

	n, err := s.Update(ctx, "articles", 1, map[string]any{"title": "New", "status": "published"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	row, err := s.Find(ctx, "articles", 1)
	require.NoError(t, err)
	assert.Equal(t, "New", row["title"])
	assert.Equal(t, "published", row["status"])

	n, err = s.Update(ctx, "articles", 99, map[string]any{"title": "x"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = s.Update(ctx, "articles", 1, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestStore_SelectAndFindMany(t *testing.T) {
	s := NewStore(newTestDB(t), nil)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, err := s.Insert(ctx, "articles", map[string]any{"title": title})
		require.NoError(t, err)
	}

	rows, err := s.Select(ctx, "articles", nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0]["title"])
	assert.Equal(t, "c", rows[2]["title"])

	rows, err = s.Select(ctx, "articles", []string{"id", "title"}, []any{3, 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "title"}, sortedKeys(rows[0]))
	assert.EqualValues(t, 1, rows[0]["id"])
	assert.EqualValues(t, 3, rows[1]["id"])

	rows, err = s.FindMany(ctx, "articles", "title", []any{"b", "c", "zz"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0]["title"])

	rows, err = s.FindMany(ctx, "articles", "title", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStore_Delete(t *testing.T) {
	s := NewStore(newTestDB(t), nil)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, err := s.Insert(ctx, "articles", map[string]any{"title": title})
		require.NoError(t, err)
	}

	n, err := s.Delete(ctx, "articles", 1, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rows, err := s.Select(ctx, "articles", []string{"title"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"title": "b"}}, rows)

	n, err = s.Delete(ctx, "articles")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}
