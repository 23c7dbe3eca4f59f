package records

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-collections/acl"
	"github.com/goliatone/go-collections/errs"
	"github.com/goliatone/go-collections/hook"
)

type seen struct {
	mu     sync.Mutex
	events []string
	ids    [][]any
	data   []map[string]any
	errs   []error
}

func (s *seen) action(name string) hook.Action {
	return func(_ context.Context, p *hook.Payload) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, name)
		s.ids = append(s.ids, p.IDs())
		s.data = append(s.data, p.Data())
		if v, ok := p.Attribute(hook.AttrError); ok {
			s.errs = append(s.errs, v.(error))
		}
		return nil
	}
}

type countingReader struct {
	store *Store
	calls int
}

func (r *countingReader) Find(ctx context.Context, collection string, id any) (map[string]any, error) {
	r.calls++
	return r.store.Find(ctx, collection, id)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *hook.Emitter) {
	t.Helper()
	e := hook.NewEmitter()
	return NewService(NewStore(newTestDB(t), nil), e, opts...), e
}

func sortedKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestService_InsertRunsPipeline(t *testing.T) {
	svc, e := newTestService(t)
	rec := &seen{}
	e.AddFilter(hook.Before(hook.For(hook.EventInsert, "articles")), func(_ context.Context, p *hook.Payload) (*hook.Payload, error) {
		p.Set("status", "published")
		return p, nil
	})
	e.AddAction(hook.After(hook.For(hook.EventInsert, "articles")), rec.action("after"))

	row, err := svc.Insert(context.Background(), "articles", map[string]any{"title": "Hello"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, row["id"])
	assert.Equal(t, "published", row["status"])

	require.Equal(t, []string{"after"}, rec.events)
	assert.EqualValues(t, 1, rec.data[0]["id"])

	stored, err := svc.Store().Find(context.Background(), "articles", 1)
	require.NoError(t, err)
	assert.Equal(t, "published", stored["status"])
}

func TestService_UpdateCarriesIDs(t *testing.T) {
	svc, e := newTestService(t)
	ctx := context.Background()
	_, err := svc.Insert(ctx, "articles", map[string]any{"title": "Old"})
	require.NoError(t, err)

	rec := &seen{}
	e.AddAction(hook.After(hook.EventUpdate), rec.action("update"))

	out, err := svc.Update(ctx, "articles", int64(1), map[string]any{"title": "New"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "New"}, out)
	assert.Equal(t, [][]any{{int64(1)}}, rec.ids)

	row, err := svc.Store().Find(ctx, "articles", 1)
	require.NoError(t, err)
	assert.Equal(t, "New", row["title"])
}

func TestService_DeleteCarriesIDs(t *testing.T) {
	svc, e := newTestService(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b"} {
		_, err := svc.Insert(ctx, "articles", map[string]any{"title": title})
		require.NoError(t, err)
	}
	rec := &seen{}
	e.AddAction(hook.After(hook.For(hook.EventDelete, "articles")), rec.action("delete"))

	require.NoError(t, svc.Delete(ctx, "articles", 1, 2))
	assert.Equal(t, [][]any{{1, 2}}, rec.ids)

	rows, err := svc.Select(ctx, "articles", Query{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, svc.Delete(ctx, "articles"))
	assert.Len(t, rec.events, 1)
}

func TestService_BeforeFilterRejectsWrite(t *testing.T) {
	svc, e := newTestService(t)
	rec := &seen{}
	e.AddFilter(hook.Before(hook.EventInsert), func(_ context.Context, p *hook.Payload) (*hook.Payload, error) {
		return p, errs.Forbidden("read only")
	})
	e.AddAction(hook.EventApplicationError, rec.action("error"))

	_, err := svc.Insert(context.Background(), "articles", map[string]any{"title": "x"})
	require.True(t, errs.IsForbidden(err))

	rows, err := svc.Store().Select(context.Background(), "articles", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.Len(t, rec.errs, 1)
	assert.True(t, errs.IsForbidden(rec.errs[0]))
}

func TestService_StoreFailureSkipsAfterPhase(t *testing.T) {
	svc, e := newTestService(t)
	rec := &seen{}
	e.AddAction(hook.After(hook.EventInsert), rec.action("after"))
	e.AddAction(hook.EventApplicationError, rec.action("error"))

	_, err := svc.Insert(context.Background(), "missing", map[string]any{"title": "x"})
	require.Error(t, err)
	assert.True(t, errs.IsAdapterExecution(err))
	assert.Equal(t, []string{"error"}, rec.events)
}

func TestService_SelectFiltersShapeRowsAndColumns(t *testing.T) {
	svc, e := newTestService(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		_, err := svc.Insert(ctx, "articles", map[string]any{"title": title})
		require.NoError(t, err)
	}

	e.AddFilter(hook.Before(hook.For(hook.EventSelect, "articles")), func(_ context.Context, p *hook.Payload) (*hook.Payload, error) {
		st, _ := p.SelectState()
		st.Columns = append(st.Columns, "status")
		return p, nil
	})
	e.AddFilter(hook.EventSelect, func(_ context.Context, p *hook.Payload) (*hook.Payload, error) {
		assert.Equal(t, "articles", p.Collection())
		rows := make([]map[string]any, 0, len(p.Rows()))
		for _, row := range p.Rows() {
			if row["title"] != "b" {
				rows = append(rows, row)
			}
		}
		p.SetRows(rows)
		return p, nil
	})

	rows, err := svc.Select(ctx, "articles", Query{Columns: []string{"id", "title"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "status", "title"}, sortedKeys(rows[0]))
	assert.Equal(t, "c", rows[1]["title"])

	rows, err = svc.Select(ctx, "articles", Query{Columns: []string{"title"}, IDs: []any{2}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestService_FindUsesReader(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db, nil)
	reader := &countingReader{store: store}
	e := hook.NewEmitter()
	svc := NewService(store, e, WithReader(reader))
	ctx := context.Background()

	_, err := store.Insert(ctx, "articles", map[string]any{"title": "Hello"})
	require.NoError(t, err)

	var tables []string
	e.AddFilter(hook.EventSelect, func(_ context.Context, p *hook.Payload) (*hook.Payload, error) {
		st, _ := p.SelectState()
		tables = append(tables, st.Table)
		for _, row := range p.Rows() {
			row["seen"] = true
		}
		return p, nil
	})

	row, err := svc.Find(ctx, "articles", 1, "title")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Hello", "seen": true}, row)

	row, err = svc.Find(ctx, "articles", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, row["id"])

	missing, err := svc.Find(ctx, "articles", 404)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Equal(t, 3, reader.calls)
	assert.Equal(t, []string{"articles", "articles", "articles"}, tables)
}

func TestService_FindReportsReaderErrors(t *testing.T) {
	boom := errors.New("cache down")
	e := hook.NewEmitter()
	svc := NewService(NewStore(newTestDB(t), nil), e, WithReader(failingReader{boom}))
	rec := &seen{}
	e.AddAction(hook.EventApplicationError, rec.action("error"))

	_, err := svc.Find(context.Background(), "articles", 1)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []error{boom}, rec.errs)
}

type failingReader struct{ err error }

func (r failingReader) Find(context.Context, string, any) (map[string]any, error) {
	return nil, r.err
}

func TestService_Respond(t *testing.T) {
	svc, e := newTestService(t)
	e.AddFilter(hook.EventResponse, func(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
		if acl.FromContext(ctx).UserID() == 0 {
			p.SetAttribute(hook.AttrPublic, true)
		}
		return p, nil
	})

	p, err := svc.Respond(context.Background(), map[string]any{"id": 1})
	require.NoError(t, err)
	public, _ := p.Attribute(hook.AttrPublic)
	assert.Equal(t, true, public)
	assert.Equal(t, 1, p.Value("id"))
}

func TestProject(t *testing.T) {
	row := map[string]any{"id": 1, "title": "x", "body": "y"}

	assert.Equal(t, row, project(row, nil))
	assert.Equal(t, row, project(row, []string{"id", "*"}))
	assert.Equal(t, map[string]any{"title": "x"}, project(row, []string{"title", "missing"}))

	out := project(row, nil)
	out["id"] = 2
	assert.Equal(t, 1, row["id"])
}
