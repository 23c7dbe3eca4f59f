package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-collections/catalog"
	"github.com/goliatone/go-collections/errs"
	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/schema"
)

var fixedNow = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

type fakeSchema struct {
	collections map[string]*schema.Collection
}

func (s *fakeSchema) Collection(_ context.Context, name string, _ bool) (*schema.Collection, error) {
	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	return nil, errs.CollectionNotFound(name)
}

func (s *fakeSchema) IsSystemCollection(name string) bool { return strings.HasPrefix(name, "directus_") }
func (s *fakeSchema) SystemCollection(name string) string { return "directus_" + name }

func (s *fakeSchema) add(name string, fields ...*schema.Field) {
	for _, f := range fields {
		f.Collection = name
	}
	s.collections[name] = schema.NewCollection(name, fields...)
}

type insertCall struct {
	collection string
	data       map[string]any
}

type fakeStore struct {
	mu       sync.Mutex
	rows     map[string]map[string]map[string]any
	inserts  []insertCall
	findMany int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]map[string]map[string]any{}}
}

func (s *fakeStore) put(collection string, row map[string]any) {
	if s.rows[collection] == nil {
		s.rows[collection] = map[string]map[string]any{}
	}
	s.rows[collection][fmt.Sprint(row["id"])] = row
}

func (s *fakeStore) Find(_ context.Context, collection string, id any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[collection][fmt.Sprint(id)]
	if !ok {
		return nil, nil
	}
	return row, nil
}

func (s *fakeStore) FindMany(_ context.Context, collection, column string, values []any) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findMany++
	var out []map[string]any
	for _, v := range values {
		for _, row := range s.rows[collection] {
			if fmt.Sprint(row[column]) == fmt.Sprint(v) {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (s *fakeStore) Insert(_ context.Context, collection string, data map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts = append(s.inserts, insertCall{collection: collection, data: data})
	return data, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func field(name string, t catalog.Type, iface string, options map[string]any) *schema.Field {
	return &schema.Field{
		Name:      name,
		Type:      t,
		Interface: schema.ParseInterface(iface),
		Nullable:  true,
		Options:   options,
	}
}

type fixture struct {
	schema  *fakeSchema
	store   *fakeStore
	emitter *hook.Emitter
	h       *Handlers
}

func newFixture() *fixture {
	fs := &fakeSchema{collections: map[string]*schema.Collection{}}
	fs.add("directus_users",
		field("id", catalog.Integer, "primary_key", nil),
		field("email", catalog.Varchar, "text-input", nil),
		field("password", catalog.Varchar, "password", nil),
		field("token", catalog.Varchar, "text-input", nil),
		field("email_notifications", catalog.Boolean, "toggle", nil),
		field("last_access", catalog.Datetime, "datetime", nil),
		field("last_page", catalog.Varchar, "text-input", nil),
		field("group", catalog.Integer, "many_to_one", nil),
	)
	fs.add("directus_groups",
		field("id", catalog.Integer, "primary_key", nil),
		field("name", catalog.Varchar, "text-input", nil),
	)
	fs.add("directus_files",
		field("id", catalog.Integer, "primary_key", nil),
		field("filename", catalog.Varchar, "text-input", nil),
		field("title", catalog.Varchar, "text-input", nil),
		field("date_uploaded", catalog.Datetime, "datetime", nil),
	)
	fs.add("directus_messages",
		field("id", catalog.Integer, "primary_key", nil),
		field("attachment", catalog.Varchar, "text-input", nil),
	)
	fs.add("directus_permissions",
		field("id", catalog.Integer, "primary_key", nil),
	)
	fs.add("articles",
		field("id", catalog.Integer, "primary_key", nil),
		field("title", catalog.Varchar, "text-input", nil),
		field("slug", catalog.Varchar, "slug", map[string]any{"mirrored_field": "title"}),
		field("meta", catalog.JSON, "json", nil),
		field("tags", catalog.CSV, "tags", nil),
		field("featured", catalog.Boolean, "toggle", nil),
		field("created_on", catalog.Datetime, "date_created", nil),
		field("modified_on", catalog.Datetime, "date_modified", nil),
		field("created_by", catalog.Integer, "user_created", nil),
		field("modified_by", catalog.Integer, "user_modified", nil),
	)
	fs.add("pages",
		field("id", catalog.Integer, "primary_key", nil),
		field("title", catalog.Varchar, "text-input", nil),
		field("slug", catalog.Varchar, "slug", map[string]any{"mirrored_field": "title", "only_on_creation": true}),
	)
	fs.add("accounts",
		field("id", catalog.Integer, "primary_key", nil),
		field("secret", catalog.Varchar, "password", nil),
	)
	fs.add("languages",
		field("code", catalog.Char, "primary_key", nil),
		field("name", catalog.Varchar, "text-input", nil),
	)

	store := newFakeStore()
	store.put("directus_groups", map[string]any{"id": int64(1), "name": "Administrator"})
	store.put("directus_groups", map[string]any{"id": int64(2), "name": "Editors"})
	store.put("directus_groups", map[string]any{"id": int64(3), "name": "PUBLIC"})
	store.put("directus_users", map[string]any{"id": int64(5), "group": int64(2)})
	store.put("directus_users", map[string]any{"id": int64(6), "group": nil})

	h := New(fs, store, fakeHasher{}, Config{
		FilesRootURL: "https://cdn.test/files",
		ThumbRootURL: "https://cdn.test/thumbs",
		AdminGroupID: 1,
	}, WithClock(func() time.Time { return fixedNow }))

	e := hook.NewEmitter()
	h.Register(e)
	return &fixture{schema: fs, store: store, emitter: e, h: h}
}

// write dispatches event on collection with a store operation that records
// whether it ran and assigns id on insert.
func (f *fixture) write(ctx context.Context, event, collection string, data map[string]any, id any) (*hook.Payload, bool, error) {
	wrote := false
	p := hook.NewPayload(data)
	if event != hook.EventInsert && id != nil {
		p.SetAttribute(hook.AttrIDs, []any{id})
	}
	out, err := f.emitter.Dispatch(ctx, event, collection, p, func(_ context.Context, p *hook.Payload) (*hook.Payload, error) {
		wrote = true
		if event == hook.EventInsert && id != nil {
			p.Set("id", id)
		}
		return p, nil
	})
	return out, wrote, err
}

// read dispatches a select returning rows.
func (f *fixture) read(ctx context.Context, collection string, columns []string, rows []map[string]any) (*hook.Payload, error) {
	p := hook.NewPayload(nil).WithAttribute(hook.AttrSelectState, &hook.SelectState{Table: collection, Columns: columns})
	return f.emitter.Dispatch(ctx, hook.EventSelect, collection, p, func(_ context.Context, p *hook.Payload) (*hook.Payload, error) {
		p.SetRows(rows)
		return p, nil
	})
}
