package records

import (
	"context"

	"go.uber.org/zap"

	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/internal/logger"
)

// Finder reads a single row. recordcache.Reader and Store both satisfy it.
type Finder interface {
	Find(ctx context.Context, collection string, id any) (map[string]any, error)
}

// Query narrows a Select. Empty Columns read every column and empty IDs
// read every row.
type Query struct {
	Columns []string
	IDs     []any
}

// Service runs every record operation through the lifecycle pipeline of
// the emitter.
type Service struct {
	store   *Store
	reader  Finder
	emitter *hook.Emitter
	logger  *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithReader routes Find through r, typically a cached reader.
func WithReader(r Finder) Option {
	return func(s *Service) {
		if r != nil {
			s.reader = r
		}
	}
}

// WithLogger sets the fallback logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService builds a Service over store dispatching through e.
func NewService(store *Store, e *hook.Emitter, opts ...Option) *Service {
	s := &Service{
		store:   store,
		reader:  store,
		emitter: e,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() *Store { return s.store }

// Insert creates a row from data and returns the stored record, primary
// key included.
func (s *Service) Insert(ctx context.Context, collection string, data map[string]any) (map[string]any, error) {
	p, err := s.emitter.Dispatch(ctx, hook.EventInsert, collection, hook.NewPayload(data),
		func(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
			row, err := s.store.Insert(ctx, collection, p.Data())
			if err != nil {
				return nil, err
			}
			pk := s.store.PrimaryKey(ctx, collection)
			if id, ok := row[pk]; ok {
				p.Set(pk, id)
			}
			return p, nil
		})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return p.Data(), nil
}

// Update writes data onto the row whose primary key is id and returns the
// values written.
func (s *Service) Update(ctx context.Context, collection string, id any, data map[string]any) (map[string]any, error) {
	p := hook.NewPayload(data).WithAttribute(hook.AttrIDs, []any{id})
	p, err := s.emitter.Dispatch(ctx, hook.EventUpdate, collection, p,
		func(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
			_, err := s.store.Update(ctx, collection, id, p.Data())
			return nil, err
		})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return p.Data(), nil
}

// Delete removes the rows whose primary key is one of ids.
func (s *Service) Delete(ctx context.Context, collection string, ids ...any) error {
	if len(ids) == 0 {
		return nil
	}
	p := hook.NewPayload(nil).WithAttribute(hook.AttrIDs, ids)
	_, err := s.emitter.Dispatch(ctx, hook.EventDelete, collection, p,
		func(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
			_, err := s.store.Delete(ctx, collection, p.IDs()...)
			return nil, err
		})
	if err != nil {
		return s.fail(ctx, err)
	}
	return nil
}

// Select lists rows of collection after every select filter has run.
func (s *Service) Select(ctx context.Context, collection string, q Query) ([]map[string]any, error) {
	st := &hook.SelectState{
		Table:   collection,
		Columns: append([]string(nil), q.Columns...),
		IDs:     q.IDs,
	}
	p := hook.NewRowsPayload(nil).WithAttribute(hook.AttrSelectState, st)
	p, err := s.emitter.Dispatch(ctx, hook.EventSelect, collection, p,
		func(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
			rows, err := s.store.Select(ctx, st.Table, st.Columns, st.IDs)
			if err != nil {
				return nil, err
			}
			p.SetRows(rows)
			return p, nil
		})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return p.Rows(), nil
}

// Find reads one row through the reader and the select pipeline. A missing
// row is nil with a nil error. columns narrow the returned record.
func (s *Service) Find(ctx context.Context, collection string, id any, columns ...string) (map[string]any, error) {
	st := &hook.SelectState{
		Table:   collection,
		Columns: append([]string(nil), columns...),
		IDs:     []any{id},
	}
	p := hook.NewRowsPayload(nil).WithAttribute(hook.AttrSelectState, st)
	p, err := s.emitter.Dispatch(ctx, hook.EventSelect, collection, p,
		func(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
			row, err := s.reader.Find(ctx, st.Table, id)
			if err != nil {
				return nil, err
			}
			if row != nil {
				p.SetRows([]map[string]any{project(row, st.Columns)})
			}
			return p, nil
		})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	if rows := p.Rows(); len(rows) > 0 {
		return rows[0], nil
	}
	return nil, nil
}

// Respond runs the response filters over data. The public attribute of
// the returned payload flags anonymous callers.
func (s *Service) Respond(ctx context.Context, data map[string]any) (*hook.Payload, error) {
	return s.emitter.Apply(ctx, hook.EventResponse, hook.NewPayload(data))
}

// fail reports err to the application error handlers and returns it.
func (s *Service) fail(ctx context.Context, err error) error {
	p := hook.NewPayload(nil).WithAttribute(hook.AttrError, err)
	if herr := s.emitter.Execute(ctx, hook.EventApplicationError, p); herr != nil {
		logger.FromContext(ctx, s.logger).Warn("application error handler failed", zap.Error(herr))
	}
	return err
}

// project copies row keeping only columns. No columns or "*" keep every
// column.
func project(row map[string]any, columns []string) map[string]any {
	if len(columns) == 0 {
		return cloneRow(row)
	}
	out := make(map[string]any, len(columns))
	for _, c := range columns {
		if c == "*" {
			return cloneRow(row)
		}
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out
}
