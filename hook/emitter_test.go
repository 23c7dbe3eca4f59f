package hook

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects handler invocations in call order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) filter(name string) Filter {
	return func(_ context.Context, p *Payload) (*Payload, error) {
		r.add(name)
		return p, nil
	}
}

func (r *recorder) action(name string) Action {
	return func(context.Context, *Payload) error {
		r.add(name)
		return nil
	}
}

func TestEmitter_PriorityThenRegistrationOrder(t *testing.T) {
	e := NewEmitter()
	rec := &recorder{}

	e.AddFilter("evt", rec.filter("default-1"))
	e.AddFilter("evt", rec.filter("high-1"), WithPriority(PriorityHigh))
	e.AddFilter("evt", rec.filter("default-2"))
	e.AddFilter("evt", rec.filter("high-2"), WithPriority(PriorityHigh))
	e.AddFilter("evt", rec.filter("low"), WithPriority(-10))

	_, err := e.Apply(context.Background(), "evt", NewPayload(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"high-1", "high-2", "default-1", "default-2", "low"}, rec.list())
}

func TestEmitter_FilterReplacesPayload(t *testing.T) {
	e := NewEmitter()
	replacement := NewPayload(map[string]any{"title": "replaced"})

	e.AddFilter("evt", func(context.Context, *Payload) (*Payload, error) {
		return replacement, nil
	})
	e.AddFilter("evt", func(_ context.Context, p *Payload) (*Payload, error) {
		p.Set("seen", true)
		return p, nil
	})

	out, err := e.Apply(context.Background(), "evt", NewPayload(map[string]any{"title": "original"}))
	require.NoError(t, err)
	assert.Same(t, replacement, out)
	assert.Equal(t, "replaced", out.Value("title"))
	assert.Equal(t, true, out.Value("seen"))
}

func TestEmitter_NilFilterResultKeepsPayload(t *testing.T) {
	e := NewEmitter()
	e.AddFilter("evt", func(context.Context, *Payload) (*Payload, error) { return nil, nil })

	in := NewPayload(map[string]any{"a": 1})
	out, err := e.Apply(context.Background(), "evt", in)
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestEmitter_FailureAbortsChain(t *testing.T) {
	e := NewEmitter()
	rec := &recorder{}
	boom := errors.New("denied")

	e.AddAction("evt", rec.action("first"))
	e.AddAction("evt", func(context.Context, *Payload) error { return boom })
	e.AddAction("evt", rec.action("never"))

	err := e.Execute(context.Background(), "evt", NewPayload(nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first"}, rec.list())
}

func TestEmitter_RunAppliesFiltersBeforeActions(t *testing.T) {
	e := NewEmitter()
	rec := &recorder{}

	e.AddAction("evt", func(_ context.Context, p *Payload) error {
		rec.add("action saw " + p.Value("status").(string))
		return nil
	})
	e.AddFilter("evt", func(_ context.Context, p *Payload) (*Payload, error) {
		p.Set("status", "filtered")
		return p, nil
	})

	_, err := e.Run(context.Background(), "evt", NewPayload(map[string]any{"status": "raw"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"action saw filtered"}, rec.list())
}

func TestEmitter_SpecializedNamesAreDistinct(t *testing.T) {
	e := NewEmitter()
	rec := &recorder{}
	e.AddAction(For(EventInsert, "articles"), rec.action("articles"))

	require.NoError(t, e.Execute(context.Background(), EventInsert, NewPayload(nil)))
	require.NoError(t, e.Execute(context.Background(), For(EventInsert, "pages"), NewPayload(nil)))
	assert.Empty(t, rec.list())
	assert.True(t, e.HasHandlers("collection.insert.articles"))
	assert.False(t, e.HasHandlers(EventInsert))
}

func TestEmitter_ConcurrentDispatch(t *testing.T) {
	e := NewEmitter()
	e.AddFilter("evt", func(_ context.Context, p *Payload) (*Payload, error) {
		p.Set("n", p.Value("n").(int)+1)
		return p, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := e.Apply(context.Background(), "evt", NewPayload(map[string]any{"n": i}))
			assert.NoError(t, err)
			assert.Equal(t, i+1, out.Value("n"))
		}(i)
	}
	wg.Wait()
}
