package hook

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-collections/internal/logger"
	"github.com/goliatone/go-collections/internal/metrics"
)

// Priority orders handlers registered under the same event name. Higher
// priorities run first; equal priorities run in registration order.
type Priority int

const (
	PriorityDefault Priority = 0
	PriorityHigh    Priority = 100
)

// Filter transforms a payload and returns it, possibly replaced wholesale.
type Filter func(ctx context.Context, p *Payload) (*Payload, error)

// Action performs side effects. Returning an error aborts the dispatch.
type Action func(ctx context.Context, p *Payload) error

// HandlerOption configures a registration.
type HandlerOption func(*handlerMeta)

type handlerMeta struct {
	priority Priority
	name     string
}

// WithPriority sets the handler priority.
func WithPriority(p Priority) HandlerOption {
	return func(m *handlerMeta) { m.priority = p }
}

// WithName labels the handler in logs.
func WithName(name string) HandlerOption {
	return func(m *handlerMeta) { m.name = name }
}

type filterEntry struct {
	handlerMeta
	fn Filter
}

type actionEntry struct {
	handlerMeta
	fn Action
}

// Emitter is the registry of filters and actions keyed by event name. It is
// built once by the composition root, populated at startup and shared by
// reference for the life of the process. Dispatch is synchronous.
type Emitter struct {
	mu      sync.RWMutex
	filters map[string][]filterEntry
	actions map[string][]actionEntry
	logger  *zap.Logger
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithLogger sets the emitter logger. A logger stored in the dispatch
// context takes precedence.
func WithLogger(l *zap.Logger) EmitterOption {
	return func(e *Emitter) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEmitter returns an empty registry.
func NewEmitter(opts ...EmitterOption) *Emitter {
	e := &Emitter{
		filters: map[string][]filterEntry{},
		actions: map[string][]actionEntry{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func meta(opts []HandlerOption) handlerMeta {
	m := handlerMeta{priority: PriorityDefault}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// AddFilter registers a filter under event.
func (e *Emitter) AddFilter(event string, fn Filter, opts ...HandlerOption) {
	entry := filterEntry{handlerMeta: meta(opts), fn: fn}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters[event] = insertByPriority(e.filters[event], entry, func(f filterEntry) Priority { return f.priority })
}

// AddAction registers an action under event.
func (e *Emitter) AddAction(event string, fn Action, opts ...HandlerOption) {
	entry := actionEntry{handlerMeta: meta(opts), fn: fn}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions[event] = insertByPriority(e.actions[event], entry, func(a actionEntry) Priority { return a.priority })
}

// insertByPriority returns a new list with v placed after every entry of
// the same or higher priority. Chains already handed to a dispatch are
// never mutated.
func insertByPriority[T any](list []T, v T, prio func(T) Priority) []T {
	i := len(list)
	for i > 0 && prio(list[i-1]) < prio(v) {
		i--
	}
	out := make([]T, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, v)
	return append(out, list[i:]...)
}

// HasHandlers reports whether anything is registered under event.
func (e *Emitter) HasHandlers(event string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.filters[event]) > 0 || len(e.actions[event]) > 0
}

// Apply runs the filters registered under event and returns the resulting
// payload. The first failing filter aborts the chain.
func (e *Emitter) Apply(ctx context.Context, event string, p *Payload) (*Payload, error) {
	e.mu.RLock()
	chain := e.filters[event]
	e.mu.RUnlock()
	if len(chain) == 0 {
		return p, nil
	}

	started := time.Now()
	log := logger.FromContext(ctx, e.logger)
	log.Debug("apply filters", zap.String("event", event), zap.Int("handlers", len(chain)), zap.Stringer("payload", p.ID))

	var err error
	for _, f := range chain {
		var next *Payload
		next, err = f.fn(ctx, p)
		if err != nil {
			log.Warn("filter failed", zap.String("event", event), zap.String("handler", f.name), zap.Error(err))
			break
		}
		if next != nil {
			p = next
		}
	}
	metrics.ObserveDispatch(event, "filter", started, err)
	if err != nil {
		return p, err
	}
	return p, nil
}

// Execute runs the actions registered under event. The first failing action
// aborts the chain.
func (e *Emitter) Execute(ctx context.Context, event string, p *Payload) error {
	e.mu.RLock()
	chain := e.actions[event]
	e.mu.RUnlock()
	if len(chain) == 0 {
		return nil
	}

	started := time.Now()
	log := logger.FromContext(ctx, e.logger)
	log.Debug("execute actions", zap.String("event", event), zap.Int("handlers", len(chain)), zap.Stringer("payload", p.ID))

	var err error
	for _, a := range chain {
		if err = a.fn(ctx, p); err != nil {
			log.Warn("action failed", zap.String("event", event), zap.String("handler", a.name), zap.Error(err))
			break
		}
	}
	metrics.ObserveDispatch(event, "action", started, err)
	return err
}

// Run applies the filters of event, then executes its actions with the
// filtered payload.
func (e *Emitter) Run(ctx context.Context, event string, p *Payload) (*Payload, error) {
	p, err := e.Apply(ctx, event, p)
	if err != nil {
		return p, err
	}
	return p, e.Execute(ctx, event, p)
}
