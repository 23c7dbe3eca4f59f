package hook

import "context"

// Operation is the store work a dispatch wraps. It may return a replacement
// payload; a nil payload keeps the current one.
type Operation func(ctx context.Context, p *Payload) (*Payload, error)

// Dispatch runs the full lifecycle of event on collection:
//
//	<event>:before
//	<event>.<collection>:before
//	op
//	<event>.<collection>:after
//	<event>.<collection>
//	<event>:after
//	<event>
//
// Each step runs filters then actions. The first failure stops the
// sequence, so after-phase handlers only run once op has succeeded.
func (e *Emitter) Dispatch(ctx context.Context, event, collection string, p *Payload, op Operation) (*Payload, error) {
	p, err := e.DispatchBefore(ctx, event, collection, p)
	if err != nil {
		return p, err
	}
	if op != nil {
		next, err := op(ctx, p)
		if err != nil {
			return p, err
		}
		if next != nil {
			p = next
		}
	}
	return e.DispatchAfter(ctx, event, collection, p)
}

// DispatchBefore runs only the before phase of event.
func (e *Emitter) DispatchBefore(ctx context.Context, event, collection string, p *Payload) (*Payload, error) {
	return e.runSequence(ctx, p, collection,
		Before(event),
		Before(For(event, collection)),
	)
}

// DispatchAfter runs only the after phase of event.
func (e *Emitter) DispatchAfter(ctx context.Context, event, collection string, p *Payload) (*Payload, error) {
	return e.runSequence(ctx, p, collection,
		After(For(event, collection)),
		For(event, collection),
		After(event),
		event,
	)
}

func (e *Emitter) runSequence(ctx context.Context, p *Payload, collection string, events ...string) (*Payload, error) {
	if p == nil {
		p = NewPayload(nil)
	}
	if collection != "" && p.Collection() == "" {
		p.SetAttribute(AttrCollection, collection)
	}
	for _, name := range events {
		var err error
		if p, err = e.Run(ctx, name, p); err != nil {
			return p, err
		}
	}
	return p, nil
}
