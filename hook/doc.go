// Package hook implements the record lifecycle event pipeline.
//
// # Overview
//
// An Emitter holds two ordered handler lists per event name:
//
//   - Filters receive a Payload and return it, possibly replaced wholesale
//   - Actions receive a Payload and only produce side effects
//
// Handlers with a higher Priority run first. Handlers sharing a priority run
// in registration order. A failing handler aborts the rest of the chain and
// its error is returned to the caller unchanged.
//
// # Event names
//
// Events are dotted names with optional collection specialization and phase
// suffix:
//
//	collection.insert:before
//	collection.insert.articles:before
//	collection.insert.articles:after
//	collection.insert:after
//
// Use Before, After and For to build them.
//
// # Dispatch
//
// Dispatch wraps a store operation with the full sequence:
//
//	out, err := emitter.Dispatch(ctx, hook.EventInsert, "articles", payload,
//		func(ctx context.Context, p *hook.Payload) (*hook.Payload, error) {
//			return store.Insert(ctx, "articles", p)
//		})
//
// The before phase completes before the operation starts and the after phase
// only starts once the operation succeeded, so side effects registered on the
// after phase never observe a failed mutation.
//
// # Lifecycle
//
// The Emitter is built once by the composition root, populated at startup and
// shared by reference. There is no unregistration.
package hook
