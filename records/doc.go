// Package records stores collection rows as plain maps and runs record
// operations through the lifecycle pipeline.
//
// Store talks to the database through bun map models. It is the direct
// access path handlers use for lookups and provisioning. Service wraps each
// Store call in hook.Emitter.Dispatch, so the before phase can rewrite or
// reject the payload and the after phase only runs once the write has
// succeeded.
//
//	store := records.NewStore(db, manager)
//	svc := records.NewService(store, emitter, records.WithReader(cachedReader))
//	row, err := svc.Insert(ctx, "articles", map[string]any{"title": "Hello"})
//	rows, err := svc.Select(ctx, "articles", records.Query{Columns: []string{"id", "title"}})
//
// Failed operations are reported on the application.error event before
// they are returned.
package records
