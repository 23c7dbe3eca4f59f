package hook

// Record events.
const (
	EventInsert = "collection.insert"
	EventUpdate = "collection.update"
	EventDelete = "collection.delete"
	EventSelect = "collection.select"
)

// Schema events.
const (
	EventTableCreate = "table.create"
	EventTableAlter  = "table.alter"
	EventTableDrop   = "table.drop"
)

// Other events handled by the engine.
const (
	EventLoadOneToMany    = "load.relational.onetomany"
	EventResponse         = "response"
	EventApplicationError = "application.error"
	EventFilesSaving      = "files.saving"
	EventFilesThumbSaving = "files.thumbnail.saving"
)

// Before returns the before-phase name of event.
func Before(event string) string { return event + ":before" }

// After returns the after-phase name of event.
func After(event string) string { return event + ":after" }

// For returns the collection specialized name of event.
func For(event, collection string) string { return event + "." + collection }
