// Package lifecycle holds the record lifecycle handlers registered on the
// event pipeline: date and user stamps, json and array coercion, slugs,
// password hashing, file URLs, message attachments, user redaction and the
// authorization gates on users, groups and files.
//
// Handlers read the caller from the request context through acl.FromContext.
// Gates fail with errs.Forbidden, which aborts the dispatch before the store
// is touched.
package lifecycle
