// Package bunsource reads collection metadata from a SQL database through
// bun and executes the statements produced by the ddl package.
//
// Physical columns come from the dialect catalog (sqlite_master and
// pragma_table_info on sqlite, pg_attribute on postgres and
// information_schema on mysql). They are merged with the rows of the
// collections, fields and relations metadata tables, named with the
// directus_ prefix by default:
//
//	db, err := bunsource.Open("sqlite", "file:app.db")
//	src, err := bunsource.New(ctx, db)
//	manager := schema.NewManager(src)
//
// Metadata tables are optional. Without them every column is described
// from the catalog alone and interfaces fall back to the type defaults.
package bunsource
