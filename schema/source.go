package schema

import (
	"context"

	"github.com/goliatone/go-collections/catalog"
)

// FieldFilter narrows a field listing. The zero value lists every field.
type FieldFilter struct {
	Column string
}

// Source is the dialect specific gateway to the real store. Collection must
// fail with errs.CollectionNotFound when the collection does not exist.
type Source interface {
	Dialect() catalog.Dialect
	SchemaName() string

	Collection(ctx context.Context, name string) (CollectionInfo, error)
	Collections(ctx context.Context) ([]CollectionInfo, error)
	CollectionExists(ctx context.Context, name string) (bool, error)
	Fields(ctx context.Context, collection string, filter FieldFilter) ([]FieldInfo, error)
	AllFields(ctx context.Context) ([]FieldInfo, error)
	Relations(ctx context.Context, collection string) ([]Relation, error)

	DataType(logical string) catalog.Type
	DefaultInterface(t catalog.Type) string
	DefaultLength(t catalog.Type) string

	AddPrimaryKey(ctx context.Context, table, column string) error
	DropPrimaryKey(ctx context.Context, table, column string) error
	Exec(ctx context.Context, statements ...string) error
}
