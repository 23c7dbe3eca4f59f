package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"

	"github.com/goliatone/go-collections/errs"
)

// DefaultPrimaryKey is used when no resolver is attached or the resolver
// cannot name the key of a collection.
const DefaultPrimaryKey = "id"

// KeyResolver names the primary key column of a collection.
type KeyResolver interface {
	PrimaryKeyName(ctx context.Context, collection string) (string, error)
}

// Store reads and writes rows as plain maps. It runs no lifecycle handler;
// use Service for pipeline backed access.
type Store struct {
	db   bun.IDB
	keys KeyResolver
}

// NewStore builds a Store over db. keys may be nil.
func NewStore(db bun.IDB, keys KeyResolver) *Store {
	return &Store{db: db, keys: keys}
}

// PrimaryKey returns the primary key column of collection.
func (s *Store) PrimaryKey(ctx context.Context, collection string) string {
	if s.keys == nil {
		return DefaultPrimaryKey
	}
	name, err := s.keys.PrimaryKeyName(ctx, collection)
	if err != nil || name == "" {
		return DefaultPrimaryKey
	}
	return name
}

// Find returns the row of collection whose primary key is id. A missing
// row is nil with a nil error.
func (s *Store) Find(ctx context.Context, collection string, id any) (map[string]any, error) {
	pk := s.PrimaryKey(ctx, collection)
	row := map[string]any{}
	err := s.db.NewSelect().
		TableExpr("?", bun.Ident(collection)).
		Where("? = ?", bun.Ident(pk), id).
		Limit(1).
		Scan(ctx, &row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.AdapterExecution("find", collection, err)
	}
	return row, nil
}

// FindMany returns the rows whose column matches any of values.
func (s *Store) FindMany(ctx context.Context, collection, column string, values []any) ([]map[string]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	var rows []map[string]any
	err := s.db.NewSelect().
		TableExpr("?", bun.Ident(collection)).
		Where("? IN (?)", bun.Ident(column), bun.In(values)).
		OrderExpr("? ASC", bun.Ident(s.PrimaryKey(ctx, collection))).
		Scan(ctx, &rows)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errs.AdapterExecution("find_many", collection, err)
	}
	return rows, nil
}

// Select lists rows of collection ordered by primary key. Empty columns
// read every column; empty ids read every row.
func (s *Store) Select(ctx context.Context, collection string, columns []string, ids []any) ([]map[string]any, error) {
	pk := s.PrimaryKey(ctx, collection)
	q := s.db.NewSelect().TableExpr("?", bun.Ident(collection))
	for _, c := range columns {
		if c == "*" {
			q = q.ColumnExpr("*")
			continue
		}
		q = q.ColumnExpr("?", bun.Ident(c))
	}
	if len(ids) > 0 {
		q = q.Where("? IN (?)", bun.Ident(pk), bun.In(ids))
	}

	var rows []map[string]any
	err := q.OrderExpr("? ASC", bun.Ident(pk)).Scan(ctx, &rows)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errs.AdapterExecution("select", collection, err)
	}
	return rows, nil
}

// Insert writes data as a new row and returns it with its primary key.
func (s *Store) Insert(ctx context.Context, collection string, data map[string]any) (map[string]any, error) {
	if len(data) == 0 {
		return nil, errs.AdapterExecution("insert", collection, fmt.Errorf("no values to insert"))
	}
	pk := s.PrimaryKey(ctx, collection)
	row := cloneRow(data)
	q := s.db.NewInsert().Model(&row).TableExpr("?", bun.Ident(collection))

	if s.db.Dialect().Features().Has(feature.InsertReturning) {
		if _, err := q.Returning("*").Exec(ctx); err != nil {
			return nil, errs.AdapterExecution("insert", collection, err)
		}
		return row, nil
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, errs.AdapterExecution("insert", collection, err)
	}
	if _, ok := row[pk]; !ok {
		if id, err := res.LastInsertId(); err == nil {
			row[pk] = id
		}
	}
	return row, nil
}

// Update writes data onto the row whose primary key is id and reports the
// number of rows changed.
func (s *Store) Update(ctx context.Context, collection string, id any, data map[string]any) (int64, error) {
	if len(data) == 0 {
		return 0, nil
	}
	row := cloneRow(data)
	res, err := s.db.NewUpdate().
		Model(&row).
		TableExpr("?", bun.Ident(collection)).
		Where("? = ?", bun.Ident(s.PrimaryKey(ctx, collection)), id).
		Exec(ctx)
	if err != nil {
		return 0, errs.AdapterExecution("update", collection, err)
	}
	return affected(res), nil
}

// Delete removes the rows whose primary key is one of ids.
func (s *Store) Delete(ctx context.Context, collection string, ids ...any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.NewDelete().
		TableExpr("?", bun.Ident(collection)).
		Where("? IN (?)", bun.Ident(s.PrimaryKey(ctx, collection)), bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, errs.AdapterExecution("delete", collection, err)
	}
	return affected(res), nil
}

func affected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func cloneRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
