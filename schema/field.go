package schema

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-collections/catalog"
)

// FieldInfo is a raw field row as reported by the schema source: physical
// column facts merged with the field metadata record.
type FieldInfo struct {
	Collection    string
	Field         string
	Type          string
	Interface     string
	Key           string // "PRI" marks the physical primary key
	Nullable      bool
	Required      bool
	DefaultValue  any
	Length        string
	Unsigned      bool
	AutoIncrement bool
	Options       string // JSON document
	Sort          int
	Note          string
}

// Field is one typed attribute of a collection. It is built by the Manager
// and read-only for consumers once the relation is attached.
type Field struct {
	Collection    string
	Name          string
	Type          catalog.Type
	Interface     Interface
	Nullable      bool
	Required      bool
	DefaultValue  any
	Length        string
	Unsigned      bool
	AutoIncrement bool
	Options       map[string]any
	Sort          int
	Note          string

	relation *Relation
	side     Side
}

// IsPrimary reports whether the field is the collection primary key.
func (f *Field) IsPrimary() bool { return f.Interface.Is(InterfacePrimaryKey) }

// IsArray reports whether values travel as comma joined lists.
func (f *Field) IsArray() bool { return f.Type.IsArray() }

// IsJSON reports whether values travel as JSON documents.
func (f *Field) IsJSON() bool { return f.Type.IsJSON() }

// IsBoolean reports whether values are truth values.
func (f *Field) IsBoolean() bool { return f.Type.IsBoolean() }

// IsAlias reports whether the field has no physical column.
func (f *Field) IsAlias() bool { return f.Type.IsAlias() }

// Relation returns the attached relation and the side this field sits on.
func (f *Field) Relation() (*Relation, Side, bool) {
	if f.relation == nil {
		return nil, 0, false
	}
	return f.relation, f.side, true
}

// HasRelation reports whether a relation is attached.
func (f *Field) HasRelation() bool { return f.relation != nil }

func (f *Field) setRelation(r *Relation, s Side) {
	f.relation = r
	f.side = s
}

// Option returns a raw option value.
func (f *Field) Option(key string) (any, bool) {
	if f.Options == nil {
		return nil, false
	}
	v, ok := f.Options[key]
	return v, ok
}

// OptionString returns an option rendered as a string, or def when it is
// missing or empty.
func (f *Field) OptionString(key, def string) string {
	v, ok := f.Option(key)
	if !ok || v == nil {
		return def
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s = fmt.Sprint(t)
	}
	if s == "" {
		return def
	}
	return s
}

// OptionBool returns an option interpreted as a truth value.
func (f *Field) OptionBool(key string) bool {
	v, ok := f.Option(key)
	if !ok {
		return false
	}
	return truthy(v)
}
