// Package catalog maps the logical field types stored in collection metadata
// to dialect column kinds, default lengths and default interfaces.
//
// The catalog is pure data: no function in this package touches storage.
package catalog

import "strings"

// Type is a logical, dialect independent field type.
type Type string

// Logical types known to the catalog.
const (
	Char       Type = "char"
	Varchar    Type = "varchar"
	VarString  Type = "var_string"
	TinyText   Type = "tinytext"
	Text       Type = "text"
	MediumText Type = "mediumtext"
	LongText   Type = "longtext"
	TinyJSON   Type = "tinyjson"
	JSON       Type = "json"
	MediumJSON Type = "mediumjson"
	LongJSON   Type = "longjson"
	UUID       Type = "uuid"
	CSV        Type = "csv"
	Array      Type = "array"

	Time      Type = "time"
	Date      Type = "date"
	Datetime  Type = "datetime"
	Timestamp Type = "timestamp"

	TinyInt   Type = "tinyint"
	SmallInt  Type = "smallint"
	MediumInt Type = "mediumint"
	Int       Type = "int"
	Integer   Type = "integer"
	BigInt    Type = "bigint"
	Long      Type = "long"
	Year      Type = "year"
	Serial    Type = "serial"

	Float    Type = "float"
	Double   Type = "double"
	Real     Type = "real"
	Decimal  Type = "decimal"
	Numeric  Type = "numeric"
	Currency Type = "currency"

	Bit     Type = "bit"
	Bool    Type = "bool"
	Boolean Type = "boolean"

	Binary     Type = "binary"
	Varbinary  Type = "varbinary"
	TinyBlob   Type = "tinyblob"
	Blob       Type = "blob"
	MediumBlob Type = "mediumblob"
	LongBlob   Type = "longblob"

	Set   Type = "set"
	Enum  Type = "enum"
	Alias Type = "alias"
)

// Normalize lower-cases and trims a raw type name.
func Normalize(raw string) Type {
	return Type(strings.ToLower(strings.TrimSpace(raw)))
}

func (t Type) String() string { return string(t) }

// Known reports whether t is part of the catalog.
func (t Type) Known() bool {
	_, ok := kinds[t]
	return ok
}

// IsInteger reports whether t belongs to the integer family.
func (t Type) IsInteger() bool {
	switch t {
	case TinyInt, SmallInt, MediumInt, Int, Integer, BigInt, Long, Year, Serial:
		return true
	}
	return false
}

// IsFloatingPoint reports whether t is stored as an approximate number.
func (t Type) IsFloatingPoint() bool {
	switch t {
	case Float, Double, Real:
		return true
	}
	return false
}

// IsFixedPoint reports whether t is an exact decimal type.
func (t Type) IsFixedPoint() bool {
	switch t {
	case Decimal, Numeric, Currency:
		return true
	}
	return false
}

// IsNumeric reports whether t is any numeric type.
func (t Type) IsNumeric() bool {
	return t.IsInteger() || t.IsFloatingPoint() || t.IsFixedPoint() || t == Bit
}

// IsString reports whether t is stored as character data.
func (t Type) IsString() bool {
	switch t {
	case Char, Varchar, VarString, TinyText, Text, MediumText, LongText, UUID, CSV, Array:
		return true
	}
	return t.IsJSON()
}

// IsJSON reports whether values of t travel as encoded JSON documents.
func (t Type) IsJSON() bool {
	switch t {
	case TinyJSON, JSON, MediumJSON, LongJSON:
		return true
	}
	return false
}

// IsArray reports whether values of t travel as comma joined lists.
func (t Type) IsArray() bool {
	return t == Array || t == CSV
}

// IsBoolean reports whether t holds a truth value.
func (t Type) IsBoolean() bool {
	return t == Bool || t == Boolean
}

// IsBinary reports whether t holds raw bytes.
func (t Type) IsBinary() bool {
	switch t {
	case Binary, Varbinary, TinyBlob, Blob, MediumBlob, LongBlob:
		return true
	}
	return false
}

// IsDate reports whether t holds a calendar date with or without a time.
func (t Type) IsDate() bool {
	switch t {
	case Date, Datetime, Timestamp:
		return true
	}
	return false
}

// IsCollectionLength reports whether the length of t is its list of members.
func (t Type) IsCollectionLength() bool {
	return t == Set || t == Enum
}

// IsAlias reports whether t has no physical column.
func (t Type) IsAlias() bool { return t == Alias }

// DefaultLength returns the length used when a description does not carry
// one. Integer types never carry a length.
func DefaultLength(t Type) string {
	switch t {
	case Char:
		return "1"
	case Varchar, VarString, CSV, Array:
		return "255"
	case UUID:
		return "36"
	case Decimal, Numeric, Currency:
		return "10,2"
	case Binary, Varbinary:
		return "255"
	case Bit:
		return "1"
	}
	return ""
}

// DefaultInterface returns the interface assigned to a field of type t when
// its metadata row does not name one.
func DefaultInterface(t Type) string {
	switch {
	case t == Alias:
		return "alias"
	case t.IsBoolean(), t == Bit:
		return "toggle"
	case t.IsInteger(), t.IsFloatingPoint(), t.IsFixedPoint():
		return "numeric"
	case t.IsJSON():
		return "json"
	case t.IsArray():
		return "tags"
	case t == Date:
		return "date"
	case t == Datetime, t == Timestamp:
		return "datetime"
	case t == Time:
		return "time"
	case t.IsBinary():
		return "blob"
	case t.IsCollectionLength():
		return "dropdown"
	case t == TinyText, t == Text, t == MediumText, t == LongText:
		return "textarea"
	}
	return "text-input"
}
