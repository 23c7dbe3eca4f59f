package catalog

import "strings"

// Dialect names a SQL flavour the catalog can describe columns for.
type Dialect string

// Supported dialects.
const (
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// ParseDialect maps driver names onto a Dialect.
func ParseDialect(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "mysql", "mariadb":
		return MySQL, true
	case "sqlite", "sqlite3":
		return SQLite, true
	case "postgres", "postgresql", "pg":
		return Postgres, true
	}
	return "", false
}

type columnKinds struct {
	mysql, sqlite, postgres string
}

var kinds = map[Type]columnKinds{
	Char:       {"CHAR", "CHAR", "CHAR"},
	Varchar:    {"VARCHAR", "VARCHAR", "VARCHAR"},
	VarString:  {"VARCHAR", "VARCHAR", "VARCHAR"},
	TinyText:   {"TINYTEXT", "TEXT", "TEXT"},
	Text:       {"TEXT", "TEXT", "TEXT"},
	MediumText: {"MEDIUMTEXT", "TEXT", "TEXT"},
	LongText:   {"LONGTEXT", "TEXT", "TEXT"},
	TinyJSON:   {"TINYTEXT", "TEXT", "JSONB"},
	JSON:       {"TEXT", "TEXT", "JSONB"},
	MediumJSON: {"MEDIUMTEXT", "TEXT", "JSONB"},
	LongJSON:   {"LONGTEXT", "TEXT", "JSONB"},
	UUID:       {"CHAR", "VARCHAR", "UUID"},
	CSV:        {"VARCHAR", "VARCHAR", "VARCHAR"},
	Array:      {"VARCHAR", "VARCHAR", "VARCHAR"},

	Time:      {"TIME", "TIME", "TIME"},
	Date:      {"DATE", "DATE", "DATE"},
	Datetime:  {"DATETIME", "DATETIME", "TIMESTAMP"},
	Timestamp: {"TIMESTAMP", "TIMESTAMP", "TIMESTAMP"},

	TinyInt:   {"TINYINT", "INTEGER", "SMALLINT"},
	SmallInt:  {"SMALLINT", "INTEGER", "SMALLINT"},
	MediumInt: {"MEDIUMINT", "INTEGER", "INTEGER"},
	Int:       {"INT", "INTEGER", "INTEGER"},
	Integer:   {"INT", "INTEGER", "INTEGER"},
	BigInt:    {"BIGINT", "INTEGER", "BIGINT"},
	Long:      {"BIGINT", "INTEGER", "BIGINT"},
	Year:      {"YEAR", "INTEGER", "SMALLINT"},
	Serial:    {"SERIAL", "INTEGER", "SERIAL"},

	Float:    {"FLOAT", "REAL", "REAL"},
	Double:   {"DOUBLE", "REAL", "DOUBLE PRECISION"},
	Real:     {"REAL", "REAL", "REAL"},
	Decimal:  {"DECIMAL", "NUMERIC", "DECIMAL"},
	Numeric:  {"NUMERIC", "NUMERIC", "NUMERIC"},
	Currency: {"DECIMAL", "NUMERIC", "NUMERIC"},

	Bit:     {"BIT", "INTEGER", "BIT"},
	Bool:    {"BOOLEAN", "BOOLEAN", "BOOLEAN"},
	Boolean: {"BOOLEAN", "BOOLEAN", "BOOLEAN"},

	Binary:     {"BINARY", "BLOB", "BYTEA"},
	Varbinary:  {"VARBINARY", "BLOB", "BYTEA"},
	TinyBlob:   {"TINYBLOB", "BLOB", "BYTEA"},
	Blob:       {"BLOB", "BLOB", "BYTEA"},
	MediumBlob: {"MEDIUMBLOB", "BLOB", "BYTEA"},
	LongBlob:   {"LONGBLOB", "BLOB", "BYTEA"},

	Set:  {"SET", "TEXT", "VARCHAR"},
	Enum: {"ENUM", "TEXT", "VARCHAR"},
}

// ColumnKind returns the column type keyword for t in dialect d. Unknown
// types pass through upper-cased so custom column kinds keep working.
func ColumnKind(d Dialect, t Type) string {
	k, ok := kinds[t]
	if !ok {
		return strings.ToUpper(string(t))
	}
	switch d {
	case SQLite:
		return k.sqlite
	case Postgres:
		return k.postgres
	default:
		return k.mysql
	}
}

// AcceptsLength reports whether a column of type t renders its length in
// dialect d.
func AcceptsLength(d Dialect, t Type) bool {
	if t.IsInteger() {
		return false
	}
	switch d {
	case SQLite:
		switch t {
		case Char, Varchar, VarString, CSV, Array, UUID, Decimal, Numeric, Currency:
			return true
		}
		return false
	case Postgres:
		switch t {
		case Char, Varchar, VarString, CSV, Array, Decimal, Numeric, Currency, Bit:
			return true
		}
		return false
	default:
		switch t {
		case Char, Varchar, VarString, UUID, CSV, Array, Decimal, Numeric, Currency,
			Float, Double, Real, Bit, Binary, Varbinary, Set, Enum:
			return true
		}
		return false
	}
}
