package bunsource

import (
	"strings"

	"github.com/goliatone/go-collections/catalog"
)

// physical type names reported by the databases that differ from the
// logical name
var physicalTypes = map[string]catalog.Type{
	"character varying":           catalog.Varchar,
	"character":                   catalog.Char,
	"bpchar":                      catalog.Char,
	"int2":                        catalog.SmallInt,
	"int4":                        catalog.Integer,
	"int8":                        catalog.BigInt,
	"smallserial":                 catalog.SmallInt,
	"bigserial":                   catalog.BigInt,
	"float4":                      catalog.Real,
	"float8":                      catalog.Double,
	"double precision":            catalog.Double,
	"timestamp without time zone": catalog.Timestamp,
	"timestamp with time zone":    catalog.Timestamp,
	"timestamptz":                 catalog.Timestamp,
	"time without time zone":      catalog.Time,
	"time with time zone":         catalog.Time,
	"jsonb":                       catalog.JSON,
	"bytea":                       catalog.Blob,
	"bit varying":                 catalog.Bit,
	"varbit":                      catalog.Bit,
}

// columnType splits a physical column type such as "varchar(255)",
// "int(10) unsigned" or "timestamp(6) without time zone" into its logical
// type, its length and its sign.
func columnType(raw string) (t catalog.Type, length string, unsigned bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, mod := range []string{" unsigned", " zerofill"} {
		if strings.Contains(s, mod) {
			if mod == " unsigned" {
				unsigned = true
			}
			s = strings.ReplaceAll(s, mod, "")
		}
	}

	if open := strings.Index(s, "("); open >= 0 {
		if end := strings.LastIndex(s, ")"); end > open {
			length = strings.ReplaceAll(s[open+1:end], " ", "")
			s = strings.Join(strings.Fields(s[:open]+" "+s[end+1:]), " ")
		}
	}

	t = logicalType(s)
	if t.IsInteger() {
		length = ""
	}
	return t, length, unsigned
}

func logicalType(name string) catalog.Type {
	name = strings.ToLower(strings.TrimSpace(name))
	if t, ok := physicalTypes[name]; ok {
		return t
	}
	return catalog.Normalize(name)
}

// cleanDefault strips the quoting and casts databases add to literal
// defaults. Expressions such as nextval(...) are reported as nil.
func cleanDefault(raw *string, autoIncrement bool) any {
	if raw == nil || autoIncrement {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if strings.HasPrefix(s, "nextval(") {
		return nil
	}
	if i := strings.Index(s, "::"); i > 0 && strings.HasPrefix(s, "'") {
		s = s[:i]
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}
