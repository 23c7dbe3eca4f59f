package schema

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-collections/catalog"
	"github.com/google/uuid"
)

// Date layouts values are normalized to.
const (
	DateLayout     = "2006-01-02"
	DatetimeLayout = "2006-01-02 15:04:05"

	zeroDate     = "0000-00-00"
	zeroDatetime = "0000-00-00 00:00:00"
)

// Record is one flat row of field values.
type Record = map[string]any

// Records is a single record or a sequence of records.
type Records interface {
	Record | []Record
}

// CastRecordValues casts every field present in records with CastValue and
// returns the same shape it received. Records are modified in place.
func CastRecordValues[T Records](records T, fields []*Field) T {
	switch v := any(records).(type) {
	case Record:
		castRecord(v, fields)
	case []Record:
		for _, r := range v {
			castRecord(r, fields)
		}
	}
	return records
}

func castRecord(r Record, fields []*Field) {
	if r == nil {
		return
	}
	for _, f := range fields {
		if v, ok := r[f.Name]; ok {
			r[f.Name] = CastValue(v, f.Type)
		}
	}
}

// CastValue coerces a stored value into the canonical Go value for type t.
// Casting is idempotent: a value already in canonical form is returned
// unchanged.
func CastValue(v any, t catalog.Type) any {
	t = catalog.Normalize(string(t))
	switch {
	case t.IsBoolean():
		return truthy(v)
	case t.IsBinary():
		return castBinary(v)
	case t.IsInteger():
		return castInteger(v)
	case t.IsFloatingPoint():
		return castFloat(v)
	case t == catalog.Date:
		return castDate(v, DateLayout, zeroDate)
	case t == catalog.Datetime, t == catalog.Timestamp:
		return castDate(v, DatetimeLayout, zeroDatetime)
	case t == catalog.Time:
		if isEmpty(v) {
			return nil
		}
		return v
	case t == catalog.UUID:
		return castUUID(v)
	}
	return v
}

// CastDefaultValue casts a column default; the literal "null" means no
// default.
func CastDefaultValue(v any, t catalog.Type) any {
	if s, ok := v.(string); ok && strings.EqualFold(s, "null") {
		return nil
	}
	if v == nil {
		return nil
	}
	return CastValue(v, t)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "0"
	case []byte:
		return len(t) > 0 && string(t) != "0"
	case int:
		return t != 0
	case int8:
		return t != 0
	case int16:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case uint:
		return t != 0
	case uint8:
		return t != 0
	case uint16:
		return t != 0
	case uint32:
		return t != 0
	case uint64:
		return t != 0
	case float32:
		return t != 0
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

func castBinary(v any) any {
	if b, ok := v.([]byte); ok {
		return base64.StdEncoding.EncodeToString(b)
	}
	return v
}

func castInteger(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case int64:
		return t
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return int64(t)
	case float64:
		return int64(t)
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	case []byte:
		return leadingInt(string(t))
	case string:
		return leadingInt(t)
	}
	return v
}

// leadingInt reads the leading integer of s, "12abc" is 12 and "abc" is 0.
func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil && !math.IsNaN(f) {
			return int64(f)
		}
		return 0
	}
	return n
}

func castFloat(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return t
	case float32:
		return float64(t)
	case []byte:
		return parseFloat(string(t))
	case string:
		return parseFloat(t)
	case bool:
		if t {
			return float64(1)
		}
		return float64(0)
	}
	if n, ok := castInteger(v).(int64); ok {
		return float64(n)
	}
	return v
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func castDate(v any, layout, zero string) any {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return t.Format(layout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		return t.Format(layout)
	case []byte:
		s = string(t)
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" || s == zero || strings.HasPrefix(s, zeroDate) {
		return nil
	}
	for _, l := range []string{layout, time.RFC3339Nano, DatetimeLayout, DateLayout} {
		if parsed, err := time.Parse(l, s); err == nil {
			return parsed.Format(layout)
		}
	}
	return nil
}

func castUUID(v any) any {
	switch t := v.(type) {
	case []byte:
		if len(t) == 16 {
			if id, err := uuid.FromBytes(t); err == nil {
				return id.String()
			}
		}
		return string(t)
	case uuid.UUID:
		return t.String()
	}
	return v
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == "" || t == "0"
	case []byte:
		return len(t) == 0 || string(t) == "0"
	}
	return false
}
