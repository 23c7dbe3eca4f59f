package ddl

import (
	"fmt"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-collections/catalog"
)

// CodeUnsupportedAlter marks alterations a dialect cannot express.
const CodeUnsupportedAlter = "UNSUPPORTED_ALTER"

const indent = "    "

var keywords = map[string]bool{
	"CURRENT_TIMESTAMP": true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"NULL":              true,
}

// Render returns the SQL statements implementing stmt in dialect d.
func Render(d catalog.Dialect, stmt Statement) ([]string, error) {
	switch s := stmt.(type) {
	case *CreateTable:
		return renderCreate(d, s)
	case *AlterTable:
		return renderAlter(d, s)
	case *DropTable:
		return []string{"DROP TABLE " + quote(d, s.Name)}, nil
	}
	return nil, fmt.Errorf("ddl: unsupported statement %T", stmt)
}

func renderCreate(d catalog.Dialect, s *CreateTable) ([]string, error) {
	if len(s.Columns) == 0 {
		return nil, goerrors.New(fmt.Sprintf("table %q has no columns", s.Name), goerrors.CategoryBadInput)
	}

	lines := make([]string, 0, len(s.Columns)+1)
	inlined := false
	for _, c := range s.Columns {
		if d == catalog.SQLite && c.Name == s.PrimaryKey && c.AutoIncrement && c.Type.IsInteger() {
			// sqlite only auto increments an inline INTEGER PRIMARY KEY
			lines = append(lines, indent+quote(d, c.Name)+" INTEGER PRIMARY KEY AUTOINCREMENT")
			inlined = true
			continue
		}
		lines = append(lines, indent+columnDefinition(d, c, true))
	}
	if s.PrimaryKey != "" && !inlined {
		lines = append(lines, indent+"PRIMARY KEY ("+quote(d, s.PrimaryKey)+")")
	}

	return []string{
		"CREATE TABLE " + quote(d, s.Name) + " (\n" + strings.Join(lines, ",\n") + "\n)",
	}, nil
}

func renderAlter(d catalog.Dialect, s *AlterTable) ([]string, error) {
	if s.Empty() {
		return nil, nil
	}
	table := quote(d, s.Name)

	if d == catalog.SQLite {
		if len(s.Change) > 0 {
			return nil, goerrors.New(
				fmt.Sprintf("sqlite cannot change column %q of %q", s.Change[0].Name, s.Name),
				goerrors.CategoryBadInput,
			).WithTextCode(CodeUnsupportedAlter)
		}
		out := make([]string, 0, len(s.Add)+len(s.Drop))
		for _, c := range s.Add {
			out = append(out, "ALTER TABLE "+table+" ADD COLUMN "+columnDefinition(d, c, false))
		}
		for _, name := range s.Drop {
			out = append(out, "ALTER TABLE "+table+" DROP COLUMN "+quote(d, name))
		}
		return out, nil
	}

	var parts []string
	for _, c := range s.Add {
		parts = append(parts, "ADD COLUMN "+columnDefinition(d, c, true))
	}
	for _, c := range s.Change {
		if d == catalog.Postgres {
			parts = append(parts, postgresChange(c)...)
			continue
		}
		parts = append(parts, "CHANGE COLUMN "+quote(d, c.Name)+" "+columnDefinition(d, c, true))
	}
	for _, name := range s.Drop {
		parts = append(parts, "DROP COLUMN "+quote(d, name))
	}

	return []string{
		"ALTER TABLE " + table + "\n" + indent + strings.Join(parts, ",\n"+indent),
	}, nil
}

func postgresChange(c Column) []string {
	col := "ALTER COLUMN " + quote(catalog.Postgres, c.Name)
	parts := []string{col + " TYPE " + columnType(catalog.Postgres, c, false)}
	if c.Nullable {
		parts = append(parts, col+" DROP NOT NULL")
	} else {
		parts = append(parts, col+" SET NOT NULL")
	}
	if c.Default != nil {
		parts = append(parts, col+" SET DEFAULT "+literal(catalog.Postgres, c.Default))
	} else {
		parts = append(parts, col+" DROP DEFAULT")
	}
	return parts
}

// columnDefinition renders a column. serial allows postgres to swap
// auto incrementing integers for serial kinds.
func columnDefinition(d catalog.Dialect, c Column, serial bool) string {
	var b strings.Builder
	b.WriteString(quote(d, c.Name))
	b.WriteByte(' ')
	b.WriteString(columnType(d, c, serial))

	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil && !c.AutoIncrement {
		b.WriteString(" DEFAULT ")
		b.WriteString(literal(d, c.Default))
	}
	if d == catalog.MySQL && c.AutoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	return b.String()
}

func columnType(d catalog.Dialect, c Column, serial bool) string {
	kind := catalog.ColumnKind(d, c.Type)
	if d == catalog.Postgres && serial && c.AutoIncrement && c.Type.IsInteger() {
		switch kind {
		case "SMALLINT":
			kind = "SMALLSERIAL"
		case "BIGINT", "BIGSERIAL":
			kind = "BIGSERIAL"
		default:
			kind = "SERIAL"
		}
	}
	if c.Length != "" && catalog.AcceptsLength(d, c.Type) {
		kind += "(" + c.Length + ")"
	}
	if d == catalog.MySQL && c.Unsigned && c.Type.IsNumeric() {
		kind += " UNSIGNED"
	}
	return kind
}

func literal(d catalog.Dialect, v any) string {
	switch x := v.(type) {
	case string:
		if keywords[strings.ToUpper(x)] {
			return strings.ToUpper(x)
		}
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case bool:
		if d == catalog.Postgres {
			return strings.ToUpper(strconv.FormatBool(x))
		}
		if x {
			return "1"
		}
		return "0"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
}

func quote(d catalog.Dialect, ident string) string {
	if d == catalog.MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
