package bunsource

import "github.com/goliatone/go-collections/catalog"

// queries holds the catalog queries of one dialect. ?0 is the schema name
// and ?1 the table name. Column queries return the columns of columnRow in
// ordinal order.
type queries struct {
	tables  string
	exists  string
	columns string
}

var dialectQueries = map[catalog.Dialect]queries{
	catalog.SQLite: {
		tables: `SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`,
		exists: `SELECT count(*) FROM sqlite_master
			WHERE type = 'table' AND name = ?1`,
		columns: `SELECT
				name AS column_name,
				type AS column_type,
				CASE WHEN "notnull" = 0 THEN 1 ELSE 0 END AS nullable,
				dflt_value AS default_value,
				CASE WHEN pk > 0 THEN 1 ELSE 0 END AS primary_key,
				0 AS auto_increment,
				cid + 1 AS position
			FROM pragma_table_info(?1)
			ORDER BY cid`,
	},
	catalog.Postgres: {
		tables: `SELECT table_name FROM information_schema.tables
			WHERE table_schema = ?0 AND table_type = 'BASE TABLE'
			ORDER BY table_name`,
		exists: `SELECT count(*) FROM information_schema.tables
			WHERE table_schema = ?0 AND table_name = ?1`,
		columns: `SELECT
				a.attname AS column_name,
				format_type(a.atttypid, a.atttypmod) AS column_type,
				CASE WHEN a.attnotnull THEN 0 ELSE 1 END AS nullable,
				pg_get_expr(d.adbin, d.adrelid) AS default_value,
				CASE WHEN EXISTS (
					SELECT 1 FROM pg_index i
					WHERE i.indrelid = c.oid AND i.indisprimary AND a.attnum = ANY(i.indkey)
				) THEN 1 ELSE 0 END AS primary_key,
				CASE WHEN a.attidentity <> '' OR coalesce(pg_get_expr(d.adbin, d.adrelid), '') LIKE 'nextval(%'
					THEN 1 ELSE 0 END AS auto_increment,
				a.attnum AS position
			FROM pg_attribute a
			JOIN pg_class c ON c.oid = a.attrelid
			JOIN pg_namespace n ON n.oid = c.relnamespace
			LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
			WHERE n.nspname = ?0 AND c.relname = ?1 AND a.attnum > 0 AND NOT a.attisdropped
			ORDER BY a.attnum`,
	},
	catalog.MySQL: {
		tables: `SELECT table_name AS table_name FROM information_schema.tables
			WHERE table_schema = ?0 AND table_type = 'BASE TABLE'
			ORDER BY table_name`,
		exists: `SELECT count(*) FROM information_schema.tables
			WHERE table_schema = ?0 AND table_name = ?1`,
		columns: `SELECT
				column_name AS column_name,
				column_type AS column_type,
				CASE WHEN is_nullable = 'YES' THEN 1 ELSE 0 END AS nullable,
				column_default AS default_value,
				CASE WHEN column_key = 'PRI' THEN 1 ELSE 0 END AS primary_key,
				CASE WHEN extra LIKE '%auto_increment%' THEN 1 ELSE 0 END AS auto_increment,
				ordinal_position AS position
			FROM information_schema.columns
			WHERE table_schema = ?0 AND table_name = ?1
			ORDER BY ordinal_position`,
	},
}

// columnRow is the physical description of one column.
type columnRow struct {
	Name          string  `bun:"column_name"`
	Type          string  `bun:"column_type"`
	Nullable      bool    `bun:"nullable"`
	Default       *string `bun:"default_value"`
	PrimaryKey    bool    `bun:"primary_key"`
	AutoIncrement bool    `bun:"auto_increment"`
	Position      int     `bun:"position"`
}

// collectionRow is a row of the collections metadata table.
type collectionRow struct {
	Collection string `bun:"collection"`
	Hidden     bool   `bun:"hidden"`
	Single     bool   `bun:"single"`
	Managed    bool   `bun:"managed"`
	Note       string `bun:"note"`
}

// fieldRow is a row of the fields metadata table.
type fieldRow struct {
	Collection string `bun:"collection"`
	Field      string `bun:"field"`
	Type       string `bun:"type"`
	Interface  string `bun:"interface"`
	Options    string `bun:"options"`
	Required   bool   `bun:"required"`
	Sort       int    `bun:"sort"`
	Note       string `bun:"note"`
}

// relationRow is a row of the relations metadata table.
type relationRow struct {
	ID                 int64  `bun:"id"`
	CollectionA        string `bun:"collection_a"`
	FieldA             string `bun:"field_a"`
	JunctionKeyA       string `bun:"junction_key_a"`
	JunctionCollection string `bun:"junction_collection"`
	JunctionKeyB       string `bun:"junction_key_b"`
	CollectionB        string `bun:"collection_b"`
	FieldB             string `bun:"field_b"`
}
