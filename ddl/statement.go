package ddl

import (
	"github.com/goliatone/go-collections/catalog"
	"github.com/goliatone/go-collections/hook"
)

// Description is an abstract field description as stored in collection
// metadata or sent by a client: field, type and interface are required,
// length, nullable, default_value, unsigned and auto_increment are optional.
type Description map[string]any

// Changes groups the column lists of an alter statement.
type Changes struct {
	Add    []Description `yaml:"add" json:"add"`
	Change []Description `yaml:"change" json:"change"`
	Drop   []string      `yaml:"drop" json:"drop"`
}

// Column is a dialect independent column definition.
type Column struct {
	Name          string
	Type          catalog.Type
	Interface     string
	Length        string
	Nullable      bool
	Default       any
	AutoIncrement bool
	Unsigned      bool
}

// Statement is a synthesized DDL statement.
type Statement interface {
	TableName() string
	event() string
	operation() string
}

// CreateTable creates a table with at most one primary key constraint.
type CreateTable struct {
	Name       string
	Columns    []Column
	PrimaryKey string
}

func (s *CreateTable) TableName() string { return s.Name }
func (s *CreateTable) event() string     { return hook.EventTableCreate }
func (s *CreateTable) operation() string { return "create table" }

// Column returns the named column.
func (s *CreateTable) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// AlterTable adds, changes and drops columns of an existing table.
type AlterTable struct {
	Name   string
	Add    []Column
	Change []Column
	Drop   []string
}

func (s *AlterTable) TableName() string { return s.Name }
func (s *AlterTable) event() string     { return hook.EventTableAlter }
func (s *AlterTable) operation() string { return "alter table" }

// Empty reports whether the statement has nothing to do.
func (s *AlterTable) Empty() bool {
	return len(s.Add) == 0 && len(s.Change) == 0 && len(s.Drop) == 0
}

// DropTable drops a table.
type DropTable struct {
	Name string
}

func (s *DropTable) TableName() string { return s.Name }
func (s *DropTable) event() string     { return hook.EventTableDrop }
func (s *DropTable) operation() string { return "drop table" }
