package ddl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/goliatone/go-collections/catalog"
	"github.com/goliatone/go-collections/errs"
	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/schema"
)

// Factory turns field descriptions into statements and executes them
// through the schema source of its manager.
type Factory struct {
	manager *schema.Manager
	emitter *hook.Emitter
	logger  *zap.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithEmitter makes BuildTable fire table.<op>:after events.
func WithEmitter(e *hook.Emitter) Option {
	return func(f *Factory) { f.emitter = e }
}

// WithLogger sets the factory logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFactory builds a Factory over manager.
func NewFactory(manager *schema.Manager, opts ...Option) *Factory {
	f := &Factory{manager: manager, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Dialect returns the dialect statements are rendered for.
func (f *Factory) Dialect() catalog.Dialect { return f.manager.Source().Dialect() }

// CreateTable validates descs and builds a create statement. The first
// description with the primary_key interface becomes the primary key.
func (f *Factory) CreateTable(name string, descs []Description) (*CreateTable, error) {
	if err := ValidateDescriptions(descs); err != nil {
		return nil, err
	}

	stmt := &CreateTable{Name: name}
	for _, d := range descs {
		if !isPrimaryKey(d) {
			continue
		}
		field := d["field"].(string)
		if stmt.PrimaryKey == "" {
			stmt.PrimaryKey = field
			continue
		}
		f.logger.Warn("more than one primary key description, keeping the first",
			zap.String("table", name),
			zap.String("primary_key", stmt.PrimaryKey),
			zap.String("ignored", field),
		)
	}

	for _, c := range f.createColumns(descs) {
		if c.Name == stmt.PrimaryKey {
			c.Nullable = false
		}
		stmt.Columns = append(stmt.Columns, c)
	}
	return stmt, nil
}

// AlterTable validates the add and change lists together and builds an
// alter statement. Drop names pass through unchanged.
func (f *Factory) AlterTable(name string, changes Changes) (*AlterTable, error) {
	out := validation.Errors{}
	validateAll(out, "add", changes.Add)
	validateAll(out, "change", changes.Change)
	if err := aggregate(out); err != nil {
		return nil, err
	}
	return &AlterTable{
		Name:   name,
		Add:    f.createColumns(changes.Add),
		Change: f.createColumns(changes.Change),
		Drop:   append([]string(nil), changes.Drop...),
	}, nil
}

// DropTable builds a drop statement.
func (f *Factory) DropTable(name string) *DropTable {
	return &DropTable{Name: name}
}

// CreateColumns validates descs and converts them to columns. Alias typed
// descriptions have no physical column and are skipped.
func (f *Factory) CreateColumns(descs []Description) ([]Column, error) {
	if err := ValidateDescriptions(descs); err != nil {
		return nil, err
	}
	return f.createColumns(descs), nil
}

func (f *Factory) createColumns(descs []Description) []Column {
	columns := make([]Column, 0, len(descs))
	for _, d := range descs {
		c := f.createColumn(d)
		if c.Type.IsAlias() {
			continue
		}
		columns = append(columns, c)
	}
	return columns
}

func (f *Factory) createColumn(d Description) Column {
	t := f.manager.DataType(strings.ToUpper(d["type"].(string)))

	c := Column{
		Name:      d["field"].(string),
		Type:      t,
		Interface: d["interface"].(string),
		Length:    f.manager.DefaultLength(t),
		Nullable:  boolOption(d, "nullable", true),
		Default:   d["default_value"],
	}
	if v, ok := d["length"]; ok && v != nil {
		c.Length = lengthString(v)
	}

	if t.IsInteger() {
		c.AutoIncrement = boolOption(d, "auto_increment", false)
		c.Unsigned = boolOption(d, "unsigned", false)
		c.Length = ""
	}
	return c
}

// Render returns the SQL of stmt for the factory dialect.
func (f *Factory) Render(stmt Statement) ([]string, error) {
	return Render(f.Dialect(), stmt)
}

// BuildTable renders and executes stmt through the schema source. The
// manager forgets the table afterwards. Execution failures are wrapped as
// adapter failures with the source error kept as the cause.
func (f *Factory) BuildTable(ctx context.Context, stmt Statement) error {
	statements, err := f.Render(stmt)
	if err != nil {
		return err
	}
	if len(statements) == 0 {
		return nil
	}

	f.logger.Debug("build table",
		zap.String("operation", stmt.operation()),
		zap.String("table", stmt.TableName()),
		zap.Strings("sql", statements),
	)
	if err := f.manager.Source().Exec(ctx, statements...); err != nil {
		return errs.AdapterExecution(stmt.operation(), stmt.TableName(), err)
	}
	f.manager.Evict(stmt.TableName())

	if f.emitter == nil {
		return nil
	}
	p := hook.NewPayload(nil).WithAttribute(hook.AttrCollection, stmt.TableName())
	_, err = f.emitter.Run(ctx, hook.After(stmt.event()), p)
	return err
}

// MergeDefaultPrimaryKey prepends an integer id primary key when no
// description claims the primary_key interface.
func MergeDefaultPrimaryKey(descs []Description) []Description {
	for _, d := range descs {
		if isPrimaryKey(d) {
			return descs
		}
	}
	out := make([]Description, 0, len(descs)+1)
	out = append(out, Description{
		"field":          "id",
		"type":           "INTEGER",
		"interface":      "primary_key",
		"auto_increment": true,
		"unsigned":       true,
		"nullable":       false,
	})
	return append(out, descs...)
}

func isPrimaryKey(d Description) bool {
	iface, _ := d["interface"].(string)
	return schema.ParseInterface(iface).Is(schema.InterfacePrimaryKey)
}

func boolOption(d Description, key string, def bool) bool {
	switch v := d[key].(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func lengthString(v any) string {
	switch l := v.(type) {
	case string:
		return l
	case float64:
		return strconv.FormatFloat(l, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
