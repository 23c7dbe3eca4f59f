package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-collections/schema"
)

// FieldView is the printed form of a field.
type FieldView struct {
	Field         string         `json:"field"`
	Type          string         `json:"type"`
	Interface     string         `json:"interface"`
	Length        string         `json:"length,omitempty"`
	Nullable      bool           `json:"nullable"`
	Required      bool           `json:"required"`
	AutoIncrement bool           `json:"auto_increment,omitempty"`
	DefaultValue  any            `json:"default_value,omitempty"`
	Options       map[string]any `json:"options,omitempty"`
	Relation      string         `json:"relation,omitempty"`
}

// CollectionView is the printed form of a collection.
type CollectionView struct {
	Collection string      `json:"collection"`
	PrimaryKey string      `json:"primary_key"`
	Hidden     bool        `json:"hidden,omitempty"`
	Single     bool        `json:"single,omitempty"`
	Note       string      `json:"note,omitempty"`
	Fields     []FieldView `json:"fields"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <collection>",
		Short: "Describe the fields of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rootOpts.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			collection, err := c.Schema().Collection(ctx, args[0], true)
			if err != nil {
				return err
			}
			view := describeCollection(collection)

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(view, "collection "+view.Collection, func(w io.Writer) error {
				return writeFields(w, view.Fields)
			})
		},
	}

	return cmd
}

func describeCollection(c *schema.Collection) CollectionView {
	view := CollectionView{
		Collection: c.Name,
		PrimaryKey: c.PrimaryKeyName(),
		Hidden:     c.Hidden,
		Single:     c.Single,
		Note:       c.Note,
	}
	for _, f := range c.Fields() {
		fv := FieldView{
			Field:         f.Name,
			Type:          f.Type.String(),
			Interface:     f.Interface.String(),
			Length:        f.Length,
			Nullable:      f.Nullable,
			Required:      f.Required,
			AutoIncrement: f.AutoIncrement,
			DefaultValue:  f.DefaultValue,
			Options:       f.Options,
		}
		if r, side, ok := f.Relation(); ok {
			fv.Relation = relationLabel(r, side)
		}
		view.Fields = append(view.Fields, fv)
	}
	return view
}

func relationLabel(r *schema.Relation, side schema.Side) string {
	if side == schema.SideB {
		return fmt.Sprintf("%s.%s", r.CollectionA, r.FieldA)
	}
	return r.CollectionB
}

func writeFields(w io.Writer, fields []FieldView) error {
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, []string{
			f.Field,
			f.Type,
			f.Interface,
			f.Length,
			strconv.FormatBool(f.Nullable),
			cell(f.DefaultValue),
			f.Relation,
		})
	}
	return writeTable(w, []string{"FIELD", "TYPE", "INTERFACE", "LENGTH", "NULLABLE", "DEFAULT", "RELATION"}, rows)
}
