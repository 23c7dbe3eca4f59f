package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-collections/ddl"
)

// TableOptions holds the flags shared by the DDL commands.
type TableOptions struct {
	File      string
	DryRun    bool
	DefaultPK bool
}

// TableResult is the JSON payload of the DDL commands.
type TableResult struct {
	Table      string   `json:"table"`
	Operation  string   `json:"operation"`
	Statements []string `json:"statements"`
	Applied    bool     `json:"applied"`
}

// NewCreateTableCommand creates the create-table command.
func NewCreateTableCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TableOptions{}

	cmd := &cobra.Command{
		Use:   "create-table <table>",
		Short: "Create a table from a YAML list of field descriptions",
		Long: `Create a table from a YAML list of field descriptions.

Each description names at least field, type and interface:

  - field: id
    type: integer
    interface: primary_key
    auto_increment: true
  - field: title
    type: varchar
    interface: text-input
    length: 255`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var descs []ddl.Description
			if err := readYAML(opts.File, cmd.InOrStdin(), &descs); err != nil {
				return err
			}
			if opts.DefaultPK {
				descs = ddl.MergeDefaultPrimaryKey(descs)
			}
			return runTable(rootOpts, opts, cmd, "create", func(f *ddl.Factory) (ddl.Statement, error) {
				return f.CreateTable(args[0], descs)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML description file, - reads stdin")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the SQL without executing it")
	cmd.Flags().BoolVar(&opts.DefaultPK, "default-pk", false, "add an id primary key when none is described")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// NewAlterTableCommand creates the alter-table command.
func NewAlterTableCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TableOptions{}

	cmd := &cobra.Command{
		Use:   "alter-table <table>",
		Short: "Alter a table from a YAML change set",
		Long: `Alter a table from a YAML change set with add, change and drop lists:

  add:
    - field: subtitle
      type: varchar
      interface: text-input
  drop: [legacy]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var changes ddl.Changes
			if err := readYAML(opts.File, cmd.InOrStdin(), &changes); err != nil {
				return err
			}
			return runTable(rootOpts, opts, cmd, "alter", func(f *ddl.Factory) (ddl.Statement, error) {
				return f.AlterTable(args[0], changes)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML change file, - reads stdin")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the SQL without executing it")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// NewDropTableCommand creates the drop-table command.
func NewDropTableCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TableOptions{}

	cmd := &cobra.Command{
		Use:   "drop-table <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTable(rootOpts, opts, cmd, "drop", func(f *ddl.Factory) (ddl.Statement, error) {
				return f.DropTable(args[0]), nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the SQL without executing it")

	return cmd
}

func runTable(rootOpts *RootOptions, opts *TableOptions, cmd *cobra.Command, operation string, build func(*ddl.Factory) (ddl.Statement, error)) error {
	ctx := cmd.Context()
	c, err := rootOpts.container(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	stmt, err := build(c.Factory())
	if err != nil {
		return err
	}
	statements, err := c.Factory().Render(stmt)
	if err != nil {
		return err
	}

	result := TableResult{
		Table:      stmt.TableName(),
		Operation:  operation,
		Statements: statements,
	}
	if !opts.DryRun {
		if err := c.Factory().BuildTable(ctx, stmt); err != nil {
			return err
		}
		result.Applied = true
	}

	message := fmt.Sprintf("%s table %s", operation, result.Table)
	if !result.Applied {
		message += " (dry run)"
	}
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(result, message, func(w io.Writer) error {
		if !rootOpts.Verbose && result.Applied {
			return nil
		}
		for _, s := range statements {
			if _, err := fmt.Fprintln(w, strings.TrimSpace(s)+";"); err != nil {
				return err
			}
		}
		return nil
	})
}
