package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-collections/hook"
	"github.com/goliatone/go-collections/records"
)

// RecordsOptions holds the flags of the record commands.
type RecordsOptions struct {
	Columns []string
	IDs     []string
}

// RecordsResult is the JSON payload of the record commands.
type RecordsResult struct {
	Collection string           `json:"collection"`
	Public     bool             `json:"public"`
	Records    []map[string]any `json:"records"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordsOptions{}

	cmd := &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Read one record through the lifecycle pipeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rootOpts.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			row, err := c.Records().Find(ctx, args[0], parseID(args[1]), opts.Columns...)
			if err != nil {
				return err
			}
			if row == nil {
				return fmt.Errorf("record %s of %s not found", args[1], args[0])
			}
			return respond(cmd, rootOpts, c.Records(), args[0], []map[string]any{row})
		},
	}

	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "columns to return")

	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordsOptions{}

	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List records through the lifecycle pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := rootOpts.container(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			q := records.Query{Columns: opts.Columns}
			for _, id := range opts.IDs {
				q.IDs = append(q.IDs, parseID(id))
			}
			rows, err := c.Records().Select(ctx, args[0], q)
			if err != nil {
				return err
			}
			return respond(cmd, rootOpts, c.Records(), args[0], rows)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "columns to return")
	cmd.Flags().StringSliceVar(&opts.IDs, "ids", nil, "primary keys to read")

	return cmd
}

// respond runs the response filters and prints the records.
func respond(cmd *cobra.Command, rootOpts *RootOptions, svc *records.Service, collection string, rows []map[string]any) error {
	p, err := svc.Respond(cmd.Context(), map[string]any{"data": rows})
	if err != nil {
		return err
	}
	result := RecordsResult{Collection: collection, Records: rows}
	if v, ok := p.Attribute(hook.AttrPublic); ok {
		result.Public, _ = v.(bool)
	}
	if result.Records == nil {
		result.Records = []map[string]any{}
	}

	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	message := fmt.Sprintf("%d record(s) of %s", len(rows), collection)
	return formatter.Success(result, message, func(w io.Writer) error {
		return writeRecords(w, rows)
	})
}

// parseID keeps numeric keys numeric so they match stored integer keys.
func parseID(raw string) any {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}
