// Package cli implements the collectionsctl commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-collections/config"
	"github.com/goliatone/go-collections/pkg/di"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Driver     string
	DSN        string
	Format     string // "json" | "text"
	Verbose    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of collectionsctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "collectionsctl",
		Short: "Manage collections and their records",
		Long: `collectionsctl creates, alters and drops collection tables from YAML
field descriptions, describes collections and reads records through the
lifecycle pipeline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to the YAML configuration")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite|postgres|mysql), overrides the configuration")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "database DSN, overrides the configuration")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(NewCreateTableCommand(opts))
	cmd.AddCommand(NewAlterTableCommand(opts))
	cmd.AddCommand(NewDropTableCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))

	return cmd
}

// loadConfig reads the configuration file, if any, and applies the flag
// overrides.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg := config.Default()
	cfg.Logging = config.LoggingConfig{Env: "local", Level: "warn"}
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if o.Driver != "" {
		cfg.Database.Driver = o.Driver
	}
	if o.DSN != "" {
		cfg.Database.DSN = o.DSN
	}
	if o.Verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// container builds the engine for one command run. The caller closes it.
func (o *RootOptions) container(ctx context.Context) (*di.Container, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return di.NewContainer(ctx, cfg)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
