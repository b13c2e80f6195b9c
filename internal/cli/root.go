package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/trellis/internal/config"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Backend    string // overrides config when set
	DataPath   string // overrides config when set
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the trellis CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "trellis",
		Short: "Trellis - an embeddable node and relation store",
		Long: `Trellis stores nodes and directed, named relations in a transactional
key-value engine and walks the graph they form. Every command opens the
store, runs one operation, and exits; the serve command exposes the same
operations over HTTP.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Backend != "" &&
				opts.Backend != config.BackendBadger && opts.Backend != config.BackendSQLite {
				return fmt.Errorf("invalid backend %q: must be %q or %q",
					opts.Backend, config.BackendBadger, config.BackendSQLite)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend (badger|sqlite), overrides config")
	cmd.PersistentFlags().StringVar(&opts.DataPath, "path", "", "storage path, overrides config")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewNodeCommand(opts))
	cmd.AddCommand(NewRelationCommand(opts))
	cmd.AddCommand(NewWalkCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}