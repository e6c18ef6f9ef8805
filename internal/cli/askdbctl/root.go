// Package askdbctl implements the askdbctl command-line interface.
package askdbctl

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/askdb/askdb/internal/config"
)

// Options carries process-level defaults so tests can inject lookup
// functions and capture output.
type Options struct {
	Lookup config.LookupFunc
	Stdout io.Writer
	Stderr io.Writer
}

type rootFlags struct {
	dbPath string
	format string
}

// NewRootCmd creates the askdbctl root command.
func NewRootCmd(opts Options) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "askdbctl",
		Short:         "Natürlichsprachliche Abfragen und Inspektion der Kreditdatenbank",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if opts.Stdout != nil {
		root.SetOut(opts.Stdout)
	}
	if opts.Stderr != nil {
		root.SetErr(opts.Stderr)
	}

	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "SQLite database path (overrides configuration)")
	root.PersistentFlags().StringVar(&flags.format, "format", "table", "output format (table|json|csv)")

	root.AddCommand(
		newSchemaCmd(opts, flags),
		newQueryCmd(opts, flags),
		newAskCmd(opts, flags),
		newEvalCmd(opts, flags),
	)
	return root
}

func loadConfig(opts Options, flags *rootFlags) (config.Config, error) {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg, err := config.Load("askdbctl", lookup)
	if err != nil {
		return config.Config{}, err
	}
	if flags.dbPath != "" {
		cfg.Database.Path = flags.dbPath
	}
	return cfg, nil
}
