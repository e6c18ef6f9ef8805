package askdbctl

import (
	"github.com/spf13/cobra"

	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/sqlguard"
)

func newQueryCmd(opts Options, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a read-only SQL query against the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, flags)
			if err != nil {
				return err
			}

			validator := sqlguard.Validator{DatabasePath: cfg.Database.Path}
			cleaned, err := validator.Validate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			exec := executor.Executor{DatabasePath: cfg.Database.Path}
			result, err := exec.Execute(cmd.Context(), cleaned)
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), flags.format, result)
		},
	}
}
