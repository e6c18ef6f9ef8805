package askdbctl

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/pipeline"
)

func newAskCmd(opts Options, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a natural-language question against the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, flags)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			service, _, err := pipeline.FromConfig(cfg, logger)
			if err != nil {
				return err
			}

			response, err := service.Ask(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "SQL: %s\n\n", response.SQL)
			_, _ = fmt.Fprintf(out, "%s\n\n", response.Answer)
			if err := renderResult(out, flags.format, executor.Result{
				Columns: response.Result.Columns,
				Rows:    response.TableData,
			}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Konfidenz: %s\n", response.Confidence)
			return nil
		},
	}
}
