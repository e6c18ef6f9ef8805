package askdbctl

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/askdb/askdb/internal/eval"
	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/generate"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlguard"
)

func newEvalCmd(opts Options, flags *rootFlags) *cobra.Command {
	var (
		questionsPath   string
		groundTruthPath string
		prefix          string
		outputPath      string
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the benchmark against ground-truth SQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, flags)
			if err != nil {
				return err
			}

			questions, err := eval.LoadQuestions(questionsPath, prefix)
			if err != nil {
				return err
			}
			groundTruth, err := eval.LoadGroundTruth(groundTruthPath)
			if err != nil {
				return err
			}

			meanings, err := schema.LoadMeanings(cfg.Database.MeaningsPath)
			if err != nil {
				return err
			}
			knowledge, err := schema.LoadKnowledge(cfg.Database.KnowledgePath)
			if err != nil {
				return err
			}
			desc, err := schema.Builder{
				Path:       cfg.Database.Path,
				SampleRows: cfg.Database.SampleRows,
				Meanings:   meanings,
			}.Build(cmd.Context())
			if err != nil {
				return err
			}

			client, err := llm.New(cfg.LLM)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			runner := &eval.Runner{
				Questions:   questions,
				GroundTruth: groundTruth,
				SchemaText:  schema.Render(desc),
				Knowledge:   knowledge,
				Generator: &generate.Generator{
					Client:      client,
					Validator:   sqlguard.Validator{DatabasePath: cfg.Database.Path},
					MaxAttempts: cfg.Generation.MaxAttempts,
					Temperature: cfg.LLM.SQLTemperature,
					MaxTokens:   cfg.LLM.SQLMaxTokens,
					Logger:      logger,
				},
				Executor: executor.Executor{DatabasePath: cfg.Database.Path},
				Logger:   logger,
			}

			report, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Genauigkeit: %d/%d = %.1f%%\n",
				report.Summary.Correct, report.Summary.TotalQuestions, report.Summary.Accuracy)
			_, _ = fmt.Fprintln(out, "Fehlerverteilung:")
			_, _ = fmt.Fprintf(out, "  - SQL-Generierung fehlgeschlagen: %d\n", report.Summary.Errors[eval.StatusGenerationError])
			_, _ = fmt.Fprintf(out, "  - SQL-Ausführung fehlgeschlagen: %d\n", report.Summary.Errors[eval.StatusExecutionError])
			_, _ = fmt.Fprintf(out, "  - Falsche Ergebnisse: %d\n", report.Summary.Errors["wrong_results"])

			if err := eval.WriteReport(outputPath, report); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Ergebnisse gespeichert in: %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&questionsPath, "questions", "database/mini_interact.jsonl", "questions JSONL file")
	cmd.Flags().StringVar(&groundTruthPath, "ground-truth", "database/mini_interact_ground_truth.json", "ground truth JSON file")
	cmd.Flags().StringVar(&prefix, "prefix", "credit_", "instance ID prefix filter")
	cmd.Flags().StringVar(&outputPath, "output", "evaluation_results.json", "results output file")
	return cmd
}
