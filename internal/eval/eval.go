// Package eval runs a batch benchmark: generate SQL for each question,
// execute prediction and ground truth, and compare normalized results.
package eval

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/generate"
)

// Question is one benchmark entry from the questions JSONL file.
type Question struct {
	InstanceID string `json:"instance_id"`
	Question   string `json:"question"`
}

// GroundTruthEntry holds the reference SQL for one instance.
type GroundTruthEntry struct {
	SQL string `json:"sql"`
}

// LoadQuestions reads a JSONL file and keeps entries whose instance ID
// starts with prefix. An empty prefix keeps everything.
func LoadQuestions(path, prefix string) ([]Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open questions file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var questions []Question
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var q Question
		if err := json.Unmarshal([]byte(text), &q); err != nil {
			return nil, fmt.Errorf("questions file line %d: %w", line, err)
		}
		if prefix == "" || strings.HasPrefix(q.InstanceID, prefix) {
			questions = append(questions, q)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	return questions, nil
}

// LoadGroundTruth reads the instance → reference SQL mapping.
func LoadGroundTruth(path string) (map[string]GroundTruthEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open ground truth file: %w", err)
	}
	truth := map[string]GroundTruthEntry{}
	if err := json.Unmarshal(data, &truth); err != nil {
		return nil, fmt.Errorf("parse ground truth file: %w", err)
	}
	return truth, nil
}

// Normalize renders rows order-independently: each row becomes its
// column/value pairs sorted by column name, then all rows are sorted.
func Normalize(rows []map[string]any) []string {
	normalized := make([]string, 0, len(rows))
	for _, row := range rows {
		cols := make([]string, 0, len(row))
		for col := range row {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		pairs := make([]string, 0, len(cols))
		for _, col := range cols {
			pairs = append(pairs, fmt.Sprintf("%s=%v", col, row[col]))
		}
		normalized = append(normalized, strings.Join(pairs, "|"))
	}
	sort.Strings(normalized)
	return normalized
}

// Compare reports whether two result sets match after normalization.
func Compare(pred, truth []map[string]any) bool {
	a, b := Normalize(pred), Normalize(truth)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Outcome statuses, one per failure mode plus success.
const (
	StatusSuccess          = "success"
	StatusGenerationError  = "generation_error"
	StatusNoGroundTruth    = "no_ground_truth"
	StatusExecutionError   = "execution_error"
	StatusGroundTruthError = "ground_truth_error"
)

// Outcome records the evaluation of a single question.
type Outcome struct {
	InstanceID      string `json:"instance_id"`
	Question        string `json:"question"`
	PredictedSQL    string `json:"predicted_sql,omitempty"`
	GroundTruthSQL  string `json:"ground_truth_sql,omitempty"`
	PredictedRows   int    `json:"predicted_results_count,omitempty"`
	GroundTruthRows int    `json:"ground_truth_results_count,omitempty"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	Correct         bool   `json:"correct"`
}

// Summary aggregates a run.
type Summary struct {
	TotalQuestions int            `json:"total_questions"`
	Correct        int            `json:"correct"`
	Accuracy       float64        `json:"accuracy"`
	Errors         map[string]int `json:"errors"`
}

// Report is the persisted evaluation output.
type Report struct {
	Summary Summary   `json:"summary"`
	Results []Outcome `json:"results"`
}

// SQLGenerator runs the bounded generate-validate loop.
type SQLGenerator interface {
	Generate(ctx context.Context, in generate.Input) (generate.Generation, error)
}

// QueryExecutor runs SQL against the database.
type QueryExecutor interface {
	Execute(ctx context.Context, sqlText string) (executor.Result, error)
}

// Runner evaluates a question set against ground truth.
type Runner struct {
	Questions   []Question
	GroundTruth map[string]GroundTruthEntry
	SchemaText  string
	Knowledge   []json.RawMessage
	Generator   SQLGenerator
	Executor    QueryExecutor
	Logger      *slog.Logger
}

// Run evaluates every question in order. Per-question failures are
// recorded as outcomes, not returned as errors; only context
// cancellation aborts the run.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	results := make([]Outcome, 0, len(r.Questions))
	for _, q := range r.Questions {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		outcome := r.evaluate(ctx, q)
		if r.Logger != nil {
			r.Logger.Info("question evaluated",
				slog.String("instance_id", outcome.InstanceID),
				slog.String("status", outcome.Status),
				slog.Bool("correct", outcome.Correct))
		}
		results = append(results, outcome)
	}
	return Report{Summary: summarize(results), Results: results}, nil
}

func (r *Runner) evaluate(ctx context.Context, q Question) Outcome {
	outcome := Outcome{InstanceID: q.InstanceID, Question: q.Question}

	gen, err := r.Generator.Generate(ctx, generate.Input{
		Question:   q.Question,
		SchemaText: r.SchemaText,
		Knowledge:  r.Knowledge,
	})
	if err != nil {
		outcome.Status = StatusGenerationError
		outcome.Error = err.Error()
		return outcome
	}
	if gen.Rejected() {
		outcome.Status = StatusGenerationError
		outcome.PredictedSQL = gen.SQL
		outcome.Error = gen.Reason
		return outcome
	}
	outcome.PredictedSQL = gen.SQL

	truth, ok := r.GroundTruth[q.InstanceID]
	if !ok || truth.SQL == "" {
		outcome.Status = StatusNoGroundTruth
		return outcome
	}
	outcome.GroundTruthSQL = truth.SQL

	pred, err := r.Executor.Execute(ctx, gen.SQL)
	if err != nil {
		outcome.Status = StatusExecutionError
		outcome.Error = err.Error()
		return outcome
	}
	expected, err := r.Executor.Execute(ctx, truth.SQL)
	if err != nil {
		outcome.Status = StatusGroundTruthError
		outcome.Error = err.Error()
		return outcome
	}

	outcome.PredictedRows = len(pred.Rows)
	outcome.GroundTruthRows = len(expected.Rows)
	outcome.Status = StatusSuccess
	outcome.Correct = Compare(pred.Rows, expected.Rows)
	return outcome
}

func summarize(results []Outcome) Summary {
	s := Summary{
		TotalQuestions: len(results),
		Errors: map[string]int{
			StatusGenerationError: 0,
			StatusExecutionError:  0,
			"wrong_results":       0,
		},
	}
	for _, r := range results {
		if r.Correct {
			s.Correct++
			continue
		}
		switch r.Status {
		case StatusGenerationError:
			s.Errors[StatusGenerationError]++
		case StatusExecutionError:
			s.Errors[StatusExecutionError]++
		default:
			s.Errors["wrong_results"]++
		}
	}
	if s.TotalQuestions > 0 {
		s.Accuracy = float64(s.Correct) / float64(s.TotalQuestions) * 100
	}
	return s
}

// WriteReport persists a report as indented JSON.
func WriteReport(path string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
