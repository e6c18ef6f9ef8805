package eval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/generate"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadQuestionsFiltersByPrefix(t *testing.T) {
	path := writeFile(t, "questions.jsonl", `{"instance_id":"credit_001","question":"Wie viele Kunden?"}
{"instance_id":"retail_002","question":"Wie viele Filialen?"}

{"instance_id":"credit_003","question":"Wie viele Konten?"}
`)
	questions, err := LoadQuestions(path, "credit_")
	if err != nil {
		t.Fatalf("LoadQuestions() error = %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if questions[1].InstanceID != "credit_003" {
		t.Fatalf("order not preserved: %+v", questions)
	}
}

func TestLoadQuestionsRejectsBadLine(t *testing.T) {
	path := writeFile(t, "questions.jsonl", "{not json}\n")
	if _, err := LoadQuestions(path, ""); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadGroundTruth(t *testing.T) {
	path := writeFile(t, "truth.json", `{"credit_001":{"sql":"SELECT COUNT(*) FROM client"}}`)
	truth, err := LoadGroundTruth(path)
	if err != nil {
		t.Fatalf("LoadGroundTruth() error = %v", err)
	}
	if truth["credit_001"].SQL != "SELECT COUNT(*) FROM client" {
		t.Fatalf("truth = %+v", truth)
	}
}

func TestCompareIgnoresRowAndColumnOrder(t *testing.T) {
	pred := []map[string]any{
		{"name": "Ben", "id": int64(2)},
		{"id": int64(1), "name": "Anna"},
	}
	truth := []map[string]any{
		{"id": int64(1), "name": "Anna"},
		{"id": int64(2), "name": "Ben"},
	}
	if !Compare(pred, truth) {
		t.Fatal("equivalent result sets should compare equal")
	}
}

func TestCompareDetectsDifferingValues(t *testing.T) {
	pred := []map[string]any{{"id": int64(1)}}
	truth := []map[string]any{{"id": int64(2)}}
	if Compare(pred, truth) {
		t.Fatal("differing result sets should not compare equal")
	}
	if Compare(pred, append(truth, map[string]any{"id": int64(1)})) {
		t.Fatal("differing row counts should not compare equal")
	}
}

type scriptedGenerator struct {
	bySQL map[string]string
	err   error
}

func (s scriptedGenerator) Generate(_ context.Context, in generate.Input) (generate.Generation, error) {
	if s.err != nil {
		return generate.Generation{}, s.err
	}
	return generate.Generation{SQL: s.bySQL[in.Question], Attempts: 1}, nil
}

type scriptedExecutor struct {
	results map[string]executor.Result
	errs    map[string]error
}

func (s scriptedExecutor) Execute(_ context.Context, sqlText string) (executor.Result, error) {
	if err, ok := s.errs[sqlText]; ok {
		return executor.Result{}, err
	}
	return s.results[sqlText], nil
}

func TestRunnerScoresCorrectAndWrongAnswers(t *testing.T) {
	runner := &Runner{
		Questions: []Question{
			{InstanceID: "credit_001", Question: "Wie viele Kunden?"},
			{InstanceID: "credit_002", Question: "Wie viele Konten?"},
			{InstanceID: "credit_003", Question: "Unbekannt?"},
		},
		GroundTruth: map[string]GroundTruthEntry{
			"credit_001": {SQL: "TRUTH1"},
			"credit_002": {SQL: "TRUTH2"},
		},
		Generator: scriptedGenerator{bySQL: map[string]string{
			"Wie viele Kunden?": "PRED1",
			"Wie viele Konten?": "PRED2",
			"Unbekannt?":        "PRED3",
		}},
		Executor: scriptedExecutor{results: map[string]executor.Result{
			"PRED1":  {Rows: []map[string]any{{"n": int64(45)}}},
			"TRUTH1": {Rows: []map[string]any{{"n": int64(45)}}},
			"PRED2":  {Rows: []map[string]any{{"n": int64(1)}}},
			"TRUTH2": {Rows: []map[string]any{{"n": int64(2)}}},
		}},
	}

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Summary.TotalQuestions != 3 || report.Summary.Correct != 1 {
		t.Fatalf("summary = %+v", report.Summary)
	}
	if report.Results[0].Status != StatusSuccess || !report.Results[0].Correct {
		t.Fatalf("first outcome = %+v", report.Results[0])
	}
	if report.Results[1].Correct {
		t.Fatalf("second outcome should be wrong: %+v", report.Results[1])
	}
	if report.Results[2].Status != StatusNoGroundTruth {
		t.Fatalf("third outcome = %+v", report.Results[2])
	}
	if report.Summary.Errors["wrong_results"] != 2 {
		t.Fatalf("errors = %+v", report.Summary.Errors)
	}
}

func TestRunnerRecordsExecutionError(t *testing.T) {
	runner := &Runner{
		Questions:   []Question{{InstanceID: "credit_001", Question: "Frage"}},
		GroundTruth: map[string]GroundTruthEntry{"credit_001": {SQL: "TRUTH"}},
		Generator:   scriptedGenerator{bySQL: map[string]string{"Frage": "PRED"}},
		Executor: scriptedExecutor{errs: map[string]error{
			"PRED": errors.New("no such column: x"),
		}},
	}
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Results[0].Status != StatusExecutionError {
		t.Fatalf("outcome = %+v", report.Results[0])
	}
	if report.Summary.Errors[StatusExecutionError] != 1 {
		t.Fatalf("errors = %+v", report.Summary.Errors)
	}
}

func TestWriteReportRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	report := Report{
		Summary: Summary{TotalQuestions: 1, Correct: 1, Accuracy: 100, Errors: map[string]int{}},
		Results: []Outcome{{InstanceID: "credit_001", Status: StatusSuccess, Correct: true}},
	}
	if err := WriteReport(path, report); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	loaded, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(loaded) == 0 {
		t.Fatal("report file is empty")
	}
}
