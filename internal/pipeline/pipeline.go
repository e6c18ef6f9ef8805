// Package pipeline wires schema introspection, SQL generation, execution
// and answer composition into the full ask cycle.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/generate"
	"github.com/askdb/askdb/internal/prompt"
	"github.com/askdb/askdb/internal/schema"
)

// ResponseRowCap bounds how many rows a response carries back to clients.
const ResponseRowCap = 50

// Kind classifies an AskError for the transport layer.
type Kind string

const (
	KindGeneration Kind = "generation"
	KindExecution  Kind = "execution"
	KindInternal   Kind = "internal"
)

// AskError is a typed pipeline failure. Generation and execution kinds are
// client-visible request failures; internal covers everything else.
type AskError struct {
	Kind    Kind
	Message string
	SQL     string
	Err     error
}

func (e *AskError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AskError) Unwrap() error { return e.Err }

// Response is the outcome of a successful ask cycle. TableData holds at
// most ResponseRowCap rows; the answer summary is built from the uncapped
// result before capping.
type Response struct {
	SQL        string
	Answer     string
	Result     executor.Result
	TableData  []map[string]any
	Confidence string
}

// SchemaSource produces the current schema descriptor.
type SchemaSource interface {
	Build(ctx context.Context) (schema.Descriptor, error)
}

// SQLGenerator runs the bounded generate-validate loop.
type SQLGenerator interface {
	Generate(ctx context.Context, in generate.Input) (generate.Generation, error)
}

// QueryExecutor runs validated SQL against the database.
type QueryExecutor interface {
	Execute(ctx context.Context, sqlText string) (executor.Result, error)
}

// AnswerComposer turns a result into a natural-language reply.
type AnswerComposer interface {
	Compose(ctx context.Context, question, sqlText string, result executor.Result) string
}

// Service owns one full ask cycle per call. The schema descriptor is
// rebuilt on every request so it always matches the live catalog.
type Service struct {
	Schema    SchemaSource
	Knowledge []json.RawMessage
	Generator SQLGenerator
	Executor  QueryExecutor
	Answerer  AnswerComposer
	RowCap    int
	Logger    *slog.Logger
}

// Ask answers a natural-language question against the database.
func (s *Service) Ask(ctx context.Context, question string, history []prompt.Turn) (Response, error) {
	desc, err := s.Schema.Build(ctx)
	if err != nil {
		return Response{}, &AskError{Kind: KindInternal, Message: "schema introspection failed", Err: err}
	}

	gen, err := s.Generator.Generate(ctx, generate.Input{
		Question:   question,
		SchemaText: schema.Render(desc),
		Knowledge:  s.Knowledge,
		History:    history,
	})
	if err != nil {
		return Response{}, &AskError{Kind: KindInternal, Message: "SQL generation failed", Err: err}
	}
	if gen.Rejected() {
		return Response{}, &AskError{
			Kind:    KindGeneration,
			Message: fmt.Sprintf("Konnte keine gültige SQL-Query generieren: %s", gen.Reason),
			SQL:     gen.SQL,
		}
	}

	result, err := s.Executor.Execute(ctx, gen.SQL)
	if err != nil {
		return Response{}, &AskError{Kind: KindExecution, Message: err.Error(), SQL: gen.SQL, Err: err}
	}

	answer := s.Answerer.Compose(ctx, question, gen.SQL, result)

	confidence := "mittel"
	if len(result.Rows) > 0 {
		confidence = "hoch"
	}

	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "ask cycle completed",
			slog.Int("attempts", gen.Attempts),
			slog.Int("rows", len(result.Rows)),
			slog.String("confidence", confidence))
	}

	return Response{
		SQL:        gen.SQL,
		Answer:     answer,
		Result:     result,
		TableData:  capRows(result.Rows, s.rowCap()),
		Confidence: confidence,
	}, nil
}

func (s *Service) rowCap() int {
	if s.RowCap > 0 {
		return s.RowCap
	}
	return ResponseRowCap
}

func capRows(rows []map[string]any, limit int) []map[string]any {
	if len(rows) <= limit {
		return rows
	}
	return rows[:limit]
}
