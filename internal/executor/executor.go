// Package executor runs validated SQL against the target SQLite file and
// returns rows as ordered column/value mappings.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/askdb/askdb/internal/observability"

	_ "modernc.org/sqlite"
)

// Result preserves the engine's column order and row order. No row cap is
// applied here; capping happens at the response boundary.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

type Executor struct {
	DatabasePath string
}

// Execute opens a fresh read-only connection, runs the query, and returns the
// engine's error verbatim as a value on failure.
func (e Executor) Execute(ctx context.Context, sqlText string) (Result, error) {
	start := time.Now()

	db, err := sql.Open("sqlite", e.DatabasePath+"?mode=ro")
	if err != nil {
		return Result{}, fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return e.query(ctx, db, sqlText, start)
}

func (e Executor) query(ctx context.Context, db *sql.DB, sqlText string, start time.Time) (Result, error) {
	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return Result{}, fmt.Errorf("SQL Execution Error: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("query columns: %w", err)
	}

	result := Result{Columns: columns, Rows: make([]map[string]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
			} else {
				row[column] = values[i]
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	observability.ObserveQueryExecution(time.Since(start), len(result.Rows))
	return result, nil
}
