package sqlguard

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/askdb/askdb/internal/observability"

	_ "modernc.org/sqlite"
)

// Validator sanitizes a raw candidate, runs the keyword policy, and finally
// asks the engine to plan the query without executing it.
type Validator struct {
	DatabasePath string
}

// Validate returns the cleaned SQL on acceptance. On rejection the error is a
// *Rejection whose reason feeds the next retry attempt; any other error means
// the engine itself was unreachable.
func (v Validator) Validate(ctx context.Context, raw string) (string, error) {
	cleaned := Sanitize(raw)

	if rejection := CheckPolicy(cleaned); rejection != nil {
		observability.ObserveValidatorRejection(string(rejection.Rule))
		return cleaned, rejection
	}

	if err := v.explainCheck(ctx, cleaned); err != nil {
		return cleaned, err
	}
	return cleaned, nil
}

// explainCheck prepares EXPLAIN QUERY PLAN for the candidate on a fresh
// read-only connection. Preparing never runs the query.
func (v Validator) explainCheck(ctx context.Context, cleaned string) error {
	if _, err := os.Stat(v.DatabasePath); err != nil {
		return fmt.Errorf("database file %q: %w", v.DatabasePath, err)
	}
	db, err := sql.Open("sqlite", v.DatabasePath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	stmt, err := db.PrepareContext(ctx, "EXPLAIN QUERY PLAN "+cleaned)
	if err != nil {
		observability.ObserveValidatorRejection(string(RuleSyntax))
		return &Rejection{Rule: RuleSyntax, Reason: fmt.Sprintf("SQL-Syntax-Fehler: %v", err)}
	}
	return stmt.Close()
}
