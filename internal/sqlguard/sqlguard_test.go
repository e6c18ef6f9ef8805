package sqlguard

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeStripsFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"language tag", "```sql\nSELECT 1;\n```", "SELECT 1;"},
		{"bare fence", "```\nSELECT 1;\n```", "SELECT 1;"},
		{"no fence", "SELECT 1;", "SELECT 1;"},
		{"surrounding whitespace", "  \nSELECT 1;\n  ", "SELECT 1;"},
		{"single line with tag", "```sql SELECT 1; ```", "SELECT 1;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"```sql\nSELECT 1;\n```",
		"SELECT count(*) FROM client;",
		"```\nSELECT a FROM b\n```",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		if twice := Sanitize(once); twice != once {
			t.Fatalf("Sanitize not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestCheckPolicyRejectsNonSQL(t *testing.T) {
	rejection := CheckPolicy("Das kann ich leider nicht beantworten.")
	if rejection == nil || rejection.Rule != RuleNotSQL {
		t.Fatalf("rejection = %+v", rejection)
	}
}

func TestCheckPolicyRejectsEverythingNotStartingWithSelect(t *testing.T) {
	candidates := []string{
		"INSERT INTO client VALUES (1)",
		"UPDATE client SET name='x'",
		"DELETE FROM client",
		"  update client set name='x'",
		"WITH x AS (SELECT 1) SELECT * FROM x", // CTEs are outside the allow-list shape
	}
	for _, candidate := range candidates {
		rejection := CheckPolicy(candidate)
		if rejection == nil || rejection.Rule != RuleNotSelect {
			t.Fatalf("CheckPolicy(%q) = %+v, want not_select rejection", candidate, rejection)
		}
	}
}

func TestCheckPolicyRejectsDangerousKeywordsAnywhere(t *testing.T) {
	candidates := []string{
		"SELECT * FROM t; DROP TABLE t;",
		"select * from t where name='DROP TABLE'", // substring match inside literals is intended
		"SELECT truncate_me FROM t",
		"SELECT * FROM grants",
	}
	for _, candidate := range candidates {
		rejection := CheckPolicy(candidate)
		if rejection == nil || rejection.Rule != RuleDangerous {
			t.Fatalf("CheckPolicy(%q) = %+v, want dangerous rejection", candidate, rejection)
		}
	}
}

func TestCheckPolicyAcceptsPlainSelect(t *testing.T) {
	if rejection := CheckPolicy("SELECT client_id, name FROM client WHERE balance < 0"); rejection != nil {
		t.Fatalf("unexpected rejection: %+v", rejection)
	}
}

func newValidatorDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Exec(`CREATE TABLE client (client_id INTEGER PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return path
}

func TestValidatorAcceptsFencedSelect(t *testing.T) {
	v := Validator{DatabasePath: newValidatorDatabase(t)}
	cleaned, err := v.Validate(context.Background(), "```sql\nSELECT client_id FROM client;\n```")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cleaned != "SELECT client_id FROM client;" {
		t.Fatalf("cleaned = %q", cleaned)
	}
}

func TestValidatorRejectsDropEvenWhenFenced(t *testing.T) {
	// A bare DROP contains none of the allow-list keywords, so it falls
	// through to the not_sql rule rather than the select-only rule.
	v := Validator{DatabasePath: newValidatorDatabase(t)}
	_, err := v.Validate(context.Background(), "```sql\nDROP TABLE client;\n```")
	var rejection *Rejection
	if !errors.As(err, &rejection) {
		t.Fatalf("err = %v, want *Rejection", err)
	}
	if rejection.Rule != RuleNotSQL {
		t.Fatalf("rule = %q, want %q", rejection.Rule, RuleNotSQL)
	}
	if rejection.Reason != "Keine gültige SQL-Query erkannt" {
		t.Fatalf("reason = %q", rejection.Reason)
	}
}

func TestValidatorRejectsDeleteAsNotSelect(t *testing.T) {
	v := Validator{DatabasePath: newValidatorDatabase(t)}
	_, err := v.Validate(context.Background(), "```sql\nDELETE FROM client;\n```")
	var rejection *Rejection
	if !errors.As(err, &rejection) {
		t.Fatalf("err = %v, want *Rejection", err)
	}
	if rejection.Rule != RuleNotSelect {
		t.Fatalf("rule = %q, want %q", rejection.Rule, RuleNotSelect)
	}
	if rejection.Reason != "Nur SELECT-Queries sind erlaubt" {
		t.Fatalf("reason = %q", rejection.Reason)
	}
}

func TestValidatorRejectsUnknownColumnViaEngine(t *testing.T) {
	v := Validator{DatabasePath: newValidatorDatabase(t)}
	_, err := v.Validate(context.Background(), "SELECT no_such_column FROM client")
	var rejection *Rejection
	if !errors.As(err, &rejection) {
		t.Fatalf("err = %v, want *Rejection", err)
	}
	if rejection.Rule != RuleSyntax {
		t.Fatalf("rule = %q, want %q", rejection.Rule, RuleSyntax)
	}
	if !strings.Contains(rejection.Reason, "SQL-Syntax-Fehler") {
		t.Fatalf("reason = %q", rejection.Reason)
	}
}

func TestValidatorReturnsCleanedSQLAlongsideRejection(t *testing.T) {
	v := Validator{DatabasePath: newValidatorDatabase(t)}
	cleaned, err := v.Validate(context.Background(), "```sql\nDELETE FROM client;\n```")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if cleaned != "DELETE FROM client;" {
		t.Fatalf("cleaned = %q", cleaned)
	}
}
