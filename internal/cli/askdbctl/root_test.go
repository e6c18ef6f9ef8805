package askdbctl

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/executor"
	"github.com/askdb/askdb/internal/schema"
)

func mapLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func newTestDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credit.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	statements := []string{
		`CREATE TABLE client (client_id INTEGER PRIMARY KEY, name TEXT)`,
		`INSERT INTO client (client_id, name) VALUES (1, 'Anna'), (2, 'Ben')`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}
	return path
}

func runCommand(t *testing.T, dbPath string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd(Options{
		Lookup: mapLookup(map[string]string{"ASKDB_DATABASE_PATH": dbPath}),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestSchemaCommandJSON(t *testing.T) {
	dbPath := newTestDatabase(t)
	stdout, _, err := runCommand(t, dbPath, "schema", "--format", "json")
	if err != nil {
		t.Fatalf("schema command error = %v", err)
	}
	var desc schema.Descriptor
	if err := json.Unmarshal([]byte(stdout), &desc); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(desc.Tables) != 1 || desc.Tables[0].Name != "client" {
		t.Fatalf("descriptor = %+v", desc)
	}
}

func TestSchemaCommandTable(t *testing.T) {
	dbPath := newTestDatabase(t)
	stdout, _, err := runCommand(t, dbPath, "schema")
	if err != nil {
		t.Fatalf("schema command error = %v", err)
	}
	if !strings.Contains(stdout, "Tabelle: client") {
		t.Fatalf("output = %q", stdout)
	}
	if !strings.Contains(stdout, "client_id") {
		t.Fatalf("output missing column: %q", stdout)
	}
}

func TestQueryCommandRunsSelect(t *testing.T) {
	dbPath := newTestDatabase(t)
	stdout, _, err := runCommand(t, dbPath, "query", "SELECT name FROM client ORDER BY client_id", "--format", "csv")
	if err != nil {
		t.Fatalf("query command error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 || lines[0] != "name" || lines[1] != "Anna" {
		t.Fatalf("output = %q", stdout)
	}
}

func TestQueryCommandRejectsWrites(t *testing.T) {
	dbPath := newTestDatabase(t)
	_, _, err := runCommand(t, dbPath, "query", "DELETE FROM client")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(err.Error(), "Nur SELECT-Queries sind erlaubt") {
		t.Fatalf("error = %v", err)
	}
}

func TestDBFlagOverridesConfiguration(t *testing.T) {
	dbPath := newTestDatabase(t)
	stdout, _, err := runCommand(t, "does-not-matter.sqlite", "query", "SELECT COUNT(*) AS n FROM client", "--db", dbPath, "--format", "csv")
	if err != nil {
		t.Fatalf("query command error = %v", err)
	}
	if !strings.Contains(stdout, "2") {
		t.Fatalf("output = %q", stdout)
	}
}

func TestRenderResultUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := renderResult(&buf, "yaml", executor.Result{Columns: []string{"a"}})
	if err == nil {
		t.Fatal("expected format error")
	}
}

func TestRenderCSVEscapesSpecialCharacters(t *testing.T) {
	var buf bytes.Buffer
	err := renderCSV(&buf, []string{"name"}, []map[string]any{{"name": `Anna "A", Müller`}})
	if err != nil {
		t.Fatalf("renderCSV() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"Anna ""A"", Müller"`) {
		t.Fatalf("output = %q", buf.String())
	}
}
