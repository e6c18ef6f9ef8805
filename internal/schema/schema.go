// Package schema introspects the target SQLite database and produces the
// textual schema context consumed by the language model.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"pk"`
	Meaning    string `json:"meaning,omitempty"`
}

type ForeignKey struct {
	From     string `json:"from"`
	ToTable  string `json:"to_table"`
	ToColumn string `json:"to_column"`
}

type Table struct {
	Name        string           `json:"name"`
	Columns     []Column         `json:"columns"`
	ForeignKeys []ForeignKey     `json:"foreign_keys"`
	SampleRows  []map[string]any `json:"sample_rows,omitempty"`
}

// Descriptor is built fresh per request and owned by that request. Table
// order follows the catalog listing so renders stay deterministic.
type Descriptor struct {
	Tables []Table `json:"tables"`
}

type Builder struct {
	Path       string
	SampleRows int
	Meanings   Meanings
}

// Build lists user tables and introspects columns, foreign keys, and a few
// sample rows per table. A missing database file is a configuration error;
// per-table introspection failures skip that table's detail instead of
// aborting the build, and sample fetching is always best-effort.
func (b Builder) Build(ctx context.Context) (Descriptor, error) {
	if _, err := os.Stat(b.Path); err != nil {
		return Descriptor{}, fmt.Errorf("database file %q: %w", b.Path, err)
	}

	db, err := sql.Open("sqlite", b.Path+"?mode=ro")
	if err != nil {
		return Descriptor{}, fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	names, err := listTables(ctx, db)
	if err != nil {
		return Descriptor{}, fmt.Errorf("list tables: %w", err)
	}

	sampleLimit := b.SampleRows
	if sampleLimit <= 0 {
		sampleLimit = 2
	}

	desc := Descriptor{Tables: make([]Table, 0, len(names))}
	for _, name := range names {
		table := Table{Name: name}

		columns, err := listColumns(ctx, db, name)
		if err == nil {
			table.Columns = columns
		}
		fks, err := listForeignKeys(ctx, db, name)
		if err == nil {
			table.ForeignKeys = fks
		}
		if rows, err := sampleTableRows(ctx, db, name, sampleLimit); err == nil {
			table.SampleRows = rows
		}

		if b.Meanings != nil {
			for i := range table.Columns {
				table.Columns[i].Meaning = b.Meanings.Lookup(name, table.Columns[i].Name)
			}
		}
		desc.Tables = append(desc.Tables, table)
	}
	return desc, nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func listColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			deflt   sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &deflt, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, Column{Name: name, Type: colType, PrimaryKey: pk > 0})
	}
	return columns, rows.Err()
}

func listForeignKeys(ctx context.Context, db *sql.DB, table string) ([]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var fks []ForeignKey
	for rows.Next() {
		var (
			id, seq              int
			toTable, from        string
			to                   sql.NullString
			onUpdate, onDelete   string
			match                string
		)
		if err := rows.Scan(&id, &seq, &toTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fks = append(fks, ForeignKey{From: from, ToTable: toTable, ToColumn: to.String})
	}
	return fks, rows.Err()
}

func sampleTableRows(ctx context.Context, db *sql.DB, table string, limit int) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, quoteIdent(table), limit))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
			} else {
				row[column] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
