// Package prompt assembles the instruction payloads sent to the language
// model: the SQL-generation prompt and the natural-language answer prompt.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	maxKnowledgeItems = 3
	maxHistoryTurns   = 3
)

// Turn is one prior conversation exchange: the user's question and the SQL
// that answered it.
type Turn struct {
	User string `json:"user"`
	SQL  string `json:"sql"`
}

// Input carries everything the composer needs for one generation attempt.
// SchemaText is the rendered schema context; Knowledge is the externally
// curated corpus; PriorError is set on retry attempts only.
type Input struct {
	Question   string
	SchemaText string
	Knowledge  []json.RawMessage
	History    []Turn
	PriorError string
}

// Compose builds the SQL-generation prompt. Pure and deterministic: the same
// input always yields the same text. Section order is fixed; the rule list is
// guidance for the model, enforcement lives in the validator.
func Compose(in Input) string {
	var b strings.Builder

	b.WriteString("Du bist ein Experte für SQLite-Datenbanken und SQL-Generierung. \n")
	b.WriteString("Deine Aufgabe ist es, natürlichsprachige Fragen in präzise SQL-Queries zu übersetzen.\n\n")

	b.WriteString(in.SchemaText)
	b.WriteString("\n")

	b.WriteString("# DOMAIN KNOWLEDGE\n\n")
	for i, item := range in.Knowledge {
		if i >= maxKnowledgeItems {
			break
		}
		b.WriteString("- " + string(item) + "\n")
	}
	b.WriteString("\n")

	b.WriteString("# BEISPIELE FÜR SQL-GENERIERUNG\n\n")
	for i, example := range Examples {
		b.WriteString(fmt.Sprintf("Beispiel %d:\n", i+1))
		b.WriteString("Frage: " + example.Question + "\n")
		b.WriteString("SQL: " + example.SQL + "\n")
		b.WriteString("Erklärung: " + example.Explanation + "\n\n")
	}

	if len(in.History) > 0 {
		b.WriteString("# GESPRÄCHSVERLAUF\n\n")
		for _, turn := range lastTurns(in.History, maxHistoryTurns) {
			b.WriteString("User: " + turn.User + "\n")
			b.WriteString("SQL: " + turn.SQL + "\n\n")
		}
	}

	b.WriteString(`# WICHTIGE REGELN
1. Generiere nur valides SQLite SQL (Version 3.x)
2. Nutze die EXAKTEN Tabellen- und Spaltennamen aus dem Schema
3. Achte auf die Beispieldaten und Column Meanings für semantisches Verständnis
4. Verwende JOINs korrekt gemäß der Fremdschlüssel-Beziehungen
5. Gib NUR die SQL-Query zurück, KEINE Erklärungen oder Markdown
6. Bei Aggregationen: Nutze GROUP BY korrekt
7. Für "Top N" oder "Erste N": Verwende LIMIT
8. Bei Zeitangaben: Beachte das Format in den Beispieldaten
9. KEINE markdown Code-Blöcke!

`)

	b.WriteString("# AKTUELLE FRAGE\n")
	b.WriteString(in.Question + "\n\n")
	b.WriteString("# SQL-QUERY (nur die Query, nichts anderes):")

	if in.PriorError != "" {
		b.WriteString("\n\nFEHLER BEI VORHERIGEM VERSUCH: " + in.PriorError + "\n\n")
		b.WriteString("Bitte korrigiere die SQL-Query und vermeide diesen Fehler. Gib NUR die korrigierte SQL-Query zurück.")
	}

	return b.String()
}

func lastTurns(history []Turn, n int) []Turn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
