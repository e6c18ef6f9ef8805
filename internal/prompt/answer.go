package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ComposeAnswer builds the prompt for the natural-language answer step. Result
// rows are summarized, not dumped: all rows when five or fewer, otherwise the
// first three and the last one with an explicit omission note. The summary is
// built from the uncapped result set.
func ComposeAnswer(question, sqlText string, rows []map[string]any) string {
	var summary strings.Builder
	if len(rows) == 0 {
		summary.WriteString("Die Abfrage hat keine Ergebnisse zurückgegeben.")
	} else {
		summary.WriteString(fmt.Sprintf("Die Abfrage hat %d Zeilen zurückgegeben.", len(rows)))
		if len(rows) <= 5 {
			summary.WriteString("\n\nAlle Ergebnisse:\n" + marshalRows(rows))
		} else {
			summary.WriteString("\n\nErste 3 Zeilen:\n" + marshalRows(rows[:3]))
			summary.WriteString("\n\nLetzte Zeile:\n" + marshalRows(rows[len(rows)-1:]))
		}
	}

	return fmt.Sprintf(`Basierend auf der Frage und den SQL-Ergebnissen, gib eine natürlichsprachige Antwort auf Deutsch.

FRAGE: %s

SQL: %s

ERGEBNISSE:
%s

ANFORDERUNGEN:
1. Gib eine klare, präzise Antwort auf Deutsch (2-4 Sätze)
2. Erwähne die wichtigsten Zahlen und Fakten
3. Wenn keine Ergebnisse: Erkläre das freundlich
4. Sei präzise aber verständlich
5. Keine technischen SQL-Details in der Antwort

ANTWORT:`, question, sqlText, summary.String())
}

func marshalRows(rows []map[string]any) string {
	encoded, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", rows)
	}
	return string(encoded)
}
