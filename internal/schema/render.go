package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Render serializes a descriptor into the textual block the model consumes.
// One block per table: columns with type, primary-key marker, and meaning,
// then foreign keys, then up to two sample rows as compact JSON.
func Render(desc Descriptor) string {
	var b strings.Builder
	b.WriteString("# DATABASE SCHEMA MIT BEISPIELDATEN\n\n")
	for _, table := range desc.Tables {
		b.WriteString(fmt.Sprintf("## Tabelle: %s\n", table.Name))
		b.WriteString("Spalten:\n")
		for _, column := range table.Columns {
			b.WriteString(fmt.Sprintf("  - %s (%s)", column.Name, column.Type))
			if column.PrimaryKey {
				b.WriteString(" [PRIMARY KEY]")
			}
			if column.Meaning != "" {
				b.WriteString(" - Bedeutung: " + column.Meaning)
			}
			b.WriteString("\n")
		}
		if len(table.ForeignKeys) > 0 {
			b.WriteString("Fremdschlüssel:\n")
			for _, fk := range table.ForeignKeys {
				b.WriteString(fmt.Sprintf("  - %s → %s.%s\n", fk.From, fk.ToTable, fk.ToColumn))
			}
		}
		if len(table.SampleRows) > 0 {
			b.WriteString("\nBeispieldaten:\n")
			for i, row := range table.SampleRows {
				encoded, err := json.Marshal(row)
				if err != nil {
					continue
				}
				b.WriteString(fmt.Sprintf("  Zeile %d: %s\n", i+1, string(encoded)))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
