package askdbctl

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/askdb/askdb/internal/schema"
)

func newSchemaCmd(opts Options, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Introspect the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, flags)
			if err != nil {
				return err
			}
			meanings, err := schema.LoadMeanings(cfg.Database.MeaningsPath)
			if err != nil {
				return err
			}
			builder := schema.Builder{
				Path:       cfg.Database.Path,
				SampleRows: cfg.Database.SampleRows,
				Meanings:   meanings,
			}
			desc, err := builder.Build(cmd.Context())
			if err != nil {
				return err
			}

			if flags.format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(desc)
			}
			renderSchemaTables(cmd, desc)
			return nil
		},
	}
}

func renderSchemaTables(cmd *cobra.Command, desc schema.Descriptor) {
	out := cmd.OutOrStdout()
	for _, tbl := range desc.Tables {
		_, _ = fmt.Fprintf(out, "Tabelle: %s\n", tbl.Name)

		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Spalte", "Typ", "PK", "Bedeutung"})
		for _, col := range tbl.Columns {
			pk := ""
			if col.PrimaryKey {
				pk = "✓"
			}
			t.AppendRow(table.Row{col.Name, col.Type, pk, col.Meaning})
		}
		t.Render()

		for _, fk := range tbl.ForeignKeys {
			_, _ = fmt.Fprintf(out, "  Fremdschlüssel: %s → %s.%s\n", fk.From, fk.ToTable, fk.ToColumn)
		}
		_, _ = fmt.Fprintln(out)
	}
}
