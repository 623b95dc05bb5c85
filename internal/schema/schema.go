// Package schema introspects the relational schema the agent answers
// questions against and renders it as grounding text for SQL generation.
package schema

import (
	"fmt"
	"strings"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectDuckDB   Dialect = "duckdb"
)

type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primary_key"`
}

type ForeignKey struct {
	Columns    []string `json:"columns"`
	RefTable   string   `json:"ref_table"`
	RefColumns []string `json:"ref_columns"`
}

type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

type Description struct {
	Tables []Table `json:"tables"`
}

// Render produces the compact text block embedded in the system directive.
// Table and column order follows introspection order so the rendered text is
// stable for an unchanged schema.
func (d Description) Render() string {
	var b strings.Builder
	for _, table := range d.Tables {
		fmt.Fprintf(&b, "Table: %s\n", table.Name)
		b.WriteString("  Columns:\n")
		for _, col := range table.Columns {
			fmt.Fprintf(&b, "    - %s (%s)", col.Name, col.Type)
			if col.PrimaryKey {
				b.WriteString(" [PK]")
			}
			b.WriteString("\n")
		}
		if len(table.ForeignKeys) > 0 {
			b.WriteString("  Foreign Keys:\n")
			for _, fk := range table.ForeignKeys {
				fmt.Fprintf(&b, "    - (%s) -> %s(%s)\n",
					strings.Join(fk.Columns, ", "),
					fk.RefTable,
					strings.Join(fk.RefColumns, ", "),
				)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
