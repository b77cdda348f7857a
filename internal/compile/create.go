package compile

import (
	"fmt"
	"strings"

	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/op"
)

func createTableSQL(t *descriptor.Table) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(qualify(t.Schema, t.Name))
	b.WriteString(" (\n")

	lines := make([]string, 0, len(t.Columns)+len(t.Indexes))
	for _, col := range t.Columns {
		lines = append(lines, "  "+columnSpec(col))
	}
	for _, idx := range t.Indexes {
		lines = append(lines, "  "+indexSpec(idx))
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")

	if t.Engine != "" {
		b.WriteString("\nENGINE = ")
		b.WriteString(t.Engine)
	}
	if clause := t.KeyType.Clause(); clause != "" {
		b.WriteString("\n")
		b.WriteString(clause)
		b.WriteString(" (")
		b.WriteString(quoteIdentList(t.KeyColumns))
		b.WriteString(")")
	}
	if t.Comment != "" {
		b.WriteString("\nCOMMENT ")
		b.WriteString(quoteString(t.Comment))
	}
	if t.PartitionBy != "" {
		b.WriteString("\nPARTITION BY ")
		b.WriteString(t.PartitionBy)
	}
	if t.DistributedBy != "" {
		b.WriteString("\nDISTRIBUTED BY ")
		b.WriteString(t.DistributedBy)
	}
	if len(t.OrderBy) > 0 {
		b.WriteString("\nORDER BY (")
		b.WriteString(quoteIdentList(t.OrderBy))
		b.WriteString(")")
	}
	if len(t.Properties) > 0 {
		b.WriteString("\nPROPERTIES (")
		b.WriteString(propertyList(t.Properties))
		b.WriteString(")")
	}
	return b.String()
}

func columnSpec(col *descriptor.Column) string {
	var b strings.Builder
	b.WriteString(quoteIdent(col.Name))
	b.WriteString(" ")
	b.WriteString(col.Type)
	if col.AggType != descriptor.AggTypeNone {
		b.WriteString(" ")
		b.WriteString(string(col.AggType))
	}
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	switch {
	case col.AutoIncrement:
		b.WriteString(" AUTO_INCREMENT")
	case col.Default != nil:
		b.WriteString(" DEFAULT ")
		b.WriteString(quoteString(*col.Default))
	}
	if col.Comment != "" {
		b.WriteString(" COMMENT ")
		b.WriteString(quoteString(col.Comment))
	}
	return b.String()
}

func indexSpec(idx *descriptor.Index) string {
	var b strings.Builder
	b.WriteString("INDEX ")
	b.WriteString(quoteIdent(idx.Name))
	b.WriteString(" (")
	b.WriteString(quoteIdentList(idx.Columns))
	b.WriteString(")")
	if idx.Using != descriptor.IndexUsingNone {
		b.WriteString(" USING ")
		b.WriteString(string(idx.Using))
	}
	if idx.Comment != "" {
		b.WriteString(" COMMENT ")
		b.WriteString(quoteString(idx.Comment))
	}
	return b.String()
}

func createIndexSQL(v *op.CreateIndex) string {
	var b strings.Builder
	b.WriteString("CREATE INDEX ")
	b.WriteString(quoteIdent(v.Index.Name))
	b.WriteString(" ON ")
	b.WriteString(qualify(v.Schema, v.Table))
	b.WriteString(" (")
	b.WriteString(quoteIdentList(v.Index.Columns))
	b.WriteString(")")
	if v.Index.Using != descriptor.IndexUsingNone {
		b.WriteString(" USING ")
		b.WriteString(string(v.Index.Using))
	}
	if v.Index.Comment != "" {
		b.WriteString(" COMMENT ")
		b.WriteString(quoteString(v.Index.Comment))
	}
	return b.String()
}

func createViewSQL(v *op.CreateView) string {
	view := v.View
	var b strings.Builder
	b.WriteString("CREATE VIEW ")
	b.WriteString(qualify(view.Schema, view.Name))
	if len(view.Columns) > 0 {
		b.WriteString(" (")
		b.WriteString(viewColumnList(view.Columns))
		b.WriteString(")")
	}
	if view.Comment != "" {
		b.WriteString("\nCOMMENT ")
		b.WriteString(quoteString(view.Comment))
	}
	b.WriteString("\nAS ")
	b.WriteString(view.Definition)
	return b.String()
}

func createMaterializedViewSQL(v *op.CreateMaterializedView) string {
	mv := v.MaterializedView
	var b strings.Builder
	b.WriteString("CREATE MATERIALIZED VIEW ")
	b.WriteString(qualify(mv.Schema, mv.Name))
	if mv.Comment != "" {
		b.WriteString("\nCOMMENT ")
		b.WriteString(quoteString(mv.Comment))
	}
	if mv.PartitionBy != "" {
		b.WriteString("\nPARTITION BY ")
		b.WriteString(mv.PartitionBy)
	}
	if mv.DistributedBy != "" {
		b.WriteString("\nDISTRIBUTED BY ")
		b.WriteString(mv.DistributedBy)
	}
	if len(mv.OrderBy) > 0 {
		b.WriteString("\nORDER BY (")
		b.WriteString(quoteIdentList(mv.OrderBy))
		b.WriteString(")")
	}
	if mv.Refresh != "" {
		b.WriteString("\nREFRESH ")
		b.WriteString(mv.Refresh)
	}
	if len(mv.Properties) > 0 {
		b.WriteString("\nPROPERTIES (")
		b.WriteString(propertyList(mv.Properties))
		b.WriteString(")")
	}
	b.WriteString("\nAS ")
	b.WriteString(mv.Definition)
	return b.String()
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func quoteIdentList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(strings.TrimSpace(name))
	}
	return strings.Join(quoted, ", ")
}

func qualify(schema, name string) string {
	if schema == "" {
		return quoteIdent(name)
	}
	return quoteIdent(schema) + "." + quoteIdent(name)
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteProperty(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func propertyList(props descriptor.Properties) string {
	parts := make([]string, 0, len(props))
	for _, key := range props.SortedKeys() {
		parts = append(parts, fmt.Sprintf("%s = %s", quoteProperty(key), quoteProperty(props[key])))
	}
	return strings.Join(parts, ", ")
}

func viewColumnList(cols []descriptor.ViewColumn) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		if col.Comment != "" {
			parts[i] = quoteIdent(col.Name) + " COMMENT " + quoteString(col.Comment)
		} else {
			parts[i] = quoteIdent(col.Name)
		}
	}
	return strings.Join(parts, ", ")
}
