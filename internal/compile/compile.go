// Package compile renders operations into native StarRocks DDL. Each
// populated payload field maps to exactly one clause; unset fields are
// omitted entirely. Alterable attributes compile to one ALTER statement
// each and are never merged, because the server runs at most one
// schema-change job per table.
package compile

import (
	"fmt"
	"strings"

	"github.com/srschema/srschema/internal/op"
)

// Direction selects which payload of an operation is rendered
type Direction int

const (
	// Forward renders the change itself
	Forward Direction = iota
	// Reverse renders the inverse change for rollback
	Reverse
)

// CompilationError reports an operation payload inconsistent with its kind
type CompilationError struct {
	Op     string
	Detail string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("cannot compile %s: %s", e.Op, e.Detail)
}

// Statements renders one operation into its DDL statements, without
// trailing semicolons
func Statements(o op.Operation, dir Direction) ([]string, error) {
	if dir == Reverse {
		return Statements(o.Reverse(), Forward)
	}

	switch v := o.(type) {
	case *op.CreateTable:
		return []string{createTableSQL(v.Table)}, nil
	case *op.DropTable:
		return []string{"DROP TABLE IF EXISTS " + qualify(v.Table.Schema, v.Table.Name)}, nil
	case *op.AlterTableOption:
		return alterTableOptionSQL(v)
	case *op.AddColumn:
		return []string{fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", qualify(v.Schema, v.Table), columnSpec(v.Column))}, nil
	case *op.DropColumn:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", qualify(v.Schema, v.Table), quoteIdent(v.Column.Name))}, nil
	case *op.ModifyColumn:
		return []string{fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", qualify(v.Schema, v.Table), columnSpec(v.Forward))}, nil
	case *op.CreateIndex:
		return []string{createIndexSQL(v)}, nil
	case *op.DropIndex:
		return []string{fmt.Sprintf("DROP INDEX %s ON %s", quoteIdent(v.Index.Name), qualify(v.Schema, v.Table))}, nil
	case *op.CreateView:
		return []string{createViewSQL(v)}, nil
	case *op.DropView:
		return []string{"DROP VIEW IF EXISTS " + qualify(v.View.Schema, v.View.Name)}, nil
	case *op.AlterView:
		return alterViewSQL(v)
	case *op.CreateMaterializedView:
		return []string{createMaterializedViewSQL(v)}, nil
	case *op.DropMaterializedView:
		return []string{"DROP MATERIALIZED VIEW IF EXISTS " + qualify(v.MaterializedView.Schema, v.MaterializedView.Name)}, nil
	case *op.AlterMaterializedView:
		return alterMaterializedViewSQL(v)
	default:
		return nil, &CompilationError{Op: o.Name(), Detail: "unknown operation kind"}
	}
}

// Plan renders a whole operation list in order. Statement order within each
// operation and across operations is preserved; callers apply statements
// for one table sequentially.
func Plan(ops []op.Operation, dir Direction) ([]string, error) {
	var out []string
	for _, o := range ops {
		stmts, err := Statements(o, dir)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

func alterTableOptionSQL(v *op.AlterTableOption) ([]string, error) {
	if v.Forward.IsZero() {
		return nil, &CompilationError{Op: v.Name(), Detail: "no populated fields"}
	}
	target := qualify(v.Schema, v.Table)
	var stmts []string
	if v.Forward.DistributedBy != "" {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DISTRIBUTED BY %s", target, v.Forward.DistributedBy))
	}
	if len(v.Forward.OrderBy) > 0 {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ORDER BY (%s)", target, quoteIdentList(v.Forward.OrderBy)))
	}
	if v.Forward.Comment != nil {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s COMMENT = %s", target, quoteString(*v.Forward.Comment)))
	}
	// one property per statement: ALTER TABLE ... SET accepts a single pair
	for _, key := range v.Forward.Properties.SortedKeys() {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s SET (%s = %s)", target, quoteProperty(key), quoteProperty(v.Forward.Properties[key])))
	}
	return stmts, nil
}

func alterViewSQL(v *op.AlterView) ([]string, error) {
	if strings.TrimSpace(v.Forward.Definition) == "" {
		return nil, &CompilationError{Op: v.Name(), Detail: "no definition"}
	}
	var b strings.Builder
	b.WriteString("ALTER VIEW ")
	b.WriteString(qualify(v.Schema, v.View))
	if len(v.Forward.Columns) > 0 {
		b.WriteString(" (")
		b.WriteString(viewColumnList(v.Forward.Columns))
		b.WriteString(")")
	}
	b.WriteString(" AS ")
	b.WriteString(v.Forward.Definition)
	return []string{b.String()}, nil
}

func alterMaterializedViewSQL(v *op.AlterMaterializedView) ([]string, error) {
	if v.Forward.IsZero() {
		return nil, &CompilationError{Op: v.Name(), Detail: "no populated fields"}
	}
	target := qualify(v.Schema, v.View)
	var stmts []string
	for _, key := range v.Forward.Properties.SortedKeys() {
		stmts = append(stmts, fmt.Sprintf("ALTER MATERIALIZED VIEW %s SET (%s = %s)", target, quoteProperty(key), quoteProperty(v.Forward.Properties[key])))
	}
	if v.Forward.Refresh != "" {
		stmts = append(stmts, fmt.Sprintf("ALTER MATERIALIZED VIEW %s REFRESH %s", target, v.Forward.Refresh))
	}
	if v.Forward.Status != "" {
		stmts = append(stmts, fmt.Sprintf("ALTER MATERIALIZED VIEW %s %s", target, v.Forward.Status))
	}
	if v.Forward.NewName != "" {
		stmts = append(stmts, fmt.Sprintf("ALTER MATERIALIZED VIEW %s RENAME %s", target, quoteIdent(v.Forward.NewName)))
	}
	return stmts, nil
}
