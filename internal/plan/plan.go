// Package plan wraps a diff result with metadata and renders it for
// humans, machines, and SQL execution.
package plan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/srschema/srschema/internal/color"
	"github.com/srschema/srschema/internal/compile"
	"github.com/srschema/srschema/internal/diff"
	"github.com/srschema/srschema/internal/op"
	"github.com/srschema/srschema/internal/version"
)

// Plan is an ordered set of operations plus the warnings the diff raised
// while producing them
type Plan struct {
	Ops               []op.Operation
	Warnings          []diff.Warning
	CreatedAt         time.Time
	SourceFingerprint string
}

// NewPlan wraps a diff result
func NewPlan(result *diff.Result) *Plan {
	return NewPlanWithFingerprint(result, "")
}

// NewPlanWithFingerprint wraps a diff result and records the fingerprint of
// the desired state it was computed from
func NewPlanWithFingerprint(result *diff.Result, fingerprint string) *Plan {
	p := &Plan{
		CreatedAt:         time.Now().UTC(),
		SourceFingerprint: fingerprint,
	}
	if result != nil {
		p.Ops = result.Ops
		p.Warnings = result.Warnings
	}
	return p
}

// HasChanges reports whether any operation was produced
func (p *Plan) HasChanges() bool {
	return len(p.Ops) > 0
}

func (p *Plan) counts() (added, modified, dropped int) {
	for _, o := range p.Ops {
		switch actionOf(o) {
		case "add":
			added++
		case "drop":
			dropped++
		default:
			modified++
		}
	}
	return
}

func actionOf(o op.Operation) string {
	name := o.Name()
	switch {
	case strings.HasPrefix(name, "create_"):
		return "add"
	case strings.HasPrefix(name, "drop_"):
		return "drop"
	default:
		return "modify"
	}
}

// targetOf describes the object an operation touches
func targetOf(o op.Operation) string {
	switch v := o.(type) {
	case *op.CreateTable:
		return "table " + qualified(v.Table.Schema, v.Table.Name)
	case *op.DropTable:
		return "table " + qualified(v.Table.Schema, v.Table.Name)
	case *op.AlterTableOption:
		return "table " + qualified(v.Schema, v.Table)
	case *op.AddColumn:
		return fmt.Sprintf("column %s.%s", qualified(v.Schema, v.Table), v.Column.Name)
	case *op.DropColumn:
		return fmt.Sprintf("column %s.%s", qualified(v.Schema, v.Table), v.Column.Name)
	case *op.ModifyColumn:
		return fmt.Sprintf("column %s.%s", qualified(v.Schema, v.Table), v.Forward.Name)
	case *op.CreateIndex:
		return fmt.Sprintf("index %s on %s", v.Index.Name, qualified(v.Schema, v.Table))
	case *op.DropIndex:
		return fmt.Sprintf("index %s on %s", v.Index.Name, qualified(v.Schema, v.Table))
	case *op.CreateView:
		return "view " + qualified(v.View.Schema, v.View.Name)
	case *op.DropView:
		return "view " + qualified(v.View.Schema, v.View.Name)
	case *op.AlterView:
		return "view " + qualified(v.Schema, v.View)
	case *op.CreateMaterializedView:
		return "materialized view " + qualified(v.MaterializedView.Schema, v.MaterializedView.Name)
	case *op.DropMaterializedView:
		return "materialized view " + qualified(v.MaterializedView.Schema, v.MaterializedView.Name)
	case *op.AlterMaterializedView:
		return "materialized view " + qualified(v.Schema, v.View)
	default:
		return o.Name()
	}
}

func qualified(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

// Summary returns the one-line plan header without color
func (p *Plan) Summary() string {
	added, modified, dropped := p.counts()
	return color.New(false).FormatPlanHeader(added, modified, dropped)
}

// HumanColored renders the plan for terminal display
func (p *Plan) HumanColored(useColor bool) string {
	c := color.New(useColor)

	if !p.HasChanges() && len(p.Warnings) == 0 {
		return "No changes detected."
	}

	var b strings.Builder
	added, modified, dropped := p.counts()
	b.WriteString(c.FormatPlanHeader(added, modified, dropped))
	b.WriteString("\n")

	for _, o := range p.Ops {
		b.WriteString("\n")
		b.WriteString(c.Symbol(actionOf(o)))
		b.WriteString(" ")
		b.WriteString(targetOf(o))
		b.WriteString("  [")
		b.WriteString(o.Name())
		b.WriteString("]")
	}
	if p.HasChanges() {
		b.WriteString("\n")
	}

	if len(p.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(c.Header("Warnings:"))
		b.WriteString("\n")
		for _, w := range p.Warnings {
			b.WriteString("  ")
			b.WriteString(c.Warn("! " + w.String()))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// jsonPlan is the machine-readable plan format
type jsonPlan struct {
	Version           string          `json:"version"`
	CreatedAt         string          `json:"created_at"`
	SourceFingerprint string          `json:"source_fingerprint,omitempty"`
	Summary           jsonSummary     `json:"summary"`
	Operations        []jsonOperation `json:"operations"`
	Warnings          []string        `json:"warnings,omitempty"`
}

type jsonSummary struct {
	Add    int `json:"add"`
	Modify int `json:"modify"`
	Drop   int `json:"drop"`
	Total  int `json:"total"`
}

type jsonOperation struct {
	Op     string         `json:"op"`
	Kwargs map[string]any `json:"kwargs"`
}

// ToJSON renders the plan as indented JSON. Kwargs serialize as maps, and
// encoding/json sorts map keys, so the output is deterministic for a given
// plan.
func (p *Plan) ToJSON() (string, error) {
	added, modified, dropped := p.counts()
	out := jsonPlan{
		Version:   version.Version(),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		Summary: jsonSummary{
			Add:    added,
			Modify: modified,
			Drop:   dropped,
			Total:  len(p.Ops),
		},
		SourceFingerprint: p.SourceFingerprint,
		Operations:        make([]jsonOperation, 0, len(p.Ops)),
	}
	for _, o := range p.Ops {
		call := o.Render()
		out.Operations = append(out.Operations, jsonOperation{
			Op:     call.OpName,
			Kwargs: call.KwargMap(),
		})
	}
	for _, w := range p.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize plan: %w", err)
	}
	return string(data), nil
}

// ToSQL renders the plan as an executable DDL script. Reverse renders the
// rollback script, with operations in reverse order.
func (p *Plan) ToSQL(dir compile.Direction) (string, error) {
	ops := p.Ops
	if dir == compile.Reverse {
		ops = make([]op.Operation, len(p.Ops))
		for i, o := range p.Ops {
			ops[len(p.Ops)-1-i] = o
		}
	}
	stmts, err := compile.Plan(ops, dir)
	if err != nil {
		return "", err
	}
	if len(stmts) == 0 {
		return "", nil
	}
	return strings.Join(stmts, ";\n\n") + ";\n", nil
}

// Statements renders the plan as individual DDL statements for execution
func (p *Plan) Statements(dir compile.Direction) ([]string, error) {
	ops := p.Ops
	if dir == compile.Reverse {
		ops = make([]op.Operation, len(p.Ops))
		for i, o := range p.Ops {
			ops[len(p.Ops)-1-i] = o
		}
	}
	return compile.Plan(ops, dir)
}

// ToScript renders the plan as named operation calls, one per line, the
// form consumed by migration-script writers
func (p *Plan) ToScript() string {
	var b strings.Builder
	for _, o := range p.Ops {
		b.WriteString(o.Render().String())
		b.WriteString("\n")
	}
	return b.String()
}
