package plan

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/srschema/srschema/internal/compile"
	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/diff"
	"github.com/srschema/srschema/internal/op"
)

func samplePlan() *Plan {
	table := &descriptor.Table{
		Dialect: descriptor.Dialect,
		Schema:  "s1",
		Name:    "events",
		Engine:  "OLAP",
		Columns: []*descriptor.Column{{Name: "id", Type: "BIGINT", Nullable: true}},
	}
	view := &descriptor.View{Dialect: descriptor.Dialect, Schema: "s1", Name: "v1", Definition: "select 1"}
	return NewPlan(&diff.Result{
		Ops: []op.Operation{
			&op.CreateTable{Table: table},
			&op.AlterView{
				Schema: "s1", View: "v2",
				Forward:  op.ViewDefinition{Definition: "select 2"},
				Backward: op.ViewDefinition{Definition: "select 1"},
			},
			&op.DropView{View: view},
		},
		Warnings: []diff.Warning{
			{Kind: diff.KindView, Schema: "s1", Name: "v3", Attribute: "comment", Detail: "change ignored"},
		},
	})
}

func TestSummary(t *testing.T) {
	got := samplePlan().Summary()
	expected := "Plan: 1 to add, 1 to modify, 1 to drop."
	if got != expected {
		t.Errorf("Summary() = %q, want %q", got, expected)
	}
}

func TestHumanColoredNoChanges(t *testing.T) {
	empty := NewPlan(&diff.Result{})
	if got := empty.HumanColored(false); got != "No changes detected." {
		t.Errorf("HumanColored() = %q", got)
	}
}

func TestHumanColored(t *testing.T) {
	output := samplePlan().HumanColored(false)

	for _, want := range []string{
		"Plan: 1 to add, 1 to modify, 1 to drop.",
		"+ table s1.events",
		"~ view s1.v2",
		"- view s1.v1",
		"Warnings:",
		"! view s1.v3: comment: change ignored",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestToJSON(t *testing.T) {
	p := samplePlan()
	p.SourceFingerprint = "abc123"

	output, err := p.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	summary := decoded["summary"].(map[string]any)
	if summary["add"].(float64) != 1 || summary["modify"].(float64) != 1 || summary["drop"].(float64) != 1 {
		t.Errorf("unexpected summary %v", summary)
	}
	if decoded["source_fingerprint"] != "abc123" {
		t.Errorf("fingerprint = %v", decoded["source_fingerprint"])
	}

	operations := decoded["operations"].([]any)
	if len(operations) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(operations))
	}
	first := operations[0].(map[string]any)
	if first["op"] != "create_table" {
		t.Errorf("first op = %v", first["op"])
	}
	kwargs := first["kwargs"].(map[string]any)
	if kwargs["table_name"] != "events" {
		t.Errorf("kwargs = %v", kwargs)
	}
}

func TestToJSONDeterministic(t *testing.T) {
	p := samplePlan()
	first, err := p.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := p.ToJSON()
		if err != nil {
			t.Fatalf("ToJSON() error: %v", err)
		}
		if first != again {
			t.Fatal("ToJSON() output not deterministic")
		}
	}
}

func TestToSQLForward(t *testing.T) {
	output, err := samplePlan().ToSQL(compile.Forward)
	if err != nil {
		t.Fatalf("ToSQL() error: %v", err)
	}
	createIdx := strings.Index(output, "CREATE TABLE")
	dropIdx := strings.Index(output, "DROP VIEW IF EXISTS")
	if createIdx == -1 || dropIdx == -1 || createIdx > dropIdx {
		t.Errorf("unexpected forward script:\n%s", output)
	}
	if !strings.HasSuffix(output, ";\n") {
		t.Errorf("script should end with a semicolon:\n%s", output)
	}
}

func TestToSQLReverse(t *testing.T) {
	output, err := samplePlan().ToSQL(compile.Reverse)
	if err != nil {
		t.Fatalf("ToSQL() error: %v", err)
	}
	// reverse runs the inverse operations in reverse order
	createViewIdx := strings.Index(output, "CREATE VIEW `s1`.`v1`")
	alterIdx := strings.Index(output, "ALTER VIEW `s1`.`v2` AS select 1")
	dropTableIdx := strings.Index(output, "DROP TABLE IF EXISTS `s1`.`events`")
	if createViewIdx == -1 || alterIdx == -1 || dropTableIdx == -1 {
		t.Fatalf("reverse script missing statements:\n%s", output)
	}
	if !(createViewIdx < alterIdx && alterIdx < dropTableIdx) {
		t.Errorf("reverse script order wrong:\n%s", output)
	}
}

func TestToSQLEmpty(t *testing.T) {
	output, err := NewPlan(&diff.Result{}).ToSQL(compile.Forward)
	if err != nil {
		t.Fatalf("ToSQL() error: %v", err)
	}
	if output != "" {
		t.Errorf("expected empty script, got %q", output)
	}
}

func TestToScript(t *testing.T) {
	output := samplePlan().ToScript()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 call lines, got %d:\n%s", len(lines), output)
	}
	if !strings.HasPrefix(lines[0], "op.create_table(") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "op.drop_view(") {
		t.Errorf("last line = %q", lines[2])
	}
}

func TestHasChanges(t *testing.T) {
	if NewPlan(&diff.Result{}).HasChanges() {
		t.Error("empty plan reports changes")
	}
	if !samplePlan().HasChanges() {
		t.Error("populated plan reports no changes")
	}
}
