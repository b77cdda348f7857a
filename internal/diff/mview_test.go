package diff

import (
	"errors"
	"testing"

	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/op"
)

func diffMVs(t *testing.T, observed, desired *descriptor.MaterializedView, opts Options) *Result {
	t.Helper()
	return mustDiff(t,
		testCatalog(nil, nil, []*descriptor.MaterializedView{observed}),
		testCatalog(nil, nil, []*descriptor.MaterializedView{desired}),
		opts)
}

func TestMVStatusToggle(t *testing.T) {
	desired := testMV("mv1")
	desired.Status = descriptor.MVStatusInactive

	result := diffMVs(t, testMV("mv1"), desired, Options{})
	if len(result.Ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(result.Ops))
	}
	alter := result.Ops[0].(*op.AlterMaterializedView)
	if alter.Forward.Status != descriptor.MVStatusInactive {
		t.Errorf("forward status = %q", alter.Forward.Status)
	}
	if alter.Backward.Status != descriptor.MVStatusActive {
		t.Errorf("backward status = %q", alter.Backward.Status)
	}

	reversed := alter.Reverse().(*op.AlterMaterializedView)
	if reversed.Forward.Status != descriptor.MVStatusActive {
		t.Errorf("reverse forward status = %q", reversed.Forward.Status)
	}
}

func TestMVRefreshChange(t *testing.T) {
	desired := testMV("mv1")
	desired.Refresh = "ASYNC EVERY(INTERVAL 1 HOUR)"

	result := diffMVs(t, testMV("mv1"), desired, Options{})
	if len(result.Ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(result.Ops))
	}
	alter := result.Ops[0].(*op.AlterMaterializedView)
	if alter.Forward.Refresh != "ASYNC EVERY(INTERVAL 1 HOUR)" || alter.Backward.Refresh != "ASYNC" {
		t.Errorf("refresh payloads = %q / %q", alter.Forward.Refresh, alter.Backward.Refresh)
	}
}

func TestMVPropertiesChange(t *testing.T) {
	desired := testMV("mv1")
	desired.Properties = descriptor.Properties{"session.query_timeout": "3600"}

	result := diffMVs(t, testMV("mv1"), desired, Options{})
	if len(result.Ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(result.Ops))
	}
	alter := result.Ops[0].(*op.AlterMaterializedView)
	if alter.Forward.Properties["session.query_timeout"] != "3600" {
		t.Errorf("forward properties = %v", alter.Forward.Properties)
	}
}

func TestMVGeometryChangesUnsupported(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*descriptor.MaterializedView)
		attribute string
	}{
		{
			name:      "definition",
			mutate:    func(m *descriptor.MaterializedView) { m.Definition = "select payload from events" },
			attribute: "definition",
		},
		{
			name:      "partition clause",
			mutate:    func(m *descriptor.MaterializedView) { m.PartitionBy = "date_trunc('day', dt)" },
			attribute: "partition_by",
		},
		{
			name:      "distribution",
			mutate:    func(m *descriptor.MaterializedView) { m.DistributedBy = "HASH(id)" },
			attribute: "distributed_by",
		},
		{
			name:      "sort order",
			mutate:    func(m *descriptor.MaterializedView) { m.OrderBy = []string{"id"} },
			attribute: "order_by",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desired := testMV("mv1")
			tt.mutate(desired)
			_, err := NewEngine(Options{}).Diff(
				testCatalog(nil, nil, []*descriptor.MaterializedView{testMV("mv1")}),
				testCatalog(nil, nil, []*descriptor.MaterializedView{desired}))

			var unsupported *UnsupportedChangeError
			if !errors.As(err, &unsupported) {
				t.Fatalf("expected UnsupportedChangeError, got %v", err)
			}
			if unsupported.Attribute != tt.attribute {
				t.Errorf("attribute = %q, want %q", unsupported.Attribute, tt.attribute)
			}
		})
	}
}

func TestMVCommentChangeWarns(t *testing.T) {
	desired := testMV("mv1")
	desired.Comment = "new"

	result := diffMVs(t, testMV("mv1"), desired, Options{})
	if len(result.Ops) != 0 {
		t.Fatalf("expected no operations, got %d", len(result.Ops))
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Attribute != "comment" {
		t.Errorf("expected one comment warning, got %v", result.Warnings)
	}
}

func TestMVEmptyDesiredPartitionUnspecified(t *testing.T) {
	observed := testMV("mv1")
	observed.PartitionBy = "date_trunc('day', dt)"

	result := diffMVs(t, observed, testMV("mv1"), Options{})
	if len(result.Ops) != 0 {
		t.Errorf("expected empty desired partition clause to mean unspecified, got %d ops", len(result.Ops))
	}
}

func TestMVEmptyDesiredStatusUnspecified(t *testing.T) {
	observed := testMV("mv1")
	observed.Status = descriptor.MVStatusInactive
	desired := testMV("mv1")
	desired.Status = ""

	result := diffMVs(t, observed, desired, Options{})
	if len(result.Ops) != 0 {
		t.Errorf("expected empty desired status to mean unspecified, got %d ops", len(result.Ops))
	}
}
