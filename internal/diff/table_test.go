package diff

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/op"
)

func diffTables(t *testing.T, observed, desired *descriptor.Table, opts Options) *Result {
	t.Helper()
	return mustDiff(t,
		testCatalog([]*descriptor.Table{observed}, nil, nil),
		testCatalog([]*descriptor.Table{desired}, nil, nil),
		opts)
}

func diffTablesErr(t *testing.T, observed, desired *descriptor.Table, opts Options) error {
	t.Helper()
	_, err := NewEngine(opts).Diff(
		testCatalog([]*descriptor.Table{observed}, nil, nil),
		testCatalog([]*descriptor.Table{desired}, nil, nil))
	if err == nil {
		t.Fatal("expected diff error, got nil")
	}
	return err
}

func TestTableNonAlterableAttributes(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*descriptor.Table)
		attribute string
	}{
		{
			name:      "engine",
			mutate:    func(tb *descriptor.Table) { tb.Engine = "MYSQL" },
			attribute: "engine",
		},
		{
			name: "key type",
			mutate: func(tb *descriptor.Table) {
				tb.KeyType = descriptor.KeyTypePrimary
			},
			attribute: "key_type",
		},
		{
			name: "key columns",
			mutate: func(tb *descriptor.Table) {
				tb.KeyColumns = []string{"payload"}
			},
			attribute: "key_columns",
		},
		{
			name: "partition clause",
			mutate: func(tb *descriptor.Table) {
				tb.PartitionBy = "RANGE(id) (PARTITION p1 VALUES LESS THAN ('100'))"
			},
			attribute: "partition_by",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desired := testTable("events")
			tt.mutate(desired)
			err := diffTablesErr(t, testTable("events"), desired, Options{})

			var unsupported *UnsupportedChangeError
			if !errors.As(err, &unsupported) {
				t.Fatalf("expected UnsupportedChangeError, got %v", err)
			}
			if unsupported.Attribute != tt.attribute {
				t.Errorf("attribute = %q, want %q", unsupported.Attribute, tt.attribute)
			}
			if !strings.Contains(err.Error(), "unsupported change") {
				t.Errorf("unexpected message %q", err.Error())
			}
		})
	}
}

func TestTableNonAlterableToleratesFormatting(t *testing.T) {
	observed := testTable("events")
	observed.Engine = "olap"
	observed.PartitionBy = "RANGE(`id`)"
	observed.KeyColumns = []string{"ID"}

	desired := testTable("events")
	desired.PartitionBy = "range(id)"

	result := diffTables(t, observed, desired, Options{})
	if len(result.Ops) != 0 {
		t.Errorf("expected formatting differences to produce no ops, got %d", len(result.Ops))
	}
}

func TestTableEmptyDesiredEngineUnspecified(t *testing.T) {
	desired := testTable("events")
	desired.Engine = ""
	result := diffTables(t, testTable("events"), desired, Options{})
	if len(result.Ops) != 0 {
		t.Errorf("expected empty desired engine to mean unspecified, got %d ops", len(result.Ops))
	}
}

func TestTableAddDropModifyColumns(t *testing.T) {
	observed := testTable("events")
	observed.Columns = append(observed.Columns, &descriptor.Column{Name: "legacy", Type: "INT", Nullable: true})

	desired := testTable("events")
	desired.Columns[1] = &descriptor.Column{Name: "payload", Type: "VARCHAR(128)", Nullable: true}
	desired.Columns = append(desired.Columns, &descriptor.Column{Name: "created", Type: "DATETIME", Nullable: false})

	result := diffTables(t, observed, desired, Options{})
	if len(result.Ops) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(result.Ops))
	}

	drop, ok := result.Ops[0].(*op.DropColumn)
	if !ok || drop.Column.Name != "legacy" {
		t.Errorf("expected drop of legacy first, got %#v", result.Ops[0])
	}

	modify, ok := result.Ops[1].(*op.ModifyColumn)
	if !ok || modify.Forward.Type != "VARCHAR(128)" {
		t.Fatalf("expected modify of payload, got %#v", result.Ops[1])
	}
	if modify.Backward.Type != "VARCHAR(64)" {
		t.Errorf("expected backward payload to hold the observed type, got %q", modify.Backward.Type)
	}

	add, ok := result.Ops[2].(*op.AddColumn)
	if !ok || add.Column.Name != "created" {
		t.Errorf("expected add of created last, got %#v", result.Ops[2])
	}
}

func TestTableColumnMatchCaseInsensitive(t *testing.T) {
	observed := testTable("events")
	observed.Columns[1].Name = "Payload"

	result := diffTables(t, observed, testTable("events"), Options{})
	if len(result.Ops) != 0 {
		t.Errorf("expected case-insensitive column match, got %d ops", len(result.Ops))
	}
}

func TestTableColumnTypeNormalized(t *testing.T) {
	observed := testTable("events")
	observed.Columns[1].Type = "varchar(64)"

	result := diffTables(t, observed, testTable("events"), Options{})
	if len(result.Ops) != 0 {
		t.Errorf("expected type comparison to normalize case, got %d ops", len(result.Ops))
	}
}

func TestTableAggTypeChangeUnsupported(t *testing.T) {
	observed := testTable("metrics")
	observed.KeyType = descriptor.KeyTypeAggregate
	observed.Columns[1].AggType = descriptor.AggTypeSum

	desired := testTable("metrics")
	desired.KeyType = descriptor.KeyTypeAggregate
	desired.Columns[1].AggType = descriptor.AggTypeMax

	err := diffTablesErr(t, observed, desired, Options{})
	var unsupported *UnsupportedChangeError
	if !errors.As(err, &unsupported) || unsupported.Attribute != "agg_type" {
		t.Errorf("expected agg_type UnsupportedChangeError, got %v", err)
	}
}

func TestTableAutoIncrementPolicies(t *testing.T) {
	observed := testTable("events")
	desired := testTable("events")
	desired.Columns[0].AutoIncrement = true

	result := diffTables(t, observed, desired, Options{OnAutoIncrementChange: AutoIncrementIgnore})
	if len(result.Ops) != 0 || len(result.Warnings) != 0 {
		t.Errorf("ignore policy: expected nothing, got %d ops %d warnings", len(result.Ops), len(result.Warnings))
	}

	result = diffTables(t, observed, desired, Options{OnAutoIncrementChange: AutoIncrementWarn})
	if len(result.Warnings) != 1 || result.Warnings[0].Attribute != "auto_increment" {
		t.Errorf("warn policy: expected one auto_increment warning, got %v", result.Warnings)
	}

	err := diffTablesErr(t, observed, desired, Options{OnAutoIncrementChange: AutoIncrementError})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("error policy: expected ValidationError, got %v", err)
	}
}

func TestTableDistributedByChange(t *testing.T) {
	desired := testTable("events")
	desired.DistributedBy = "HASH(id) BUCKETS 16"

	result := diffTables(t, testTable("events"), desired, Options{})
	if len(result.Ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(result.Ops))
	}
	alter := result.Ops[0].(*op.AlterTableOption)
	if alter.Forward.DistributedBy != "HASH(id) BUCKETS 16" {
		t.Errorf("forward distribution = %q", alter.Forward.DistributedBy)
	}
	if alter.Backward.DistributedBy != "HASH(id) BUCKETS 8" {
		t.Errorf("backward distribution = %q", alter.Backward.DistributedBy)
	}
}

func TestTableDistributedByCosmeticDifference(t *testing.T) {
	desired := testTable("events")
	desired.DistributedBy = "hash(`id`) buckets 8"

	result := diffTables(t, testTable("events"), desired, Options{})
	if len(result.Ops) != 0 {
		t.Fatalf("expected no operation for cosmetic difference, got %d", len(result.Ops))
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Attribute != "distributed_by" {
		t.Errorf("expected one distributed_by warning, got %v", result.Warnings)
	}
}

func TestTableCommentChange(t *testing.T) {
	observed := testTable("events")
	observed.Comment = "old"
	desired := testTable("events")
	desired.Comment = "new"

	result := diffTables(t, observed, desired, Options{})
	if len(result.Ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(result.Ops))
	}
	alter := result.Ops[0].(*op.AlterTableOption)
	if alter.Forward.Comment == nil || *alter.Forward.Comment != "new" {
		t.Errorf("forward comment = %v", alter.Forward.Comment)
	}
	if alter.Backward.Comment == nil || *alter.Backward.Comment != "old" {
		t.Errorf("backward comment = %v", alter.Backward.Comment)
	}
}

func TestTableEmptyDesiredCommentNeverRemoves(t *testing.T) {
	observed := testTable("events")
	observed.Comment = "kept"
	result := diffTables(t, observed, testTable("events"), Options{})
	if len(result.Ops) != 0 {
		t.Errorf("expected empty desired comment to mean unspecified, got %d ops", len(result.Ops))
	}
	// the divergence is surfaced rather than silently dropped
	if len(result.Warnings) != 1 || result.Warnings[0].Attribute != "comment" {
		t.Errorf("expected one comment warning, got %v", result.Warnings)
	}
}

func TestTableProperties(t *testing.T) {
	t.Run("observed extras untouched", func(t *testing.T) {
		observed := testTable("events")
		observed.Properties = descriptor.Properties{"storage_medium": "SSD"}
		result := diffTables(t, observed, testTable("events"), Options{})
		if len(result.Ops) != 0 {
			t.Errorf("expected extra observed properties to produce no ops, got %d", len(result.Ops))
		}
	})

	t.Run("restated default is not a change", func(t *testing.T) {
		desired := testTable("events")
		desired.Properties = descriptor.Properties{"replication_num": "3"}
		result := diffTables(t, testTable("events"), desired, Options{RunMode: descriptor.RunModeSharedNothing})
		if len(result.Ops) != 0 {
			t.Errorf("expected restated default to produce no ops, got %d", len(result.Ops))
		}
	})

	t.Run("restated default differs by run mode", func(t *testing.T) {
		desired := testTable("events")
		desired.Properties = descriptor.Properties{"replication_num": "3"}
		result := diffTables(t, testTable("events"), desired, Options{RunMode: descriptor.RunModeSharedData})
		if len(result.Ops) != 1 {
			t.Fatalf("expected op under shared_data, got %d", len(result.Ops))
		}
		alter := result.Ops[0].(*op.AlterTableOption)
		if alter.Forward.Properties["replication_num"] != "3" {
			t.Errorf("forward properties = %v", alter.Forward.Properties)
		}
		if alter.Backward.Properties["replication_num"] != "1" {
			t.Errorf("expected backward to hold the run mode default, got %v", alter.Backward.Properties)
		}
	})

	t.Run("changed value keeps observed for reverse", func(t *testing.T) {
		observed := testTable("events")
		observed.Properties = descriptor.Properties{"replication_num": "2"}
		desired := testTable("events")
		desired.Properties = descriptor.Properties{"replication_num": "3"}

		result := diffTables(t, observed, desired, Options{})
		if len(result.Ops) != 1 {
			t.Fatalf("expected 1 operation, got %d", len(result.Ops))
		}
		alter := result.Ops[0].(*op.AlterTableOption)
		want := descriptor.Properties{"replication_num": "3"}
		if diff := cmp.Diff(want, alter.Forward.Properties); diff != "" {
			t.Errorf("forward properties (-want +got):\n%s", diff)
		}
		prev := descriptor.Properties{"replication_num": "2"}
		if diff := cmp.Diff(prev, alter.Backward.Properties); diff != "" {
			t.Errorf("backward properties (-want +got):\n%s", diff)
		}
	})
}

func TestTableIndexChanges(t *testing.T) {
	observed := testTable("events")
	observed.Indexes = []*descriptor.Index{
		{Name: "idx_keep", Columns: []string{"id"}},
		{Name: "idx_gone", Columns: []string{"payload"}},
		{Name: "idx_change", Columns: []string{"id"}},
	}

	desired := testTable("events")
	desired.Indexes = []*descriptor.Index{
		{Name: "idx_keep", Columns: []string{"id"}},
		{Name: "idx_change", Columns: []string{"payload"}, Using: descriptor.IndexUsingBitmap},
		{Name: "idx_new", Columns: []string{"payload"}},
	}

	result := diffTables(t, observed, desired, Options{})

	var drops, creates []string
	for _, o := range result.Ops {
		switch v := o.(type) {
		case *op.DropIndex:
			drops = append(drops, v.Index.Name)
		case *op.CreateIndex:
			creates = append(creates, v.Index.Name)
		default:
			t.Fatalf("unexpected op %s", o.Name())
		}
	}
	if diff := cmp.Diff([]string{"idx_gone", "idx_change"}, drops); diff != "" {
		t.Errorf("drops (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"idx_change", "idx_new"}, creates); diff != "" {
		t.Errorf("creates (-want +got):\n%s", diff)
	}
}

func TestTableOperationOrdering(t *testing.T) {
	observed := testTable("events")
	observed.Indexes = []*descriptor.Index{{Name: "idx_old", Columns: []string{"payload"}}}
	observed.Columns = append(observed.Columns, &descriptor.Column{Name: "legacy", Type: "INT", Nullable: true})

	desired := testTable("events")
	desired.DistributedBy = "HASH(id) BUCKETS 32"
	desired.Columns[1] = &descriptor.Column{Name: "payload", Type: "STRING", Nullable: true}
	desired.Columns = append(desired.Columns, &descriptor.Column{Name: "fresh", Type: "INT", Nullable: true})
	desired.Indexes = []*descriptor.Index{{Name: "idx_new", Columns: []string{"fresh"}}}

	result := diffTables(t, observed, desired, Options{})

	names := make([]string, len(result.Ops))
	for i, o := range result.Ops {
		names[i] = o.Name()
	}
	expected := []string{"drop_index", "drop_column", "alter_table_option", "modify_column", "add_column", "create_index"}
	if diff := cmp.Diff(expected, names); diff != "" {
		t.Errorf("op ordering (-want +got):\n%s", diff)
	}
}

func TestTableSingleAlterForMultipleOptions(t *testing.T) {
	observed := testTable("events")
	observed.Comment = "old"
	desired := testTable("events")
	desired.DistributedBy = "HASH(id) BUCKETS 16"
	desired.OrderBy = []string{"payload"}
	desired.Properties = descriptor.Properties{"replication_num": "2"}
	desired.Comment = "new"

	result := diffTables(t, observed, desired, Options{})
	if len(result.Ops) != 1 {
		t.Fatalf("expected a single alter carrying all option changes, got %d ops", len(result.Ops))
	}
	alter := result.Ops[0].(*op.AlterTableOption)
	if alter.Forward.DistributedBy == "" || alter.Forward.OrderBy == nil ||
		alter.Forward.Properties == nil || alter.Forward.Comment == nil {
		t.Errorf("expected all four option fields populated, got %+v", alter.Forward)
	}
}
