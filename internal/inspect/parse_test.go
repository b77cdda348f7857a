package inspect

import (
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/srschema/srschema/internal/descriptor"
)

func TestPartitionClauseFromDDL(t *testing.T) {
	tests := []struct {
		name     string
		ddl      string
		expected string
	}{
		{
			name: "range partition before distribution",
			ddl: "CREATE TABLE `events` (\n" +
				"  `id` bigint(20) NOT NULL\n" +
				") ENGINE=OLAP\n" +
				"DUPLICATE KEY(`id`)\n" +
				"PARTITION BY RANGE(`dt`)\n" +
				"(PARTITION p202401 VALUES [('2024-01-01'), ('2024-02-01')))\n" +
				"DISTRIBUTED BY HASH(`id`) BUCKETS 8\n" +
				"PROPERTIES (\"replication_num\" = \"3\");",
			expected: "RANGE(`dt`)\n(PARTITION p202401 VALUES [('2024-01-01'), ('2024-02-01')))",
		},
		{
			name: "expression partition before properties",
			ddl: "CREATE TABLE t (...)\n" +
				"PARTITION BY date_trunc('day', dt)\n" +
				"PROPERTIES (\"replication_num\" = \"3\")",
			expected: "date_trunc('day', dt)",
		},
		{
			name:     "unpartitioned",
			ddl:      "CREATE TABLE t (id bigint) DISTRIBUTED BY HASH(id)",
			expected: "",
		},
		{
			name: "materialized view before refresh",
			ddl: "CREATE MATERIALIZED VIEW `mv1`\n" +
				"PARTITION BY (date_trunc('day', `dt`))\n" +
				"REFRESH ASYNC\n" +
				"AS SELECT dt, count(*) FROM events GROUP BY dt;",
			expected: "(date_trunc('day', `dt`))",
		},
		{
			name: "materialized view before as select",
			ddl: "CREATE MATERIALIZED VIEW mv2\n" +
				"PARTITION BY dt\n" +
				"AS SELECT dt FROM events",
			expected: "dt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := partitionClauseFromDDL(tt.ddl); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIndexesFromDDL(t *testing.T) {
	ddl := "CREATE TABLE `events` (\n" +
		"  `id` bigint(20) NOT NULL COMMENT \"\",\n" +
		"  `payload` varchar(64) NULL,\n" +
		"  `tag` varchar(16) NULL,\n" +
		"  INDEX idx_payload (`payload`) USING BITMAP COMMENT 'payload lookup',\n" +
		"  INDEX `idx_tag` (`tag`) USING BITMAP COMMENT \"tag lookup\"\n" +
		") ENGINE=OLAP\n" +
		"DUPLICATE KEY(`id`)\n" +
		"DISTRIBUTED BY HASH(`id`) BUCKETS 8;"

	got := indexesFromDDL(ddl)
	expected := []*descriptor.Index{
		{Name: "idx_payload", Columns: []string{"payload"}, Using: descriptor.IndexUsingBitmap, Comment: "payload lookup"},
		{Name: "idx_tag", Columns: []string{"tag"}, Using: descriptor.IndexUsingBitmap, Comment: "tag lookup"},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("indexesFromDDL (-want +got):\n%s", diff)
	}
}

func TestIndexesFromDDLNone(t *testing.T) {
	ddl := "CREATE TABLE t (\n  `id` bigint NOT NULL\n) ENGINE=OLAP\nDISTRIBUTED BY HASH(`id`)"
	if got := indexesFromDDL(ddl); got != nil {
		t.Errorf("expected no indexes, got %v", got)
	}
}

func TestIndexUsingFrom(t *testing.T) {
	if got := indexUsingFrom(""); got != descriptor.IndexUsingBitmap {
		t.Errorf("omitted clause = %q, want BITMAP", got)
	}
	if got := indexUsingFrom("bitmap"); got != descriptor.IndexUsingBitmap {
		t.Errorf("indexUsingFrom(bitmap) = %q", got)
	}
}

func TestParseProperties(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected descriptor.Properties
	}{
		{
			name:     "json object",
			input:    `{"replication_num":"3","compression":"LZ4"}`,
			expected: descriptor.Properties{"replication_num": "3", "compression": "LZ4"},
		},
		{
			name:     "loose pairs",
			input:    `{"replication_num" = "3", "storage_medium" = "SSD"}`,
			expected: descriptor.Properties{"replication_num": "3", "storage_medium": "SSD"},
		},
		{
			name:     "empty",
			input:    "",
			expected: nil,
		},
		{
			name:     "empty object",
			input:    "{}",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseProperties(tt.input)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("parseProperties(%q) (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestDistributionClause(t *testing.T) {
	buckets := func(n int64) sql.NullInt64 { return sql.NullInt64{Int64: n, Valid: true} }
	none := sql.NullInt64{}

	tests := []struct {
		name     string
		distType string
		distKey  string
		buckets  sql.NullInt64
		expected string
	}{
		{"random without buckets", "RANDOM", "", none, "RANDOM"},
		{"random with buckets", "RANDOM", "", buckets(16), "RANDOM BUCKETS 16"},
		{"hash", "HASH", "`id`, `dt`", buckets(8), "HASH(id, dt) BUCKETS 8"},
		{"hash without buckets", "hash", "id", none, "HASH(id)"},
		{"empty", "", "", none, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := distributionClause(tt.distType, tt.distKey, tt.buckets); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSplitKeyList(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"`id`, `dt`", []string{"id", "dt"}},
		{"id", []string{"id"}},
		{"", nil},
		{" , ", nil},
	}

	for _, tt := range tests {
		got := splitKeyList(tt.input)
		if diff := cmp.Diff(tt.expected, got); diff != "" {
			t.Errorf("splitKeyList(%q) (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestAggTypeFrom(t *testing.T) {
	tests := []struct {
		extra    string
		expected descriptor.AggType
	}{
		{"SUM", descriptor.AggTypeSum},
		{"replace_if_not_null", descriptor.AggTypeReplaceIfNotNull},
		{"BITMAP_UNION", descriptor.AggTypeBitmapUnion},
		{"AUTO_INCREMENT", descriptor.AggTypeNone},
		{"", descriptor.AggTypeNone},
	}

	for _, tt := range tests {
		if got := aggTypeFrom(tt.extra); got != tt.expected {
			t.Errorf("aggTypeFrom(%q) = %q, want %q", tt.extra, got, tt.expected)
		}
	}
}

func TestSecurityFrom(t *testing.T) {
	if got := securityFrom("definer"); got != descriptor.SecurityDefiner {
		t.Errorf("securityFrom(definer) = %q", got)
	}
	if got := securityFrom("NONE"); got != descriptor.SecurityNone {
		t.Errorf("securityFrom(NONE) = %q", got)
	}
}
