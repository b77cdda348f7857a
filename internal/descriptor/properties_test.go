package descriptor

import "testing"

func TestPropertiesGetCaseInsensitive(t *testing.T) {
	props := Properties{"Replication_Num": "3"}

	if v, ok := props.Get("replication_num"); !ok || v != "3" {
		t.Errorf("Get(replication_num) = (%q, %v), want (\"3\", true)", v, ok)
	}
	if _, ok := props.Get("compression"); ok {
		t.Error("expected missing property lookup to report false")
	}
}

func TestPropertiesClone(t *testing.T) {
	var nilProps Properties
	if nilProps.Clone() != nil {
		t.Error("expected clone of nil to stay nil")
	}

	props := Properties{"a": "1"}
	clone := props.Clone()
	clone["a"] = "2"
	if props["a"] != "1" {
		t.Error("expected clone to be independent of the original")
	}
}

func TestDefaultProperties(t *testing.T) {
	if v, _ := DefaultProperties(RunModeSharedNothing).Get("replication_num"); v != "3" {
		t.Errorf("shared_nothing replication_num = %q, want \"3\"", v)
	}
	if v, _ := DefaultProperties(RunModeSharedData).Get("replication_num"); v != "1" {
		t.Errorf("shared_data replication_num = %q, want \"1\"", v)
	}
	if v, _ := DefaultProperties(RunModeSharedNothing).Get("compression"); v != "LZ4" {
		t.Errorf("compression default = %q, want \"LZ4\"", v)
	}
}

func TestIsDefaultProperty(t *testing.T) {
	tests := []struct {
		mode     RunMode
		key      string
		value    string
		expected bool
	}{
		{RunModeSharedNothing, "replication_num", "3", true},
		{RunModeSharedNothing, "replication_num", "1", false},
		{RunModeSharedData, "replication_num", "1", true},
		{RunModeSharedNothing, "compression", "lz4", true},
		{RunModeSharedNothing, "bucket_size", "4294967296", true},
		{RunModeSharedNothing, "storage_cooldown_time", "whatever", false},
	}

	for _, tt := range tests {
		if got := IsDefaultProperty(tt.mode, tt.key, tt.value); got != tt.expected {
			t.Errorf("IsDefaultProperty(%s, %q, %q) = %v, want %v", tt.mode, tt.key, tt.value, got, tt.expected)
		}
	}
}
