package descriptor

import (
	"sort"
	"strings"
)

// Properties is a table or materialized view property map. StarRocks treats
// property names case-insensitively, so lookups here do too; the original
// spelling is preserved for rendering.
type Properties map[string]string

// Get looks up a property case-insensitively
func (p Properties) Get(key string) (string, bool) {
	if v, ok := p[key]; ok {
		return v, true
	}
	for k, v := range p {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// SortedKeys returns the property names in sorted order
func (p Properties) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of the property map
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// RunMode is the cluster deployment mode, which determines several
// server-side property defaults
type RunMode string

const (
	RunModeSharedNothing RunMode = "shared_nothing"
	RunModeSharedData    RunMode = "shared_data"
)

// DefaultProperties returns the properties the server fills in when a table
// is created without them. Observed values equal to these defaults must not
// diff against a desired state that omits them.
func DefaultProperties(mode RunMode) Properties {
	replication := "3"
	if mode == RunModeSharedData {
		replication = "1"
	}
	return Properties{
		"replication_num":       replication,
		"compression":           "LZ4",
		"fast_schema_evolution": "true",
		"replicated_storage":    "true",
		"storage_format":        "DEFAULT",
		"bucket_size":           "4294967296",
	}
}

// IsDefaultProperty reports whether key=value matches a server default for
// the given run mode
func IsDefaultProperty(mode RunMode, key, value string) bool {
	def, ok := DefaultProperties(mode).Get(key)
	return ok && strings.EqualFold(def, value)
}
