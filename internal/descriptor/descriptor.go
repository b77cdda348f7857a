// Package descriptor defines immutable snapshots of StarRocks schema
// objects. Descriptors are produced by the reflection inspector (observed
// state) or the model loader (desired state); the diff engine only compares
// them and never mutates them.
package descriptor

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect identifies descriptors handled by this engine. Comparators skip
// descriptors carrying any other dialect so they can share a batch diff with
// comparators for other backends.
const Dialect = "starrocks"

// KeyType is the table key model
type KeyType string

const (
	KeyTypeNone      KeyType = ""
	KeyTypePrimary   KeyType = "PRIMARY"
	KeyTypeDuplicate KeyType = "DUPLICATE"
	KeyTypeAggregate KeyType = "AGGREGATE"
	KeyTypeUnique    KeyType = "UNIQUE"
)

// Clause returns the DDL key clause keyword for the key type
func (k KeyType) Clause() string {
	switch k {
	case KeyTypePrimary:
		return "PRIMARY KEY"
	case KeyTypeDuplicate:
		return "DUPLICATE KEY"
	case KeyTypeAggregate:
		return "AGGREGATE KEY"
	case KeyTypeUnique:
		return "UNIQUE KEY"
	default:
		return ""
	}
}

// KeyTypeFromModel maps a TABLE_MODEL value from
// information_schema.tables_config onto a KeyType
func KeyTypeFromModel(model string) KeyType {
	switch strings.ToUpper(strings.TrimSpace(model)) {
	case "PRI_KEYS", "PRIMARY_KEYS":
		return KeyTypePrimary
	case "DUP_KEYS":
		return KeyTypeDuplicate
	case "AGG_KEYS":
		return KeyTypeAggregate
	case "UNQ_KEYS":
		return KeyTypeUnique
	default:
		return KeyTypeNone
	}
}

// AggType is the aggregate function of a value column in an AGGREGATE KEY
// table
type AggType string

const (
	AggTypeNone             AggType = ""
	AggTypeSum              AggType = "SUM"
	AggTypeCount            AggType = "COUNT"
	AggTypeMin              AggType = "MIN"
	AggTypeMax              AggType = "MAX"
	AggTypeHLLUnion         AggType = "HLL_UNION"
	AggTypeBitmapUnion      AggType = "BITMAP_UNION"
	AggTypeReplace          AggType = "REPLACE"
	AggTypeReplaceIfNotNull AggType = "REPLACE_IF_NOT_NULL"
)

// Security is the view security context
type Security string

const (
	SecurityNone    Security = ""
	SecurityDefiner Security = "DEFINER"
	SecurityInvoker Security = "INVOKER"
)

// MVStatus is the materialized view activation state
type MVStatus string

const (
	MVStatusActive   MVStatus = "ACTIVE"
	MVStatusInactive MVStatus = "INACTIVE"
)

// IndexUsing is the index access method
type IndexUsing string

const (
	IndexUsingNone   IndexUsing = ""
	IndexUsingBitmap IndexUsing = "BITMAP"
)

// Table describes one table
type Table struct {
	Dialect       string     `json:"dialect"`
	Schema        string     `json:"schema,omitempty"`
	Name          string     `json:"name"`
	Engine        string     `json:"engine"` // default "OLAP"
	KeyType       KeyType    `json:"key_type,omitempty"`
	KeyColumns    []string   `json:"key_columns,omitempty"`
	PartitionBy   string     `json:"partition_by,omitempty"`
	DistributedBy string     `json:"distributed_by"` // default "RANDOM"
	OrderBy       []string   `json:"order_by,omitempty"`
	Properties    Properties `json:"properties,omitempty"`
	Comment       string     `json:"comment,omitempty"`
	Columns       []*Column  `json:"columns"`
	Indexes       []*Index   `json:"indexes,omitempty"`
}

// Column describes one table column
type Column struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Nullable      bool    `json:"nullable"`
	Default       *string `json:"default,omitempty"`
	Comment       string  `json:"comment,omitempty"`
	AutoIncrement bool    `json:"auto_increment,omitempty"`
	AggType       AggType `json:"agg_type,omitempty"`
	IsKey         bool    `json:"is_key,omitempty"`
}

// Index describes one index on a table
type Index struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Using   IndexUsing `json:"using,omitempty"`
	Comment string     `json:"comment,omitempty"`
}

// ViewColumn is a named view output column with an optional comment
type ViewColumn struct {
	Name    string `json:"name"`
	Comment string `json:"comment,omitempty"`
}

// View describes one logical view
type View struct {
	Dialect    string       `json:"dialect"`
	Schema     string       `json:"schema,omitempty"`
	Name       string       `json:"name"`
	Definition string       `json:"definition"`
	Columns    []ViewColumn `json:"columns,omitempty"`
	Comment    string       `json:"comment,omitempty"`
	Security   Security     `json:"security,omitempty"`
}

// MaterializedView describes one async materialized view
type MaterializedView struct {
	Dialect       string     `json:"dialect"`
	Schema        string     `json:"schema,omitempty"`
	Name          string     `json:"name"`
	Definition    string     `json:"definition"`
	Properties    Properties `json:"properties,omitempty"`
	PartitionBy   string     `json:"partition_by,omitempty"`
	DistributedBy string     `json:"distributed_by,omitempty"`
	OrderBy       []string   `json:"order_by,omitempty"`
	Refresh       string     `json:"refresh,omitempty"`
	Status        MVStatus   `json:"status,omitempty"`
	Comment       string     `json:"comment,omitempty"`
}

// Catalog holds one schema's objects, keyed by object name
type Catalog struct {
	Schema            string                       `json:"schema"`
	Tables            map[string]*Table            `json:"tables"`
	Views             map[string]*View             `json:"views"`
	MaterializedViews map[string]*MaterializedView `json:"materialized_views"`
}

// NewCatalog creates an empty catalog for the given schema
func NewCatalog(schema string) *Catalog {
	return &Catalog{
		Schema:            schema,
		Tables:            make(map[string]*Table),
		Views:             make(map[string]*View),
		MaterializedViews: make(map[string]*MaterializedView),
	}
}

// TableNames returns table names in sorted order
func (c *Catalog) TableNames() []string {
	return sortedKeys(c.Tables)
}

// ViewNames returns view names in sorted order
func (c *Catalog) ViewNames() []string {
	return sortedKeys(c.Views)
}

// MaterializedViewNames returns materialized view names in sorted order
func (c *Catalog) MaterializedViewNames() []string {
	return sortedKeys(c.MaterializedViews)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Column returns the column with the given name, matched case-insensitively
func (t *Table) Column(name string) *Column {
	for _, col := range t.Columns {
		if strings.EqualFold(col.Name, name) {
			return col
		}
	}
	return nil
}

// Validate checks the structural invariants of a table descriptor
func (t *Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table has no name")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", t.Name)
	}
	if t.KeyType == KeyTypeNone && len(t.KeyColumns) > 0 {
		return fmt.Errorf("table %q declares key columns without a key type", t.Name)
	}
	if t.KeyType != KeyTypeNone && len(t.KeyColumns) == 0 {
		return fmt.Errorf("table %q declares key type %s without key columns", t.Name, t.KeyType)
	}
	for _, key := range t.KeyColumns {
		if t.Column(key) == nil {
			return fmt.Errorf("table %q key column %q does not exist", t.Name, key)
		}
	}
	for _, name := range t.OrderBy {
		if t.Column(name) == nil {
			return fmt.Errorf("table %q order by column %q does not exist", t.Name, name)
		}
	}
	seen := make(map[string]bool)
	for _, idx := range t.Indexes {
		lower := strings.ToLower(idx.Name)
		if seen[lower] {
			return fmt.Errorf("table %q has duplicate index %q", t.Name, idx.Name)
		}
		seen[lower] = true
		for _, name := range idx.Columns {
			if t.Column(name) == nil {
				return fmt.Errorf("table %q index %q column %q does not exist", t.Name, idx.Name, name)
			}
		}
	}
	for _, col := range t.Columns {
		if col.AggType == AggTypeNone {
			continue
		}
		if t.KeyType != KeyTypeAggregate {
			return fmt.Errorf("table %q column %q sets an aggregate type but the table key type is %q", t.Name, col.Name, t.KeyType)
		}
		if col.IsKey || t.isKeyColumn(col.Name) {
			return fmt.Errorf("table %q key column %q must not set an aggregate type", t.Name, col.Name)
		}
	}
	return nil
}

func (t *Table) isKeyColumn(name string) bool {
	for _, key := range t.KeyColumns {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of a view descriptor
func (v *View) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("view has no name")
	}
	if strings.TrimSpace(v.Definition) == "" {
		return fmt.Errorf("view %q has no definition", v.Name)
	}
	return nil
}

// Validate checks the structural invariants of a materialized view descriptor
func (m *MaterializedView) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("materialized view has no name")
	}
	if strings.TrimSpace(m.Definition) == "" {
		return fmt.Errorf("materialized view %q has no definition", m.Name)
	}
	if m.Status != "" && m.Status != MVStatusActive && m.Status != MVStatusInactive {
		return fmt.Errorf("materialized view %q has invalid status %q", m.Name, m.Status)
	}
	return nil
}
