package op

import (
	"fmt"
	"sort"
	"strings"

	"github.com/srschema/srschema/internal/descriptor"
)

// Call is the named-operation record consumed by external migration-script
// writers: an operation name plus keyword arguments in deterministic (key
// sorted) order. Unset fields are omitted.
type Call struct {
	OpName string
	Kwargs []Kwarg
}

// Kwarg is one keyword argument of a rendered call
type Kwarg struct {
	Key   string
	Value any
}

// KwargMap returns the kwargs as a map
func (c Call) KwargMap() map[string]any {
	m := make(map[string]any, len(c.Kwargs))
	for _, kw := range c.Kwargs {
		m[kw.Key] = kw.Value
	}
	return m
}

// String renders the call in migration-script form, e.g.
// op.create_view(definition='select 1', schema='s1', view_name='v1')
func (c Call) String() string {
	parts := make([]string, 0, len(c.Kwargs))
	for _, kw := range c.Kwargs {
		parts = append(parts, fmt.Sprintf("%s=%s", kw.Key, formatValue(kw.Value)))
	}
	return fmt.Sprintf("op.%s(%s)", c.OpName, strings.Join(parts, ", "))
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", `\'`) + "'"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []string:
		parts := make([]string, len(val))
		for i, s := range val {
			parts[i] = formatValue(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case descriptor.Properties:
		return formatMap(map[string]string(val))
	case map[string]string:
		return formatMap(val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("'%s': %s", k, formatValue(val[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("'%s': %s", k, formatValue(m[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type callBuilder struct {
	name   string
	kwargs []Kwarg
}

func newCall(name string) *callBuilder {
	return &callBuilder{name: name}
}

// set records a kwarg unless the value is unset
func (b *callBuilder) set(key string, v any) *callBuilder {
	switch val := v.(type) {
	case nil:
		return b
	case string:
		if val == "" {
			return b
		}
	case []string:
		if len(val) == 0 {
			return b
		}
	case descriptor.Properties:
		if len(val) == 0 {
			return b
		}
	case []any:
		if len(val) == 0 {
			return b
		}
	case *string:
		if val == nil {
			return b
		}
		v = *val
	case bool:
		if !val {
			return b
		}
	}
	b.kwargs = append(b.kwargs, Kwarg{Key: key, Value: v})
	return b
}

func (b *callBuilder) done() Call {
	sort.Slice(b.kwargs, func(i, j int) bool { return b.kwargs[i].Key < b.kwargs[j].Key })
	return Call{OpName: b.name, Kwargs: b.kwargs}
}

func columnValue(c *descriptor.Column) map[string]any {
	m := map[string]any{
		"name": c.Name,
		"type": c.Type,
	}
	if !c.Nullable {
		m["nullable"] = false
	}
	if c.Default != nil {
		m["default"] = *c.Default
	}
	if c.Comment != "" {
		m["comment"] = c.Comment
	}
	if c.AutoIncrement {
		m["auto_increment"] = true
	}
	if c.AggType != descriptor.AggTypeNone {
		m["agg_type"] = string(c.AggType)
	}
	return m
}

func columnsValue(cols []*descriptor.Column) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = columnValue(c)
	}
	return out
}

func viewColumnsValue(cols []descriptor.ViewColumn) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		m := map[string]any{"name": c.Name}
		if c.Comment != "" {
			m["comment"] = c.Comment
		}
		out[i] = m
	}
	return out
}

func indexesValue(indexes []*descriptor.Index) []any {
	out := make([]any, len(indexes))
	for i, idx := range indexes {
		m := map[string]any{
			"name":    idx.Name,
			"columns": idx.Columns,
		}
		if idx.Using != descriptor.IndexUsingNone {
			m["using"] = string(idx.Using)
		}
		if idx.Comment != "" {
			m["comment"] = idx.Comment
		}
		out[i] = m
	}
	return out
}

func (o *CreateTable) Render() Call {
	t := o.Table
	return newCall(o.Name()).
		set("table_name", t.Name).
		set("schema", t.Schema).
		set("engine", t.Engine).
		set("key_type", string(t.KeyType)).
		set("key_columns", t.KeyColumns).
		set("partition_by", t.PartitionBy).
		set("distributed_by", t.DistributedBy).
		set("order_by", t.OrderBy).
		set("properties", t.Properties).
		set("comment", t.Comment).
		set("columns", columnsValue(t.Columns)).
		set("indexes", indexesValue(t.Indexes)).
		done()
}

func (o *DropTable) Render() Call {
	return newCall(o.Name()).
		set("table_name", o.Table.Name).
		set("schema", o.Table.Schema).
		done()
}

func (o *AlterTableOption) Render() Call {
	return newCall(o.Name()).
		set("table_name", o.Table).
		set("schema", o.Schema).
		set("distributed_by", o.Forward.DistributedBy).
		set("order_by", o.Forward.OrderBy).
		set("properties", o.Forward.Properties).
		set("comment", o.Forward.Comment).
		done()
}

func (o *AddColumn) Render() Call {
	return newCall(o.Name()).
		set("table_name", o.Table).
		set("schema", o.Schema).
		set("column", columnValue(o.Column)).
		done()
}

func (o *DropColumn) Render() Call {
	return newCall(o.Name()).
		set("table_name", o.Table).
		set("schema", o.Schema).
		set("column_name", o.Column.Name).
		done()
}

func (o *ModifyColumn) Render() Call {
	return newCall(o.Name()).
		set("table_name", o.Table).
		set("schema", o.Schema).
		set("column", columnValue(o.Forward)).
		done()
}

func (o *CreateIndex) Render() Call {
	return newCall(o.Name()).
		set("table_name", o.Table).
		set("schema", o.Schema).
		set("index_name", o.Index.Name).
		set("columns", o.Index.Columns).
		set("using", string(o.Index.Using)).
		set("comment", o.Index.Comment).
		done()
}

func (o *DropIndex) Render() Call {
	return newCall(o.Name()).
		set("table_name", o.Table).
		set("schema", o.Schema).
		set("index_name", o.Index.Name).
		done()
}

func (o *CreateView) Render() Call {
	v := o.View
	return newCall(o.Name()).
		set("view_name", v.Name).
		set("schema", v.Schema).
		set("definition", v.Definition).
		set("columns", viewColumnsValue(v.Columns)).
		set("comment", v.Comment).
		set("security", string(v.Security)).
		done()
}

func (o *DropView) Render() Call {
	return newCall(o.Name()).
		set("view_name", o.View.Name).
		set("schema", o.View.Schema).
		done()
}

func (o *AlterView) Render() Call {
	return newCall(o.Name()).
		set("view_name", o.View).
		set("schema", o.Schema).
		set("definition", o.Forward.Definition).
		set("columns", viewColumnsValue(o.Forward.Columns)).
		done()
}

func (o *CreateMaterializedView) Render() Call {
	m := o.MaterializedView
	return newCall(o.Name()).
		set("view_name", m.Name).
		set("schema", m.Schema).
		set("definition", m.Definition).
		set("properties", m.Properties).
		set("partition_by", m.PartitionBy).
		set("distributed_by", m.DistributedBy).
		set("order_by", m.OrderBy).
		set("refresh", m.Refresh).
		set("status", string(m.Status)).
		set("comment", m.Comment).
		done()
}

func (o *DropMaterializedView) Render() Call {
	return newCall(o.Name()).
		set("view_name", o.MaterializedView.Name).
		set("schema", o.MaterializedView.Schema).
		done()
}

func (o *AlterMaterializedView) Render() Call {
	return newCall(o.Name()).
		set("view_name", o.View).
		set("schema", o.Schema).
		set("properties", o.Forward.Properties).
		set("refresh", o.Forward.Refresh).
		set("status", string(o.Forward.Status)).
		set("new_name", o.Forward.NewName).
		done()
}
