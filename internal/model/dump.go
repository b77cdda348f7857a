package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/srschema/srschema/internal/descriptor"
)

// Dump serializes a catalog back into desired-state YAML, objects in name
// order. Parsing the output yields an equivalent catalog.
func Dump(catalog *descriptor.Catalog) ([]byte, error) {
	file := File{Schema: catalog.Schema}

	for _, name := range catalog.TableNames() {
		file.Tables = append(file.Tables, tableSpec(catalog.Tables[name]))
	}
	for _, name := range catalog.ViewNames() {
		file.Views = append(file.Views, viewSpec(catalog.Views[name]))
	}
	for _, name := range catalog.MaterializedViewNames() {
		file.MaterializedViews = append(file.MaterializedViews, materializedViewSpec(catalog.MaterializedViews[name]))
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize catalog: %w", err)
	}
	return data, nil
}

func tableSpec(t *descriptor.Table) TableSpec {
	spec := TableSpec{
		Name:          t.Name,
		Engine:        t.Engine,
		KeyType:       string(t.KeyType),
		KeyColumns:    t.KeyColumns,
		PartitionBy:   t.PartitionBy,
		DistributedBy: t.DistributedBy,
		OrderBy:       t.OrderBy,
		Properties:    map[string]string(t.Properties),
		Comment:       t.Comment,
	}
	for _, col := range t.Columns {
		colSpec := ColumnSpec{
			Name:          col.Name,
			Type:          col.Type,
			Default:       col.Default,
			Comment:       col.Comment,
			AutoIncrement: col.AutoIncrement,
			AggType:       string(col.AggType),
		}
		if !col.Nullable {
			nullable := false
			colSpec.Nullable = &nullable
		}
		spec.Columns = append(spec.Columns, colSpec)
	}
	for _, idx := range t.Indexes {
		spec.Indexes = append(spec.Indexes, IndexSpec{
			Name:    idx.Name,
			Columns: idx.Columns,
			Using:   string(idx.Using),
			Comment: idx.Comment,
		})
	}
	return spec
}

func viewSpec(v *descriptor.View) ViewSpec {
	spec := ViewSpec{
		Name:       v.Name,
		Definition: v.Definition,
		Comment:    v.Comment,
		Security:   string(v.Security),
	}
	for _, col := range v.Columns {
		spec.Columns = append(spec.Columns, ViewColumnSpec{Name: col.Name, Comment: col.Comment})
	}
	return spec
}

func materializedViewSpec(mv *descriptor.MaterializedView) MaterializedViewSpec {
	return MaterializedViewSpec{
		Name:          mv.Name,
		Definition:    mv.Definition,
		Properties:    map[string]string(mv.Properties),
		PartitionBy:   mv.PartitionBy,
		DistributedBy: mv.DistributedBy,
		OrderBy:       mv.OrderBy,
		Refresh:       mv.Refresh,
		Status:        string(mv.Status),
		Comment:       mv.Comment,
	}
}
