// Package model loads the desired schema state from a declarative YAML
// file and converts it into descriptor form, applying defaults and
// validating the descriptor invariants.
package model

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/diff"
)

// File is the YAML shape of a desired-state schema file
type File struct {
	Schema            string                 `yaml:"schema"`
	Tables            []TableSpec            `yaml:"tables,omitempty"`
	Views             []ViewSpec             `yaml:"views,omitempty"`
	MaterializedViews []MaterializedViewSpec `yaml:"materialized_views,omitempty"`
}

// TableSpec declares one table
type TableSpec struct {
	Name          string            `yaml:"name"`
	Engine        string            `yaml:"engine,omitempty"`
	KeyType       string            `yaml:"key_type,omitempty"`
	KeyColumns    []string          `yaml:"key_columns,omitempty"`
	PartitionBy   string            `yaml:"partition_by,omitempty"`
	DistributedBy string            `yaml:"distributed_by,omitempty"`
	OrderBy       []string          `yaml:"order_by,omitempty"`
	Properties    map[string]string `yaml:"properties,omitempty"`
	Comment       string            `yaml:"comment,omitempty"`
	Columns       []ColumnSpec      `yaml:"columns"`
	Indexes       []IndexSpec       `yaml:"indexes,omitempty"`
}

// ColumnSpec declares one column. Nullable defaults to true when omitted.
type ColumnSpec struct {
	Name          string  `yaml:"name"`
	Type          string  `yaml:"type"`
	Nullable      *bool   `yaml:"nullable,omitempty"`
	Default       *string `yaml:"default,omitempty"`
	Comment       string  `yaml:"comment,omitempty"`
	AutoIncrement bool    `yaml:"auto_increment,omitempty"`
	AggType       string  `yaml:"agg_type,omitempty"`
}

// IndexSpec declares one index
type IndexSpec struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Using   string   `yaml:"using,omitempty"`
	Comment string   `yaml:"comment,omitempty"`
}

// ViewSpec declares one view
type ViewSpec struct {
	Name       string           `yaml:"name"`
	Definition string           `yaml:"definition"`
	Columns    []ViewColumnSpec `yaml:"columns,omitempty"`
	Comment    string           `yaml:"comment,omitempty"`
	Security   string           `yaml:"security,omitempty"`
}

// ViewColumnSpec declares one view output column
type ViewColumnSpec struct {
	Name    string `yaml:"name"`
	Comment string `yaml:"comment,omitempty"`
}

// MaterializedViewSpec declares one materialized view
type MaterializedViewSpec struct {
	Name          string            `yaml:"name"`
	Definition    string            `yaml:"definition"`
	Properties    map[string]string `yaml:"properties,omitempty"`
	PartitionBy   string            `yaml:"partition_by,omitempty"`
	DistributedBy string            `yaml:"distributed_by,omitempty"`
	OrderBy       []string          `yaml:"order_by,omitempty"`
	Refresh       string            `yaml:"refresh,omitempty"`
	Status        string            `yaml:"status,omitempty"`
	Comment       string            `yaml:"comment,omitempty"`
}

// Load reads and parses a desired-state file
func Load(path string) (*descriptor.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Parse(data)
}

// Parse converts YAML bytes into a validated catalog
func Parse(data []byte) (*descriptor.Catalog, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}
	return file.Catalog()
}

// Catalog converts the file into descriptor form
func (f *File) Catalog() (*descriptor.Catalog, error) {
	catalog := descriptor.NewCatalog(f.Schema)

	for idx := range f.Tables {
		table, err := f.Tables[idx].descriptor(f.Schema)
		if err != nil {
			return nil, err
		}
		if _, exists := catalog.Tables[table.Name]; exists {
			return nil, &diff.ValidationError{Kind: diff.KindTable, Schema: f.Schema, Name: table.Name, Detail: "declared more than once"}
		}
		catalog.Tables[table.Name] = table
	}

	for idx := range f.Views {
		view, err := f.Views[idx].descriptor(f.Schema)
		if err != nil {
			return nil, err
		}
		if _, exists := catalog.Views[view.Name]; exists {
			return nil, &diff.ValidationError{Kind: diff.KindView, Schema: f.Schema, Name: view.Name, Detail: "declared more than once"}
		}
		catalog.Views[view.Name] = view
	}

	for idx := range f.MaterializedViews {
		mv, err := f.MaterializedViews[idx].descriptor(f.Schema)
		if err != nil {
			return nil, err
		}
		if _, exists := catalog.MaterializedViews[mv.Name]; exists {
			return nil, &diff.ValidationError{Kind: diff.KindMaterializedView, Schema: f.Schema, Name: mv.Name, Detail: "declared more than once"}
		}
		catalog.MaterializedViews[mv.Name] = mv
	}

	return catalog, nil
}

func (s *TableSpec) descriptor(schema string) (*descriptor.Table, error) {
	keyType, err := parseKeyType(s.KeyType)
	if err != nil {
		return nil, &diff.ValidationError{Kind: diff.KindTable, Schema: schema, Name: s.Name, Detail: err.Error()}
	}

	table := &descriptor.Table{
		Dialect:       descriptor.Dialect,
		Schema:        schema,
		Name:          s.Name,
		Engine:        defaultString(s.Engine, "OLAP"),
		KeyType:       keyType,
		KeyColumns:    s.KeyColumns,
		PartitionBy:   s.PartitionBy,
		DistributedBy: defaultString(s.DistributedBy, "RANDOM"),
		OrderBy:       s.OrderBy,
		Properties:    descriptor.Properties(s.Properties),
		Comment:       s.Comment,
	}

	for _, colSpec := range s.Columns {
		col, err := colSpec.descriptor()
		if err != nil {
			return nil, &diff.ValidationError{Kind: diff.KindTable, Schema: schema, Name: s.Name, Detail: err.Error()}
		}
		col.IsKey = containsFold(s.KeyColumns, col.Name)
		table.Columns = append(table.Columns, col)
	}

	for _, idxSpec := range s.Indexes {
		using, err := parseIndexUsing(idxSpec.Using)
		if err != nil {
			return nil, &diff.ValidationError{Kind: diff.KindTable, Schema: schema, Name: s.Name, Detail: err.Error()}
		}
		table.Indexes = append(table.Indexes, &descriptor.Index{
			Name:    idxSpec.Name,
			Columns: idxSpec.Columns,
			Using:   using,
			Comment: idxSpec.Comment,
		})
	}

	if err := table.Validate(); err != nil {
		return nil, &diff.ValidationError{Kind: diff.KindTable, Schema: schema, Name: s.Name, Detail: err.Error()}
	}
	return table, nil
}

func (s *ColumnSpec) descriptor() (*descriptor.Column, error) {
	if s.Name == "" || s.Type == "" {
		return nil, fmt.Errorf("column %q must declare a name and a type", s.Name)
	}
	agg, err := parseAggType(s.AggType)
	if err != nil {
		return nil, err
	}
	nullable := true
	if s.Nullable != nil {
		nullable = *s.Nullable
	}
	return &descriptor.Column{
		Name:          s.Name,
		Type:          s.Type,
		Nullable:      nullable,
		Default:       s.Default,
		Comment:       s.Comment,
		AutoIncrement: s.AutoIncrement,
		AggType:       agg,
	}, nil
}

func (s *ViewSpec) descriptor(schema string) (*descriptor.View, error) {
	security, err := parseSecurity(s.Security)
	if err != nil {
		return nil, &diff.ValidationError{Kind: diff.KindView, Schema: schema, Name: s.Name, Detail: err.Error()}
	}
	view := &descriptor.View{
		Dialect:    descriptor.Dialect,
		Schema:     schema,
		Name:       s.Name,
		Definition: s.Definition,
		Comment:    s.Comment,
		Security:   security,
	}
	for _, col := range s.Columns {
		view.Columns = append(view.Columns, descriptor.ViewColumn{Name: col.Name, Comment: col.Comment})
	}
	if err := view.Validate(); err != nil {
		return nil, &diff.ValidationError{Kind: diff.KindView, Schema: schema, Name: s.Name, Detail: err.Error()}
	}
	return view, nil
}

func (s *MaterializedViewSpec) descriptor(schema string) (*descriptor.MaterializedView, error) {
	status := descriptor.MVStatus(strings.ToUpper(strings.TrimSpace(s.Status)))
	if status == "" {
		status = descriptor.MVStatusActive
	}
	mv := &descriptor.MaterializedView{
		Dialect:       descriptor.Dialect,
		Schema:        schema,
		Name:          s.Name,
		Definition:    s.Definition,
		Properties:    descriptor.Properties(s.Properties),
		PartitionBy:   s.PartitionBy,
		DistributedBy: s.DistributedBy,
		OrderBy:       s.OrderBy,
		Refresh:       s.Refresh,
		Status:        status,
		Comment:       s.Comment,
	}
	if err := mv.Validate(); err != nil {
		return nil, &diff.ValidationError{Kind: diff.KindMaterializedView, Schema: schema, Name: s.Name, Detail: err.Error()}
	}
	return mv, nil
}

func parseKeyType(text string) (descriptor.KeyType, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "":
		return descriptor.KeyTypeNone, nil
	case "PRIMARY":
		return descriptor.KeyTypePrimary, nil
	case "DUPLICATE":
		return descriptor.KeyTypeDuplicate, nil
	case "AGGREGATE":
		return descriptor.KeyTypeAggregate, nil
	case "UNIQUE":
		return descriptor.KeyTypeUnique, nil
	default:
		return descriptor.KeyTypeNone, fmt.Errorf("unknown key type %q", text)
	}
}

func parseAggType(text string) (descriptor.AggType, error) {
	upper := strings.ToUpper(strings.TrimSpace(text))
	if upper == "" {
		return descriptor.AggTypeNone, nil
	}
	switch descriptor.AggType(upper) {
	case descriptor.AggTypeSum, descriptor.AggTypeCount, descriptor.AggTypeMin,
		descriptor.AggTypeMax, descriptor.AggTypeHLLUnion, descriptor.AggTypeBitmapUnion,
		descriptor.AggTypeReplace, descriptor.AggTypeReplaceIfNotNull:
		return descriptor.AggType(upper), nil
	default:
		return descriptor.AggTypeNone, fmt.Errorf("unknown aggregate type %q", text)
	}
}

func parseSecurity(text string) (descriptor.Security, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "", "NONE":
		return descriptor.SecurityNone, nil
	case "DEFINER":
		return descriptor.SecurityDefiner, nil
	case "INVOKER":
		return descriptor.SecurityInvoker, nil
	default:
		return descriptor.SecurityNone, fmt.Errorf("unknown security type %q", text)
	}
}

func parseIndexUsing(text string) (descriptor.IndexUsing, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "":
		return descriptor.IndexUsingNone, nil
	case "BITMAP":
		return descriptor.IndexUsingBitmap, nil
	default:
		return descriptor.IndexUsingNone, fmt.Errorf("unknown index method %q", text)
	}
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
