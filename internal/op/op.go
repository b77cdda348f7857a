// Package op defines the reversible migration operations produced by the
// diff engine. Every operation carries a forward payload (the fields needed
// to apply the change) and a reverse payload captured from the observed
// state at diff time, so downgrades stay correct even if the live database
// changes between migrations.
package op

import (
	"github.com/srschema/srschema/internal/descriptor"
)

// Operation is one forward+reverse schema change unit
type Operation interface {
	// Name returns the operation name used in rendered call-forms
	Name() string
	// Reverse returns the structurally inverse operation.
	// Reverse(Reverse(op)) is structurally equal to op.
	Reverse() Operation
	// Render returns the named-operation record for script generation
	Render() Call
}

// TableOptions carries the alterable table attributes. Zero-valued fields
// are unset and must not be rendered.
type TableOptions struct {
	DistributedBy string
	OrderBy       []string
	Properties    descriptor.Properties
	Comment       *string
}

// IsZero reports whether no option field is populated
func (o TableOptions) IsZero() bool {
	return o.DistributedBy == "" && o.OrderBy == nil && o.Properties == nil && o.Comment == nil
}

// ViewDefinition is the alterable part of a view: the SELECT text and the
// optional output column list. Comment and security are not alterable and
// never appear here.
type ViewDefinition struct {
	Definition string
	Columns    []descriptor.ViewColumn
}

// MVOptions carries the alterable materialized view attributes. NewName is
// never produced by the diff engine, which matches objects by name; it is
// for callers constructing rename operations directly.
type MVOptions struct {
	Properties descriptor.Properties
	Refresh    string
	Status     descriptor.MVStatus
	NewName    string
}

// IsZero reports whether no option field is populated
func (o MVOptions) IsZero() bool {
	return o.Properties == nil && o.Refresh == "" && o.Status == "" && o.NewName == ""
}

// CreateTable creates a table
type CreateTable struct {
	Table *descriptor.Table
}

func (o *CreateTable) Name() string { return "create_table" }

func (o *CreateTable) Reverse() Operation { return &DropTable{Table: o.Table} }

// DropTable drops a table. The full descriptor is retained so the reverse
// operation can recreate it.
type DropTable struct {
	Table *descriptor.Table
}

func (o *DropTable) Name() string { return "drop_table" }

func (o *DropTable) Reverse() Operation { return &CreateTable{Table: o.Table} }

// AlterTableOption changes one or more alterable table attributes. Forward
// holds only the changed fields; Backward holds their observed values.
type AlterTableOption struct {
	Schema   string
	Table    string
	Forward  TableOptions
	Backward TableOptions
}

func (o *AlterTableOption) Name() string { return "alter_table_option" }

func (o *AlterTableOption) Reverse() Operation {
	return &AlterTableOption{Schema: o.Schema, Table: o.Table, Forward: o.Backward, Backward: o.Forward}
}

// AddColumn adds a column to an existing table
type AddColumn struct {
	Schema string
	Table  string
	Column *descriptor.Column
}

func (o *AddColumn) Name() string { return "add_column" }

func (o *AddColumn) Reverse() Operation {
	return &DropColumn{Schema: o.Schema, Table: o.Table, Column: o.Column}
}

// DropColumn drops a column. The descriptor is retained for the reverse.
type DropColumn struct {
	Schema string
	Table  string
	Column *descriptor.Column
}

func (o *DropColumn) Name() string { return "drop_column" }

func (o *DropColumn) Reverse() Operation {
	return &AddColumn{Schema: o.Schema, Table: o.Table, Column: o.Column}
}

// ModifyColumn changes a column's type, nullability, default, or comment
type ModifyColumn struct {
	Schema   string
	Table    string
	Forward  *descriptor.Column
	Backward *descriptor.Column
}

func (o *ModifyColumn) Name() string { return "modify_column" }

func (o *ModifyColumn) Reverse() Operation {
	return &ModifyColumn{Schema: o.Schema, Table: o.Table, Forward: o.Backward, Backward: o.Forward}
}

// CreateIndex creates an index on a table
type CreateIndex struct {
	Schema string
	Table  string
	Index  *descriptor.Index
}

func (o *CreateIndex) Name() string { return "create_index" }

func (o *CreateIndex) Reverse() Operation {
	return &DropIndex{Schema: o.Schema, Table: o.Table, Index: o.Index}
}

// DropIndex drops an index from a table
type DropIndex struct {
	Schema string
	Table  string
	Index  *descriptor.Index
}

func (o *DropIndex) Name() string { return "drop_index" }

func (o *DropIndex) Reverse() Operation {
	return &CreateIndex{Schema: o.Schema, Table: o.Table, Index: o.Index}
}

// CreateView creates a view
type CreateView struct {
	View *descriptor.View
}

func (o *CreateView) Name() string { return "create_view" }

func (o *CreateView) Reverse() Operation { return &DropView{View: o.View} }

// DropView drops a view
type DropView struct {
	View *descriptor.View
}

func (o *DropView) Name() string { return "drop_view" }

func (o *DropView) Reverse() Operation { return &CreateView{View: o.View} }

// AlterView redefines a view's SELECT clause. ALTER VIEW cannot change the
// comment or security context, so those never travel in the payload.
type AlterView struct {
	Schema   string
	View     string
	Forward  ViewDefinition
	Backward ViewDefinition
}

func (o *AlterView) Name() string { return "alter_view" }

func (o *AlterView) Reverse() Operation {
	return &AlterView{Schema: o.Schema, View: o.View, Forward: o.Backward, Backward: o.Forward}
}

// CreateMaterializedView creates a materialized view
type CreateMaterializedView struct {
	MaterializedView *descriptor.MaterializedView
}

func (o *CreateMaterializedView) Name() string { return "create_materialized_view" }

func (o *CreateMaterializedView) Reverse() Operation {
	return &DropMaterializedView{MaterializedView: o.MaterializedView}
}

// DropMaterializedView drops a materialized view
type DropMaterializedView struct {
	MaterializedView *descriptor.MaterializedView
}

func (o *DropMaterializedView) Name() string { return "drop_materialized_view" }

func (o *DropMaterializedView) Reverse() Operation {
	return &CreateMaterializedView{MaterializedView: o.MaterializedView}
}

// AlterMaterializedView changes a materialized view's properties, refresh
// scheme, activation status, or name
type AlterMaterializedView struct {
	Schema   string
	View     string
	Forward  MVOptions
	Backward MVOptions
}

func (o *AlterMaterializedView) Name() string { return "alter_materialized_view" }

func (o *AlterMaterializedView) Reverse() Operation {
	return &AlterMaterializedView{Schema: o.Schema, View: o.View, Forward: o.Backward, Backward: o.Forward}
}
