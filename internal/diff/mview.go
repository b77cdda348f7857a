package diff

import (
	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/normalize"
	"github.com/srschema/srschema/internal/op"
)

// MaterializedViewComparator computes the change set between two
// materialized view descriptors.
//
// Properties, refresh scheme, and activation status are independently
// alterable. The geometry of an existing materialized view (definition,
// partitioning, distribution, sort order) cannot be altered; such changes
// raise UnsupportedChangeError until backend support exists.
type MaterializedViewComparator struct{}

func (c *MaterializedViewComparator) Kind() Kind { return KindMaterializedView }

func (c *MaterializedViewComparator) Compare(pair Pair, opts Options) ([]op.Operation, []Warning, error) {
	if pair.Kind != KindMaterializedView {
		return nil, nil, nil
	}
	observed, _ := pair.Observed.(*descriptor.MaterializedView)
	desired, _ := pair.Desired.(*descriptor.MaterializedView)
	if observed != nil && observed.Dialect != descriptor.Dialect {
		return nil, nil, nil
	}
	if desired != nil && desired.Dialect != descriptor.Dialect {
		return nil, nil, nil
	}

	switch {
	case observed == nil && desired == nil:
		return nil, nil, nil
	case observed == nil:
		return []op.Operation{&op.CreateMaterializedView{MaterializedView: desired}}, nil, nil
	case desired == nil:
		return []op.Operation{&op.DropMaterializedView{MaterializedView: observed}}, nil, nil
	}

	if err := c.checkGeometry(pair, observed, desired); err != nil {
		return nil, nil, err
	}

	var forward, backward op.MVOptions
	var warnings []Warning

	if props, prev := diffProperties(observed.Properties, desired.Properties, opts.RunMode); len(props) > 0 {
		forward.Properties = props
		backward.Properties = prev
	}

	if desired.Refresh != "" && !normalize.Equal(observed.Refresh, desired.Refresh) {
		forward.Refresh = desired.Refresh
		backward.Refresh = observed.Refresh
	}

	if desired.Status != "" && observed.Status != desired.Status {
		forward.Status = desired.Status
		backward.Status = observed.Status
	}

	if desired.Comment != "" && observed.Comment != desired.Comment {
		warnings = append(warnings, Warning{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "comment",
			Detail:    "ALTER MATERIALIZED VIEW cannot change the comment; change ignored",
		})
	}

	if forward.IsZero() {
		return nil, warnings, nil
	}
	alter := &op.AlterMaterializedView{
		Schema: pair.Schema, View: pair.Name,
		Forward: forward, Backward: backward,
	}
	return []op.Operation{alter}, warnings, nil
}

func (c *MaterializedViewComparator) checkGeometry(pair Pair, observed, desired *descriptor.MaterializedView) error {
	if !normalize.Equal(observed.Definition, desired.Definition) {
		return &UnsupportedChangeError{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "definition", From: observed.Definition, To: desired.Definition,
		}
	}
	if desired.PartitionBy != "" && !normalize.Equal(observed.PartitionBy, desired.PartitionBy) {
		return &UnsupportedChangeError{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "partition_by", From: observed.PartitionBy, To: desired.PartitionBy,
		}
	}
	if desired.DistributedBy != "" && !normalize.Equal(observed.DistributedBy, desired.DistributedBy) {
		return &UnsupportedChangeError{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "distributed_by", From: observed.DistributedBy, To: desired.DistributedBy,
		}
	}
	if len(desired.OrderBy) > 0 && !namesEqual(observed.OrderBy, desired.OrderBy) {
		return &UnsupportedChangeError{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "order_by",
		}
	}
	return nil
}
