package diff

import (
	"strings"

	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/normalize"
	"github.com/srschema/srschema/internal/op"
)

// TableComparator computes the change set between two table descriptors.
//
// Non-alterable attributes (engine, key type, key columns, partition
// clause) raise UnsupportedChangeError when they differ. Alterable
// attributes (distribution, sort order, properties, comment) emit a single
// AlterTableOption carrying only the changed fields. Column and index
// changes emit their own operations.
type TableComparator struct{}

func (c *TableComparator) Kind() Kind { return KindTable }

func (c *TableComparator) Compare(pair Pair, opts Options) ([]op.Operation, []Warning, error) {
	if pair.Kind != KindTable {
		return nil, nil, nil
	}
	observed, _ := pair.Observed.(*descriptor.Table)
	desired, _ := pair.Desired.(*descriptor.Table)
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
		return []op.Operation{&op.CreateTable{Table: desired}}, nil, nil
	case desired == nil:
		return []op.Operation{&op.DropTable{Table: observed}}, nil, nil
	}
	return c.compare(pair, observed, desired, opts)
}

func (c *TableComparator) compare(pair Pair, observed, desired *descriptor.Table, opts Options) ([]op.Operation, []Warning, error) {
	if err := c.checkNonAlterable(pair, observed, desired); err != nil {
		return nil, nil, err
	}

	var warnings []Warning

	dropCols, modifyCols, addCols, colWarnings, err := c.compareColumns(pair, observed, desired, opts)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, colWarnings...)

	dropIdx, createIdx := c.compareIndexes(pair, observed, desired)

	alter, optWarnings := c.compareOptions(pair, observed, desired, opts)
	warnings = append(warnings, optWarnings...)

	// Drops first, then table-level alters, then creates. Multiple alters
	// for one table stay separate statements because the server runs at
	// most one schema-change job per table.
	var ops []op.Operation
	ops = append(ops, dropIdx...)
	ops = append(ops, dropCols...)
	if alter != nil {
		ops = append(ops, alter)
	}
	ops = append(ops, modifyCols...)
	ops = append(ops, addCols...)
	ops = append(ops, createIdx...)
	return ops, warnings, nil
}

func (c *TableComparator) checkNonAlterable(pair Pair, observed, desired *descriptor.Table) error {
	if desired.Engine != "" && !strings.EqualFold(observed.Engine, desired.Engine) {
		return &UnsupportedChangeError{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "engine", From: observed.Engine, To: desired.Engine,
		}
	}
	if observed.KeyType != desired.KeyType {
		return &UnsupportedChangeError{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "key_type", From: string(observed.KeyType), To: string(desired.KeyType),
		}
	}
	if !namesEqual(observed.KeyColumns, desired.KeyColumns) {
		return &UnsupportedChangeError{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "key_columns", From: strings.Join(observed.KeyColumns, ", "), To: strings.Join(desired.KeyColumns, ", "),
		}
	}
	if !normalize.Equal(observed.PartitionBy, desired.PartitionBy) {
		return &UnsupportedChangeError{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "partition_by", From: observed.PartitionBy, To: desired.PartitionBy,
		}
	}
	return nil
}

func (c *TableComparator) compareColumns(pair Pair, observed, desired *descriptor.Table, opts Options) (drops, modifies, adds []op.Operation, warnings []Warning, err error) {
	desiredByName := make(map[string]*descriptor.Column, len(desired.Columns))
	for _, col := range desired.Columns {
		desiredByName[strings.ToLower(col.Name)] = col
	}

	observedByName := make(map[string]*descriptor.Column, len(observed.Columns))
	for _, col := range observed.Columns {
		observedByName[strings.ToLower(col.Name)] = col
	}

	for _, obs := range observed.Columns {
		if _, ok := desiredByName[strings.ToLower(obs.Name)]; !ok {
			drops = append(drops, &op.DropColumn{Schema: pair.Schema, Table: pair.Name, Column: obs})
		}
	}

	for _, want := range desired.Columns {
		obs, ok := observedByName[strings.ToLower(want.Name)]
		if !ok {
			adds = append(adds, &op.AddColumn{Schema: pair.Schema, Table: pair.Name, Column: want})
			continue
		}

		if obs.AggType != want.AggType {
			// altering the aggregate function of an existing column is not
			// supported by the server
			return nil, nil, nil, nil, &UnsupportedChangeError{
				Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
				Attribute: "agg_type", From: string(obs.AggType), To: string(want.AggType),
			}
		}

		if obs.AutoIncrement != want.AutoIncrement {
			switch opts.OnAutoIncrementChange {
			case AutoIncrementWarn:
				warnings = append(warnings, Warning{
					Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
					Attribute: "auto_increment",
					Detail:    "auto_increment change on column " + want.Name + " is not compared; change ignored",
				})
			case AutoIncrementError:
				return nil, nil, nil, nil, &ValidationError{
					Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
					Detail: "auto_increment changed on column " + want.Name,
				}
			}
		}

		if columnChanged(obs, want) {
			modifies = append(modifies, &op.ModifyColumn{
				Schema: pair.Schema, Table: pair.Name,
				Forward: want, Backward: obs,
			})
		}
	}

	return drops, modifies, adds, warnings, nil
}

func columnChanged(observed, desired *descriptor.Column) bool {
	if !normalize.Equal(observed.Type, desired.Type) {
		return true
	}
	if observed.Nullable != desired.Nullable {
		return true
	}
	if !stringPtrEqual(observed.Default, desired.Default) {
		return true
	}
	if observed.Comment != desired.Comment {
		return true
	}
	return false
}

func (c *TableComparator) compareIndexes(pair Pair, observed, desired *descriptor.Table) (drops, creates []op.Operation) {
	desiredByName := make(map[string]*descriptor.Index, len(desired.Indexes))
	for _, idx := range desired.Indexes {
		desiredByName[strings.ToLower(idx.Name)] = idx
	}
	observedByName := make(map[string]*descriptor.Index, len(observed.Indexes))
	for _, idx := range observed.Indexes {
		observedByName[strings.ToLower(idx.Name)] = idx
	}

	for _, obs := range observed.Indexes {
		want, ok := desiredByName[strings.ToLower(obs.Name)]
		if !ok {
			drops = append(drops, &op.DropIndex{Schema: pair.Schema, Table: pair.Name, Index: obs})
			continue
		}
		// there is no in-place index alter; any change is drop+create
		if indexChanged(obs, want) {
			drops = append(drops, &op.DropIndex{Schema: pair.Schema, Table: pair.Name, Index: obs})
			creates = append(creates, &op.CreateIndex{Schema: pair.Schema, Table: pair.Name, Index: want})
		}
	}
	for _, want := range desired.Indexes {
		if _, ok := observedByName[strings.ToLower(want.Name)]; !ok {
			creates = append(creates, &op.CreateIndex{Schema: pair.Schema, Table: pair.Name, Index: want})
		}
	}
	return drops, creates
}

func indexChanged(observed, desired *descriptor.Index) bool {
	return !namesEqual(observed.Columns, desired.Columns) ||
		observed.Using != desired.Using ||
		observed.Comment != desired.Comment
}

func (c *TableComparator) compareOptions(pair Pair, observed, desired *descriptor.Table, opts Options) (op.Operation, []Warning) {
	var forward, backward op.TableOptions
	var warnings []Warning

	if desired.DistributedBy != "" {
		if !normalize.Equal(observed.DistributedBy, desired.DistributedBy) {
			forward.DistributedBy = desired.DistributedBy
			backward.DistributedBy = observed.DistributedBy
		} else if observed.DistributedBy != desired.DistributedBy {
			warnings = append(warnings, Warning{
				Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
				Attribute: "distributed_by",
				Detail:    "differs only in case, quoting, or whitespace; no operation emitted",
			})
		}
	}

	if len(desired.OrderBy) > 0 && !namesEqual(observed.OrderBy, desired.OrderBy) {
		forward.OrderBy = desired.OrderBy
		backward.OrderBy = observed.OrderBy
	}

	if props, prev := diffProperties(observed.Properties, desired.Properties, opts.RunMode); len(props) > 0 {
		forward.Properties = props
		backward.Properties = prev
	}

	// an empty desired comment means unspecified, never "remove the comment"
	if desired.Comment != "" && observed.Comment != desired.Comment {
		forward.Comment = &desired.Comment
		observedComment := observed.Comment
		backward.Comment = &observedComment
	} else if desired.Comment == "" && observed.Comment != "" {
		warnings = append(warnings, Warning{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "comment",
			Detail:    "desired state omits the comment; removal is not expressible and the observed comment is kept",
		})
	}

	if forward.IsZero() {
		return nil, warnings
	}
	return &op.AlterTableOption{
		Schema: pair.Schema, Table: pair.Name,
		Forward: forward, Backward: backward,
	}, warnings
}

// diffProperties returns the desired properties that differ from observed,
// plus the observed values needed to reverse them. Keys present only in
// observed are never touched, and desired values that merely restate a
// server default the observed side omitted do not count as changes.
func diffProperties(observed, desired descriptor.Properties, mode descriptor.RunMode) (changed, previous descriptor.Properties) {
	for _, key := range desired.SortedKeys() {
		want := desired[key]
		have, ok := observed.Get(key)
		if !ok {
			if descriptor.IsDefaultProperty(mode, key, want) {
				continue
			}
			if changed == nil {
				changed = descriptor.Properties{}
				previous = descriptor.Properties{}
			}
			changed[key] = want
			if def, hasDefault := descriptor.DefaultProperties(mode).Get(key); hasDefault {
				previous[key] = def
			}
			continue
		}
		if have != want {
			if changed == nil {
				changed = descriptor.Properties{}
				previous = descriptor.Properties{}
			}
			changed[key] = want
			previous[key] = have
		}
	}
	return changed, previous
}

func namesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(strings.TrimSpace(a[i]), strings.TrimSpace(b[i])) {
			return false
		}
	}
	return true
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
