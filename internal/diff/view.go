package diff

import (
	"strings"

	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/normalize"
	"github.com/srschema/srschema/internal/op"
)

// ViewComparator computes the change set between two view descriptors.
//
// ALTER VIEW can only redefine the AS SELECT clause, so a changed
// definition emits an AlterView without comment or security, and a
// comment-only or security-only change emits just a warning.
type ViewComparator struct{}

func (c *ViewComparator) Kind() Kind { return KindView }

func (c *ViewComparator) Compare(pair Pair, opts Options) ([]op.Operation, []Warning, error) {
	if pair.Kind != KindView {
		return nil, nil, nil
	}
	observed, _ := pair.Observed.(*descriptor.View)
	desired, _ := pair.Desired.(*descriptor.View)
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
		return []op.Operation{&op.CreateView{View: desired}}, nil, nil
	case desired == nil:
		return []op.Operation{&op.DropView{View: observed}}, nil, nil
	}

	if strings.TrimSpace(desired.Definition) == "" {
		return nil, nil, &ValidationError{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Detail: "desired view has no definition",
		}
	}

	definitionChanged := !normalize.Equal(observed.Definition, desired.Definition)
	// reflection does not always report a column list; compare only when
	// both sides have one
	columnsComparable := len(observed.Columns) > 0 && len(desired.Columns) > 0
	columnsChanged := columnsComparable && !viewColumnsEqual(observed.Columns, desired.Columns)

	if definitionChanged {
		// comment and security differences are dropped here: one ALTER
		// VIEW call can only redefine the SELECT clause
		alter := &op.AlterView{
			Schema: pair.Schema,
			View:   pair.Name,
			Forward: op.ViewDefinition{
				Definition: desired.Definition,
				Columns:    desired.Columns,
			},
			Backward: op.ViewDefinition{
				Definition: observed.Definition,
				Columns:    observed.Columns,
			},
		}
		return []op.Operation{alter}, nil, nil
	}

	if columnsChanged {
		return nil, nil, &ValidationError{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Detail: "view column list changed without a definition change",
		}
	}

	var warnings []Warning
	if len(desired.Columns) > 0 && len(observed.Columns) == 0 {
		warnings = append(warnings, Warning{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "columns",
			Detail:    "observed view did not report a column list; column comparison skipped",
		})
	}
	if observed.Comment != desired.Comment {
		warnings = append(warnings, Warning{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "comment",
			Detail:    "ALTER VIEW cannot change the comment independently; change ignored",
		})
	}
	if observed.Security != desired.Security && desired.Security != descriptor.SecurityNone {
		warnings = append(warnings, Warning{
			Kind: pair.Kind, Schema: pair.Schema, Name: pair.Name,
			Attribute: "security",
			Detail:    "ALTER VIEW cannot change the security context independently; change ignored",
		})
	}
	return nil, warnings, nil
}

func viewColumnsEqual(a, b []descriptor.ViewColumn) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i].Name, b[i].Name) || a[i].Comment != b[i].Comment {
			return false
		}
	}
	return true
}
