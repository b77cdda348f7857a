// Package diff computes the ordered, reversible operation list that
// transforms an observed StarRocks schema into a desired one. Comparators
// are registered explicitly on the engine, one per object kind, and each
// guards on the descriptor dialect so the engine can be composed alongside
// comparators for other backends.
package diff

import (
	"errors"

	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/op"
)

// Kind identifies the object kind of a pair
type Kind string

const (
	KindTable            Kind = "table"
	KindView             Kind = "view"
	KindMaterializedView Kind = "materialized_view"
)

// Pair is one (kind, schema, name) identity with its observed and desired
// descriptors; either side may be nil when the object is absent there.
type Pair struct {
	Kind     Kind
	Schema   string
	Name     string
	Observed any
	Desired  any
}

// Comparator computes the change set for pairs of one object kind. A
// comparator invoked on a pair of another kind, or on descriptors of
// another dialect, returns no operations, no warnings, and no error.
type Comparator interface {
	Kind() Kind
	Compare(pair Pair, opts Options) ([]op.Operation, []Warning, error)
}

// AutoIncrementPolicy controls how auto_increment changes are handled
type AutoIncrementPolicy int

const (
	// AutoIncrementIgnore emits nothing when auto_increment differs
	AutoIncrementIgnore AutoIncrementPolicy = iota
	// AutoIncrementWarn emits a warning
	AutoIncrementWarn
	// AutoIncrementError raises a ValidationError
	AutoIncrementError
)

// Options configures a diff run
type Options struct {
	// CollectAll gathers every comparator error instead of aborting on the
	// first one; independently valid operations are still returned.
	CollectAll bool
	// RunMode selects the server-side property defaults
	RunMode descriptor.RunMode
	// OnAutoIncrementChange controls auto_increment change handling
	OnAutoIncrementChange AutoIncrementPolicy
}

// Result is the outcome of a diff run
type Result struct {
	Ops      []op.Operation
	Warnings []Warning
}

// Engine orchestrates comparators over two catalogs
type Engine struct {
	comparators []Comparator
	opts        Options
}

// NewEngine creates an engine with the StarRocks comparators registered in
// their canonical order: tables, views, materialized views.
func NewEngine(opts Options) *Engine {
	return NewEngineWithComparators(opts,
		&TableComparator{},
		&ViewComparator{},
		&MaterializedViewComparator{},
	)
}

// NewEngineWithComparators creates an engine with an explicit comparator
// list, consulted in order for every pair
func NewEngineWithComparators(opts Options, comparators ...Comparator) *Engine {
	if opts.RunMode == "" {
		opts.RunMode = descriptor.RunModeSharedNothing
	}
	return &Engine{comparators: comparators, opts: opts}
}

// Diff compares observed against desired and returns the ordered operation
// list plus collected warnings. Pairs are visited kind by kind in name
// order, so identical inputs always produce identical output.
func (e *Engine) Diff(observed, desired *descriptor.Catalog) (*Result, error) {
	// a nil catalog compares like an empty one
	if observed == nil {
		observed = descriptor.NewCatalog("")
	}
	if desired == nil {
		desired = descriptor.NewCatalog("")
	}

	result := &Result{}
	var errs []error

	for _, pair := range buildPairs(observed, desired) {
		for _, comparator := range e.comparators {
			ops, warnings, err := comparator.Compare(pair, e.opts)
			if err != nil {
				if !e.opts.CollectAll {
					return nil, err
				}
				errs = append(errs, err)
				continue
			}
			result.Ops = append(result.Ops, ops...)
			result.Warnings = append(result.Warnings, warnings...)
		}
	}

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	return result, nil
}

// buildPairs matches objects across the two catalogs by (kind, schema,
// name) and returns the pairs in deterministic order
func buildPairs(observed, desired *descriptor.Catalog) []Pair {
	schema := desired.Schema
	if schema == "" {
		schema = observed.Schema
	}

	var pairs []Pair

	for _, name := range unionNames(observed.TableNames(), desired.TableNames()) {
		pair := Pair{Kind: KindTable, Schema: schema, Name: name}
		if t, ok := observed.Tables[name]; ok {
			pair.Observed = t
		}
		if t, ok := desired.Tables[name]; ok {
			pair.Desired = t
		}
		pairs = append(pairs, pair)
	}

	for _, name := range unionNames(observed.ViewNames(), desired.ViewNames()) {
		pair := Pair{Kind: KindView, Schema: schema, Name: name}
		if v, ok := observed.Views[name]; ok {
			pair.Observed = v
		}
		if v, ok := desired.Views[name]; ok {
			pair.Desired = v
		}
		pairs = append(pairs, pair)
	}

	for _, name := range unionNames(observed.MaterializedViewNames(), desired.MaterializedViewNames()) {
		pair := Pair{Kind: KindMaterializedView, Schema: schema, Name: name}
		if m, ok := observed.MaterializedViews[name]; ok {
			pair.Observed = m
		}
		if m, ok := desired.MaterializedViews[name]; ok {
			pair.Desired = m
		}
		pairs = append(pairs, pair)
	}

	return pairs
}

func unionNames(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var next string
		switch {
		case i >= len(a):
			next = b[j]
			j++
		case j >= len(b):
			next = a[i]
			i++
		case a[i] <= b[j]:
			next = a[i]
			i++
		default:
			next = b[j]
			j++
		}
		if !seen[next] {
			seen[next] = true
			out = append(out, next)
		}
	}
	return out
}
