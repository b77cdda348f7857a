// Package srschema provides a programmatic API for StarRocks schema
// management: reflect a live schema, load a desired state, diff the two
// into a reversible migration plan, and render or apply that plan.
package srschema

import (
	"context"
	"database/sql"

	planCmd "github.com/srschema/srschema/cmd/plan"
	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/diff"
	"github.com/srschema/srschema/internal/inspect"
	"github.com/srschema/srschema/internal/model"
	"github.com/srschema/srschema/internal/plan"
)

// Catalog is the full descriptor set of one schema
type Catalog = descriptor.Catalog

// Plan is an ordered, reversible migration plan
type Plan = plan.Plan

// DiffOptions configures a diff run
type DiffOptions = diff.Options

// DiffResult is the outcome of a diff run
type DiffResult = diff.Result

// DatabaseConfig holds connection details for a StarRocks frontend
type DatabaseConfig struct {
	Host     string // Database server host
	Port     int    // Database server query port
	Database string // Database name
	User     string // Database user
	Password string // Database password (optional)
	Schema   string // Target schema name (default: the database name)
}

// PlanOptions configures plan generation
type PlanOptions struct {
	DatabaseConfig
	File                  string // Path to desired state YAML schema file
	RunMode               string // "auto", "shared_nothing", or "shared_data" (default: "auto")
	OnAutoIncrementChange string // "ignore", "warn", or "error" (default: "ignore")
	CollectAll            bool   // Collect all diff errors instead of stopping at the first
}

// GeneratePlan reflects the live schema, loads the desired state file, and
// diffs the two into a migration plan.
func GeneratePlan(ctx context.Context, opts PlanOptions) (*Plan, error) {
	schema := opts.Schema
	if schema == "" {
		schema = opts.Database
	}
	return planCmd.GeneratePlan(ctx, &planCmd.Config{
		Host:             opts.Host,
		Port:             opts.Port,
		DB:               opts.Database,
		User:             opts.User,
		Password:         opts.Password,
		Schema:           schema,
		File:             opts.File,
		RunMode:          opts.RunMode,
		OnAutoIncrement:  opts.OnAutoIncrementChange,
		CollectAllErrors: opts.CollectAll,
	})
}

// LoadDesiredState parses a desired-state YAML file into a catalog
func LoadDesiredState(path string) (*Catalog, error) {
	return model.Load(path)
}

// InspectSchema reflects the current state of a schema over an existing
// database connection
func InspectSchema(ctx context.Context, db *sql.DB, schema string) (*Catalog, error) {
	return inspect.NewInspector(db).InspectSchema(ctx, schema)
}

// Diff compares an observed catalog against a desired one and returns the
// ordered operation list
func Diff(observed, desired *Catalog, opts DiffOptions) (*DiffResult, error) {
	return diff.NewEngine(opts).Diff(observed, desired)
}

// NewPlan wraps a diff result in a renderable plan
func NewPlan(result *DiffResult) *Plan {
	return plan.NewPlan(result)
}
