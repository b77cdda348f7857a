package plan

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/srschema/srschema/cmd/util"
	"github.com/srschema/srschema/internal/compile"
	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/diff"
	"github.com/srschema/srschema/internal/fingerprint"
	"github.com/srschema/srschema/internal/inspect"
	"github.com/srschema/srschema/internal/model"
	"github.com/srschema/srschema/internal/plan"
)

var (
	planHost          string
	planPort          int
	planDB            string
	planUser          string
	planPassword      string
	planSchema        string
	planFile          string
	planRunMode       string
	planAutoIncrement string
	planCollectAll    bool
	outputHuman       string
	outputJSON        string
	outputSQL         string
	planNoColor       bool
)

var PlanCmd = &cobra.Command{
	Use:          "plan",
	Short:        "Generate migration plan for a specific schema",
	Long:         "Generate a migration plan to bring a database schema to a desired state. Compares the desired state (from --file) with the current state of the schema (specified by --schema, defaults to the database name).",
	RunE:         runPlan,
	SilenceUsage: true,
	PreRunE:      util.PreRunEWithEnvVars(&planDB, &planUser, &planHost, &planPassword, &planPort),
}

func init() {
	PlanCmd.Flags().StringVar(&planHost, "host", "localhost", "Database server host (env: SRHOST)")
	PlanCmd.Flags().IntVar(&planPort, "port", 9030, "Database server query port (env: SRPORT)")
	PlanCmd.Flags().StringVar(&planDB, "db", "", "Database name (required) (env: SRDATABASE)")
	PlanCmd.Flags().StringVar(&planUser, "user", "", "Database user name (required) (env: SRUSER)")
	PlanCmd.Flags().StringVar(&planPassword, "password", "", "Database password (optional, can also use SRPASSWORD env var)")
	PlanCmd.Flags().StringVar(&planSchema, "schema", "", "Schema name (defaults to the database name)")

	PlanCmd.Flags().StringVar(&planFile, "file", "", "Path to desired state YAML schema file (required)")
	PlanCmd.Flags().StringVar(&planRunMode, "run-mode", "auto", "Server run mode for property defaults: auto, shared_nothing, or shared_data")
	PlanCmd.Flags().StringVar(&planAutoIncrement, "on-auto-increment-change", "ignore", "Handling of auto_increment changes: ignore, warn, or error")
	PlanCmd.Flags().BoolVar(&planCollectAll, "collect-all", false, "Collect all diff errors instead of stopping at the first")

	PlanCmd.Flags().StringVar(&outputHuman, "output-human", "", "Output human-readable format to stdout or file path")
	PlanCmd.Flags().StringVar(&outputJSON, "output-json", "", "Output JSON format to stdout or file path")
	PlanCmd.Flags().StringVar(&outputSQL, "output-sql", "", "Output SQL format to stdout or file path")
	PlanCmd.Flags().BoolVar(&planNoColor, "no-color", false, "Disable colored output")

	PlanCmd.MarkFlagRequired("file")
}

func runPlan(cmd *cobra.Command, args []string) error {
	config := ConfigFromFlags()

	migrationPlan, err := GeneratePlan(cmd.Context(), config)
	if err != nil {
		return err
	}

	outputs, err := determineOutputs()
	if err != nil {
		return err
	}
	for _, output := range outputs {
		if err := processOutput(migrationPlan, output); err != nil {
			return err
		}
	}

	return nil
}

// Config holds configuration for plan generation
type Config struct {
	Host             string
	Port             int
	DB               string
	User             string
	Password         string
	Schema           string
	File             string
	RunMode          string
	OnAutoIncrement  string
	CollectAllErrors bool
}

// ConfigFromFlags builds a plan config from the command flags, applying the
// schema-defaults-to-database rule and the SRPASSWORD fallback
func ConfigFromFlags() *Config {
	password := planPassword
	if password == "" {
		password = os.Getenv("SRPASSWORD")
	}
	schema := planSchema
	if schema == "" {
		schema = planDB
	}
	return &Config{
		Host:             planHost,
		Port:             planPort,
		DB:               planDB,
		User:             planUser,
		Password:         password,
		Schema:           schema,
		File:             planFile,
		RunMode:          planRunMode,
		OnAutoIncrement:  planAutoIncrement,
		CollectAllErrors: planCollectAll,
	}
}

// GeneratePlan loads the desired state, reflects the current state, and
// diffs them into a migration plan. A diff error in collect-all mode still
// returns the error; partial plans are never emitted.
func GeneratePlan(ctx context.Context, config *Config) (*plan.Plan, error) {
	conn, err := util.Connect(&util.ConnectionConfig{
		Host:     config.Host,
		Port:     config.Port,
		Database: config.DB,
		User:     config.User,
		Password: config.Password,
	})
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	inspector := inspect.NewInspector(conn)

	// The desired state file and the live schema are independent input
	// snapshots, so they load concurrently. Reflection itself stays
	// sequential inside InspectSchema.
	var desired, observed *descriptor.Catalog
	var runMode descriptor.RunMode
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var loadErr error
		desired, loadErr = model.Load(config.File)
		return loadErr
	})
	g.Go(func() error {
		var inspectErr error
		observed, inspectErr = inspector.InspectSchema(gctx, config.Schema)
		if inspectErr != nil {
			return inspectErr
		}
		runMode = inspector.RunMode(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts := diff.Options{CollectAll: config.CollectAllErrors}
	switch config.RunMode {
	case "", "auto":
		opts.RunMode = runMode
	case string(descriptor.RunModeSharedNothing), string(descriptor.RunModeSharedData):
		opts.RunMode = descriptor.RunMode(config.RunMode)
	default:
		return nil, fmt.Errorf("unknown run mode %q", config.RunMode)
	}
	switch config.OnAutoIncrement {
	case "", "ignore":
		opts.OnAutoIncrementChange = diff.AutoIncrementIgnore
	case "warn":
		opts.OnAutoIncrementChange = diff.AutoIncrementWarn
	case "error":
		opts.OnAutoIncrementChange = diff.AutoIncrementError
	default:
		return nil, fmt.Errorf("unknown auto_increment policy %q", config.OnAutoIncrement)
	}

	result, err := diff.NewEngine(opts).Diff(observed, desired)
	if err != nil {
		return nil, err
	}

	sourceFingerprint, err := fingerprint.Compute(observed)
	if err != nil {
		return nil, fmt.Errorf("failed to compute source fingerprint: %w", err)
	}

	return plan.NewPlanWithFingerprint(result, sourceFingerprint.String()), nil
}

// outputSpec represents a single output specification
type outputSpec struct {
	format string // "human", "json", or "sql"
	target string // "stdout" or file path
}

// determineOutputs parses the output flags and returns the list of outputs to generate
func determineOutputs() ([]outputSpec, error) {
	var outputs []outputSpec
	stdoutCount := 0

	if outputHuman != "" {
		if outputHuman == "stdout" {
			stdoutCount++
		}
		outputs = append(outputs, outputSpec{format: "human", target: outputHuman})
	}
	if outputJSON != "" {
		if outputJSON == "stdout" {
			stdoutCount++
		}
		outputs = append(outputs, outputSpec{format: "json", target: outputJSON})
	}
	if outputSQL != "" {
		if outputSQL == "stdout" {
			stdoutCount++
		}
		outputs = append(outputs, outputSpec{format: "sql", target: outputSQL})
	}

	if stdoutCount > 1 {
		return nil, fmt.Errorf("only one output format can use stdout")
	}

	// Default behavior: if no outputs specified, output human to stdout
	if len(outputs) == 0 {
		outputs = append(outputs, outputSpec{format: "human", target: "stdout"})
	}

	return outputs, nil
}

// processOutput writes the plan in the specified format to the target destination
func processOutput(migrationPlan *plan.Plan, output outputSpec) error {
	var content string
	var err error

	switch output.format {
	case "human":
		useColor := output.target == "stdout" && !planNoColor
		content = migrationPlan.HumanColored(useColor)
		if content != "" && content[len(content)-1] != '\n' {
			content += "\n"
		}
	case "json":
		content, err = migrationPlan.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to generate JSON output: %w", err)
		}
		content += "\n"
	case "sql":
		content, err = migrationPlan.ToSQL(compile.Forward)
		if err != nil {
			return fmt.Errorf("failed to generate SQL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", output.format)
	}

	if output.target == "stdout" {
		fmt.Print(content)
	} else {
		if err := os.WriteFile(output.target, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s output to %s: %w", output.format, output.target, err)
		}
	}

	return nil
}

// ResetFlags resets all global flag variables to their default values for testing
func ResetFlags() {
	planHost = "localhost"
	planPort = 9030
	planDB = ""
	planUser = ""
	planPassword = ""
	planSchema = ""
	planFile = ""
	planRunMode = "auto"
	planAutoIncrement = "ignore"
	planCollectAll = false
	outputHuman = ""
	outputJSON = ""
	outputSQL = ""
	planNoColor = false
}
