package apply

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	planCmd "github.com/srschema/srschema/cmd/plan"
	"github.com/srschema/srschema/cmd/util"
	"github.com/srschema/srschema/internal/compile"
	"github.com/srschema/srschema/internal/logger"
)

var (
	applyHost        string
	applyPort        int
	applyDB          string
	applyUser        string
	applyPassword    string
	applySchema      string
	applyFile        string
	applyRunMode     string
	applyAutoApprove bool
	applyNoColor     bool
	applyDryRun      bool
)

var ApplyCmd = &cobra.Command{
	Use:          "apply",
	Short:        "Apply migration plan to update a database schema",
	Long:         "Apply a desired schema state to a target database schema. Compares the desired state (from --file) with the current state of the schema and applies the necessary changes.",
	RunE:         runApply,
	SilenceUsage: true,
	PreRunE:      util.PreRunEWithEnvVars(&applyDB, &applyUser, &applyHost, &applyPassword, &applyPort),
}

func init() {
	ApplyCmd.Flags().StringVar(&applyHost, "host", "localhost", "Database server host (env: SRHOST)")
	ApplyCmd.Flags().IntVar(&applyPort, "port", 9030, "Database server query port (env: SRPORT)")
	ApplyCmd.Flags().StringVar(&applyDB, "db", "", "Database name (required) (env: SRDATABASE)")
	ApplyCmd.Flags().StringVar(&applyUser, "user", "", "Database user name (required) (env: SRUSER)")
	ApplyCmd.Flags().StringVar(&applyPassword, "password", "", "Database password (optional, can also use SRPASSWORD env var)")
	ApplyCmd.Flags().StringVar(&applySchema, "schema", "", "Schema name (defaults to the database name)")

	ApplyCmd.Flags().StringVar(&applyFile, "file", "", "Path to desired state YAML schema file (required)")
	ApplyCmd.Flags().StringVar(&applyRunMode, "run-mode", "auto", "Server run mode for property defaults: auto, shared_nothing, or shared_data")

	ApplyCmd.Flags().BoolVar(&applyAutoApprove, "auto-approve", false, "Apply changes without prompting for approval")
	ApplyCmd.Flags().BoolVar(&applyNoColor, "no-color", false, "Disable colored output")
	ApplyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Show plan without applying changes")

	ApplyCmd.MarkFlagRequired("file")
}

func runApply(cmd *cobra.Command, args []string) error {
	password := applyPassword
	if password == "" {
		password = os.Getenv("SRPASSWORD")
	}
	schema := applySchema
	if schema == "" {
		schema = applyDB
	}

	config := &planCmd.Config{
		Host:     applyHost,
		Port:     applyPort,
		DB:       applyDB,
		User:     applyUser,
		Password: password,
		Schema:   schema,
		File:     applyFile,
		RunMode:  applyRunMode,
	}

	migrationPlan, err := planCmd.GeneratePlan(cmd.Context(), config)
	if err != nil {
		return err
	}

	if !migrationPlan.HasChanges() {
		fmt.Println("No changes to apply. Database schema is already up to date.")
		return nil
	}

	fmt.Println(migrationPlan.HumanColored(!applyNoColor))

	if applyDryRun {
		return nil
	}

	if !applyAutoApprove {
		fmt.Print("\nDo you want to apply these changes? (yes/no): ")
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read user input: %w", err)
		}

		response = strings.TrimSpace(strings.ToLower(response))
		if response != "yes" && response != "y" {
			fmt.Println("Apply cancelled.")
			return nil
		}
	}

	fmt.Println("\nApplying changes...")

	conn, err := util.Connect(&util.ConnectionConfig{
		Host:     applyHost,
		Port:     applyPort,
		Database: applyDB,
		User:     applyUser,
		Password: password,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	statements, err := migrationPlan.Statements(compile.Forward)
	if err != nil {
		return err
	}

	// DDL runs outside transactions; statements execute one at a time and
	// the first failure stops the run so the operator can inspect state.
	ctx := cmd.Context()
	log := logger.Get()
	for _, stmt := range statements {
		log.Debug("Executing statement", "sql", stmt)
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply statement %q: %w", stmt, err)
		}
	}

	fmt.Println("Changes applied successfully!")
	return nil
}
