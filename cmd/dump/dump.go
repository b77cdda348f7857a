package dump

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/srschema/srschema/cmd/util"
	"github.com/srschema/srschema/internal/compile"
	"github.com/srschema/srschema/internal/descriptor"
	"github.com/srschema/srschema/internal/inspect"
	"github.com/srschema/srschema/internal/model"
	"github.com/srschema/srschema/internal/op"
)

var (
	dumpHost     string
	dumpPort     int
	dumpDB       string
	dumpUser     string
	dumpPassword string
	dumpSchema   string
	dumpFormat   string
	dumpFile     string
)

var DumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Dump a database schema as desired-state YAML or DDL",
	Long:         "Reflect the current state of a database schema and write it out as a desired-state YAML file (the default) or as CREATE statements (--format sql).",
	RunE:         runDump,
	SilenceUsage: true,
	PreRunE:      util.PreRunEWithEnvVars(&dumpDB, &dumpUser, &dumpHost, &dumpPassword, &dumpPort),
}

func init() {
	DumpCmd.Flags().StringVar(&dumpHost, "host", "localhost", "Database server host (env: SRHOST)")
	DumpCmd.Flags().IntVar(&dumpPort, "port", 9030, "Database server query port (env: SRPORT)")
	DumpCmd.Flags().StringVar(&dumpDB, "db", "", "Database name (required) (env: SRDATABASE)")
	DumpCmd.Flags().StringVar(&dumpUser, "user", "", "Database user name (required) (env: SRUSER)")
	DumpCmd.Flags().StringVar(&dumpPassword, "password", "", "Database password (optional, can also use SRPASSWORD env var)")
	DumpCmd.Flags().StringVar(&dumpSchema, "schema", "", "Schema name (defaults to the database name)")
	DumpCmd.Flags().StringVar(&dumpFormat, "format", "yaml", "Output format: yaml or sql")
	DumpCmd.Flags().StringVar(&dumpFile, "file", "", "Write output to a file instead of stdout")
}

func runDump(cmd *cobra.Command, args []string) error {
	password := dumpPassword
	if password == "" {
		password = os.Getenv("SRPASSWORD")
	}
	schema := dumpSchema
	if schema == "" {
		schema = dumpDB
	}

	conn, err := util.Connect(&util.ConnectionConfig{
		Host:     dumpHost,
		Port:     dumpPort,
		Database: dumpDB,
		User:     dumpUser,
		Password: password,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	catalog, err := inspect.NewInspector(conn).InspectSchema(cmd.Context(), schema)
	if err != nil {
		return err
	}

	var content []byte
	switch dumpFormat {
	case "yaml":
		content, err = model.Dump(catalog)
		if err != nil {
			return err
		}
	case "sql":
		script, err := ddlScript(catalog)
		if err != nil {
			return err
		}
		content = []byte(script)
	default:
		return fmt.Errorf("unknown output format: %s", dumpFormat)
	}

	if dumpFile == "" {
		fmt.Print(string(content))
		return nil
	}
	if err := os.WriteFile(dumpFile, content, 0644); err != nil {
		return fmt.Errorf("failed to write output to %s: %w", dumpFile, err)
	}
	return nil
}

// ddlScript renders every object in the catalog as a CREATE statement,
// tables first, then views, then materialized views, each group in name
// order
func ddlScript(catalog *descriptor.Catalog) (string, error) {
	var ops []op.Operation
	for _, name := range catalog.TableNames() {
		ops = append(ops, &op.CreateTable{Table: catalog.Tables[name]})
	}
	for _, name := range catalog.ViewNames() {
		ops = append(ops, &op.CreateView{View: catalog.Views[name]})
	}
	for _, name := range catalog.MaterializedViewNames() {
		ops = append(ops, &op.CreateMaterializedView{MaterializedView: catalog.MaterializedViews[name]})
	}

	stmts, err := compile.Plan(ops, compile.Forward)
	if err != nil {
		return "", err
	}
	if len(stmts) == 0 {
		return "", nil
	}
	return strings.Join(stmts, ";\n\n") + ";\n", nil
}
