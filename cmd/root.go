package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/srschema/srschema/cmd/apply"
	"github.com/srschema/srschema/cmd/dump"
	"github.com/srschema/srschema/cmd/plan"
	"github.com/srschema/srschema/internal/logger"
	"github.com/srschema/srschema/internal/version"
)

var Debug bool

var RootCmd = &cobra.Command{
	Use:   "srschema",
	Short: "StarRocks schema dump and migration tool",
	Long: fmt.Sprintf(`srschema is a CLI tool to dump and diff StarRocks schemas.

Version: %s@%s %s %s

Commands:
  dump    Dump a database schema
  plan    Generate migration plan
  apply   Apply schema migrations

Use "srschema [command] --help" for more information about a command.`,
		version.Version(), version.GetGitCommit(), version.Platform(), version.GetBuildDate()),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(Debug)
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.AddCommand(dump.DumpCmd)
	RootCmd.AddCommand(plan.PlanCmd)
	RootCmd.AddCommand(apply.ApplyCmd)
	RootCmd.AddCommand(versionCmd)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
