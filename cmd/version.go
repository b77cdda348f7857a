package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srschema/srschema/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("srschema version %s\n", version.Version())
		fmt.Printf("Git commit: %s\n", version.GetGitCommit())
		fmt.Printf("Build date: %s\n", version.GetBuildDate())
		fmt.Printf("Platform: %s\n", version.Platform())
	},
}
