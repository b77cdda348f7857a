package util

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntWithDefault returns the value of an environment variable as int or a default value if not set
func GetEnvIntWithDefault(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// PreRunEWithEnvVars creates a PreRunE function that fills connection flags
// from SR* environment variables when the flags weren't explicitly set, then
// validates the required ones
func PreRunEWithEnvVars(dbPtr, userPtr, hostPtr, passwordPtr *string, portPtr *int) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if GetEnvWithDefault("SRDATABASE", "") != "" && !cmd.Flags().Changed("db") {
			*dbPtr = GetEnvWithDefault("SRDATABASE", "")
		}
		if GetEnvWithDefault("SRUSER", "") != "" && !cmd.Flags().Changed("user") {
			*userPtr = GetEnvWithDefault("SRUSER", "")
		}
		if GetEnvWithDefault("SRHOST", "") != "" && !cmd.Flags().Changed("host") {
			*hostPtr = GetEnvWithDefault("SRHOST", "")
		}
		if GetEnvIntWithDefault("SRPORT", 0) != 0 && !cmd.Flags().Changed("port") {
			*portPtr = GetEnvIntWithDefault("SRPORT", 0)
		}
		if GetEnvWithDefault("SRPASSWORD", "") != "" && !cmd.Flags().Changed("password") {
			*passwordPtr = GetEnvWithDefault("SRPASSWORD", "")
		}

		if *dbPtr == "" {
			return fmt.Errorf("database name is required (use --db flag or SRDATABASE environment variable)")
		}
		if *userPtr == "" {
			return fmt.Errorf("database user is required (use --user flag or SRUSER environment variable)")
		}

		return nil
	}
}
