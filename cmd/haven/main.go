package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/havenhq/haven/docs" // Load swagger docs
)

// Version and Commit are set via ldflags at build time
var (
	Version = "dev"
	Commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "haven",
	Short: "Haven - case management for supported housing providers",
	Long:  `Haven serves the multi-tenant API for residents, properties, incidents and billing.`,
	Example: `  # Run the API server and the email worker
  haven serve

  # Apply database migrations and exit
  haven migrate

  # Show what a coordinator may do
  haven permissions --role coordinator`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(permissionsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
