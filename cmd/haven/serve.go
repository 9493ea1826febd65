package main

import (
	"github.com/havenhq/haven/internal/metrics"
	"github.com/havenhq/haven/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort int
	serveMode string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Haven server",
	Long: `Start the Haven API server and/or the background email worker.

Examples:
  haven serve                    # Run both API server and worker
  haven serve --mode server      # Run API server only
  haven serve --mode worker      # Run worker only (requires a valkey queue)
  haven serve --port 8080        # Override port

Environment variables:
  HAVEN_SERVER_PORT                Server port (default: 8470)
  HAVEN_SERVER_MODE                development or production
  HAVEN_DATABASE_DRIVER            Database driver: sqlite, postgres
  HAVEN_DATABASE_DSN               Database connection string
  HAVEN_AUTH_JWT_SECRET            Identity provider JWT secret
  HAVEN_AUTH_PLATFORM_ADMINS       Comma-separated platform admin emails
  HAVEN_BILLING_STRIPE_SECRET_KEY  Stripe API key
  HAVEN_BILLING_WEBHOOK_SECRET     Stripe webhook signing secret
  HAVEN_QUEUE_TYPE                 Queue type: memory, valkey`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
	serveCmd.Flags().StringVarP(&serveMode, "mode", "m", "both", "Run mode: server, worker, or both")
}

func runServe(cmd *cobra.Command, args []string) error {
	metrics.Init(Version, Commit)

	return server.RunWithSignalHandling(server.Config{
		Port:    servePort,
		Mode:    serveMode,
		Version: Version,
	})
}
