package main

import (
	"fmt"
	"log/slog"

	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/db"
	"github.com/havenhq/haven/internal/logger"
	"github.com/havenhq/haven/internal/server"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger.Init(cfg.Log.Format, cfg.Log.Level)

		database, err := server.Open(cfg)
		if err != nil {
			return err
		}

		admins := db.ParseEmailList(cfg.Auth.PlatformAdmins)
		if err := db.PromotePlatformAdmins(database, admins); err != nil {
			return fmt.Errorf("failed to promote platform admins: %w", err)
		}

		sqlDB, err := database.DB()
		if err == nil {
			sqlDB.Close()
		}
		slog.Info("Migrations applied", "driver", cfg.Database.Driver)
		return nil
	},
}
