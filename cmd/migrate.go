package cmd

import (
	"Gin_postgres_redis_tool_lending/app"
	"Gin_postgres_redis_tool_lending/db"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and ensure the fallback super-operator",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		conn, err := db.Connect(cmd.Context(), cfg.DB, log)
		if err != nil {
			return err
		}
		if sqlDB, err := conn.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := db.Migrate(conn); err != nil {
			return err
		}
		repo := db.NewRepo(conn, newStatus(cfg), log)
		if err := app.BootstrapSuperAdmin(cmd.Context(), cfg, repo, log); err != nil {
			return err
		}
		log.Info("migration finished", zap.String("database", cfg.DB.Name))
		return nil
	},
}
