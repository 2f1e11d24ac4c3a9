package cmd

import (
	"os"
	"path/filepath"

	"Gin_postgres_redis_tool_lending/app"
	"Gin_postgres_redis_tool_lending/db"
	"Gin_postgres_redis_tool_lending/models"
	"Gin_postgres_redis_tool_lending/report"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reportDays int
	reportDir  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the loan report as a text file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		conn, err := db.Connect(cmd.Context(), cfg.DB, log)
		if err != nil {
			return err
		}
		if sqlDB, err := conn.DB(); err == nil {
			defer sqlDB.Close()
		}

		repo := db.NewRepo(conn, newStatus(cfg), log)
		rep, err := repo.BuildReport(cmd.Context(), reportDays)
		if err != nil {
			return err
		}
		path := filepath.Join(reportDir, report.Filename(rep.GeneratedAt))
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "create report file")
		}
		defer f.Close()
		if err := report.Render(f, rep); err != nil {
			return err
		}
		log.Info("report written", zap.String("path", path), zap.Int64("loans", rep.Total))
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportDays, "days", db.DefaultReportDays, "window in days")
	reportCmd.Flags().StringVarP(&reportDir, "out", "o", ".", "output directory")
}

func newStatus(cfg app.Config) models.StatusResolver {
	return models.NewStatusResolver(cfg.LoanGraceDays)
}
