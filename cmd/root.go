// Package cmd holds the command line: the HTTP server plus a few admin
// commands that talk to the same database.
package cmd

import (
	"fmt"
	"os"

	"Gin_postgres_redis_tool_lending/app"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "toollend",
	Short:         "Tool lending admin backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.AddCommand(serveCmd, migrateCmd, reportCmd, operatorCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(opts ...app.Option) (app.Config, *zap.Logger, error) {
	cfg, err := app.LoadConfig(append([]app.Option{app.WithLogLevel(logLevel)}, opts...)...)
	if err != nil {
		return app.Config{}, nil, err
	}
	return cfg, app.NewLogger(cfg.Log, "toollend"), nil
}
