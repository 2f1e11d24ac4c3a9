package cmd

import (
	"Gin_postgres_redis_tool_lending/app"
	"Gin_postgres_redis_tool_lending/routes"

	"github.com/spf13/cobra"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig(app.WithPort(servePort))
		if err != nil {
			return err
		}
		a, err := app.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := app.BootstrapSuperAdmin(cmd.Context(), cfg, a.Repo, log); err != nil {
			return err
		}
		routes.RegisterRoutes(a)
		return a.Run()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "override HTTP_PORT")
}
