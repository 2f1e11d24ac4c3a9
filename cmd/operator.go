package cmd

import (
	"fmt"
	"os"
	"strings"

	"Gin_postgres_redis_tool_lending/db"
	"Gin_postgres_redis_tool_lending/models"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	opEmail string
	opName  string
	opRole  string
)

var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Manage operators",
}

var operatorCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an operator, prompting for the password",
	RunE: func(cmd *cobra.Command, _ []string) error {
		role := models.Role(opRole)
		if !role.Valid() {
			return db.ErrInvalidRole
		}
		password, err := readPassword(fmt.Sprintf("Password for %s: ", opEmail))
		if err != nil {
			return err
		}
		if len(password) < db.MinPasswordLen {
			return db.ErrWeakPassword
		}

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

		op, err := db.NewRepo(conn, newStatus(cfg), log).CreateOperator(cmd.Context(), db.CreateOperatorInput{
			Email:    opEmail,
			Name:     opName,
			Role:     role,
			Password: password,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s operator %s (%s)\n", op.Role, op.Email, op.ID)
		return nil
	},
}

func init() {
	operatorCreateCmd.Flags().StringVar(&opEmail, "email", "", "operator email")
	operatorCreateCmd.Flags().StringVar(&opName, "name", "", "display name")
	operatorCreateCmd.Flags().StringVar(&opRole, "role", string(models.RoleAdmin), "admin or superadmin")
	_ = operatorCreateCmd.MarkFlagRequired("email")
	operatorCmd.AddCommand(operatorCreateCmd)
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
			return "", errors.Wrap(err, "read password")
		}
		return strings.TrimSpace(line), nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "read password")
	}
	return strings.TrimSpace(string(b)), nil
}
