package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/focuswin/core/cmd/api/commands"
)

// @title FocusWin API
// @version 1.0
// @description Personal task tracking with importance, due dates, recurrence and groups

// @contact.name FocusWin
// @contact.url https://github.com/focuswin/core

// @license.name MIT

// @host localhost:5000
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:          "focuswin",
		Short:        "FocusWin API Server",
		Long:         `FocusWin keeps a personal list of tasks with importance, due dates, recurrence and groups, and emails due-date reminders.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
