package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/caibook/caibook/internal/logger"
	"github.com/caibook/caibook/internal/tui/theme"
)

const (
	logoText1 = "█▀▀ ▄▀█ █ █▄▄ █▀█ █▀█ █▄▀"
	logoText2 = "█▄▄ █▀█ █ █▄█ █▄█ █▄█ █ █"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootFlags struct {
	dataDir  string
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:   "caibook",
	Short: "Sign up, log in and register student groups from the terminal",
}

func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

caibook is the terminal front end of the CAIBook university booking platform.
Each form (registration, group creation, login) is a multi-step wizard that
validates as you type. Completed forms are stored in an embedded NATS
JetStream outbox, and the same wizards can be driven by an agent over MCP.`

	rootCmd.PersistentFlags().StringVar(&rootFlags.dataDir, "data-dir", "", "Data directory for NATS storage (default: from config)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: from config)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(checkCmd)
}
