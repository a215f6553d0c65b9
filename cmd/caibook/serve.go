package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/caibook/caibook/internal/flows"
	"github.com/caibook/caibook/internal/logger"
	"github.com/caibook/caibook/internal/mcpserver"
)

var serveFlags struct {
	port int
}

var serveCmd = &cobra.Command{
	Use:   "serve <flow>",
	Short: "Expose a form wizard to agents over MCP",
	Long: `Expose a form wizard as MCP tools over streamable HTTP.

An agent can read the form state, update fields, move between steps and
submit, with the same validation the terminal wizard applies. After a
successful submission the agent can call reset to start a new session.

Flows: ` + fmt.Sprint(flows.Names()),
	Args:      cobra.ExactArgs(1),
	ValidArgs: flows.Names(),
	RunE:      runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&serveFlags.port, "port", "p", -1, "Port to listen on, 0 for random (default: mcp_port from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flow, err := flows.ByName(args[0], cfg.EmailSuffix())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
	}()

	srv, err := mcpserver.New(flow, rt.submitFor)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	port := cfg.MCPPort
	if serveFlags.port >= 0 {
		port = serveFlags.port
	}
	if _, err := srv.Start(ctx, port); err != nil {
		return fmt.Errorf("failed to start MCP server: %w", err)
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			logger.Warn("MCP server shutdown: %v", err)
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at %s\n", flow.Title, srv.URL())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop.")

	<-ctx.Done()
	fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down gracefully...")
	return nil
}
