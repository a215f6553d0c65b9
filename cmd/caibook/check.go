package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caibook/caibook/internal/config"
	"github.com/caibook/caibook/internal/flows"
	"github.com/caibook/caibook/internal/hooks"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration and hooks",
	Long: `Load the configuration and the hooks file and report what caibook will use.
Every flow is built once so a bad email domain is caught before a wizard opens.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if config.Exists() {
		fmt.Fprintf(out, "✓ Config: %s, %s\n", config.GlobalPath(), config.ProjectPath())
	} else {
		fmt.Fprintln(out, "• No config file, using defaults (run 'caibook setup')")
	}
	fmt.Fprintf(out, "  data_dir:       %s\n", cfg.DataDir)
	fmt.Fprintf(out, "  email_domain:   %s\n", cfg.EmailDomain)
	fmt.Fprintf(out, "  submit_timeout: %s\n", cfg.SubmitTimeout)
	fmt.Fprintf(out, "  mcp_port:       %d\n", cfg.MCPPort)

	for _, name := range flows.Names() {
		flow, err := flows.ByName(name, cfg.EmailSuffix())
		if err != nil {
			return err
		}
		w, err := flow.New()
		if err != nil {
			return fmt.Errorf("flow %s: %w", name, err)
		}
		fmt.Fprintf(out, "✓ Flow %s: %d step(s), %d field(s)\n", name, w.TotalSteps(), len(w.Fields()))
	}

	hooksCfg, err := hooks.LoadConfig(".")
	if err != nil {
		return err
	}
	if hooksCfg == nil {
		fmt.Fprintf(out, "• No hooks (%s not found)\n", hooks.ConfigFileName)
		return nil
	}
	fmt.Fprintf(out, "✓ Hooks: %d on_success, %d on_failure\n", len(hooksCfg.Hooks.OnSuccess), len(hooksCfg.Hooks.OnFailure))
	return nil
}
