package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/caibook/caibook/internal/flows"
	"github.com/caibook/caibook/internal/form"
	"github.com/caibook/caibook/internal/tui/wizard"
)

var flowFlags struct {
	headless bool
	set      []string
}

var registerCmd = newFlowCmd(flows.Register, "register", "Create a student account")
var groupCmd = newFlowCmd(flows.Group, "group", "Register a student group")
var loginCmd = newFlowCmd(flows.Login, "login", "Log in with your institutional email")

func newFlowCmd(flow, use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Opens the form wizard in the terminal. Values typed into a field are checked
immediately; a step can only be left forward once all of its fields are valid.

With --headless no UI is shown: fields are filled from --set key=value pairs,
every step is validated in order and the form is submitted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, flow)
		},
	}
	cmd.Flags().BoolVar(&flowFlags.headless, "headless", false, "Fill and submit the form without the TUI")
	cmd.Flags().StringArrayVar(&flowFlags.set, "set", nil, "Field value as key=value (repeatable, used with --headless)")
	return cmd
}

func runFlow(cmd *cobra.Command, name string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flow, err := flows.ByName(name, cfg.EmailSuffix())
	if err != nil {
		return err
	}

	values, err := parseSets(flowFlags.set)
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

	w, err := flow.New()
	if err != nil {
		return err
	}
	submit := rt.submitFor(flow, w.SessionID())

	if flowFlags.headless || cfg.Headless {
		return runHeadless(ctx, cmd.OutOrStdout(), flow, w, submit, values)
	}

	res, err := wizard.Run(ctx, flow, w, submit)
	if err != nil {
		return err
	}
	switch {
	case res.Cancelled:
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
	case res.Status == form.StatusSucceeded:
		fmt.Fprintf(cmd.OutOrStdout(), "%s complete (session %s)\n", flow.SubmitLabel, res.Session)
	}
	return nil
}

// parseSets turns repeated key=value flags into a map. The value may itself
// contain '='.
func parseSets(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (want key=value)", p)
		}
		values[key] = value
	}
	return values, nil
}

// runHeadless fills w from values, walks every step and submits. Validation
// failures are written to out and returned as an error.
func runHeadless(ctx context.Context, out io.Writer, flow flows.Flow, w *form.Wizard, submit form.SubmitFunc, values map[string]string) error {
	var unknown []string
	for key := range values {
		if _, err := w.Field(key); err != nil {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown field(s) for %s: %s", flow.Name, strings.Join(unknown, ", "))
	}

	// Declaration order, so cross-field checks see their source first.
	for _, f := range w.Fields() {
		if v, ok := values[f.Key]; ok {
			if _, err := w.UpdateField(f.Key, v); err != nil {
				return err
			}
		}
	}

	for w.CurrentStep() < w.TotalSteps() {
		res, err := w.Advance()
		if err != nil {
			return err
		}
		if !res.Valid {
			step, _ := w.Step(res.Index)
			printErrors(out, w, res.Failed, res.Errors)
			return fmt.Errorf("step %d (%s) is not valid", res.Index, step.Title)
		}
	}

	ch, err := w.Submit(ctx, submit)
	if err != nil {
		var premature *form.PrematureSubmissionError
		if errors.As(err, &premature) {
			printErrors(out, w, premature.Failed, premature.Errors)
		}
		return err
	}

	outcome := <-ch
	if outcome.Err != nil {
		return fmt.Errorf("submission failed: %w", outcome.Err)
	}
	fmt.Fprintf(out, "✓ %s complete (session %s)\n", flow.SubmitLabel, w.SessionID())
	return nil
}

func printErrors(out io.Writer, w *form.Wizard, failed []string, errs map[string]string) {
	for _, key := range failed {
		label := key
		if f, err := w.Field(key); err == nil {
			label = f.Label
		}
		fmt.Fprintf(out, "  ✗ %s: %s\n", label, errs[key])
	}
}
