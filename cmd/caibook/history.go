package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/caibook/caibook/internal/flows"
	"github.com/caibook/caibook/internal/submission"
)

var historyFlags struct {
	fields bool
}

var historyCmd = &cobra.Command{
	Use:   "history [flow]",
	Short: "List stored submissions",
	Long: `List the registration and group submissions stored in the local outbox,
oldest first. Pass a flow name to only show that flow.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{flows.Register, flows.Group},
	RunE:      runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyFlags.fields, "fields", false, "Print the stored fields of each submission")
}

func runHistory(cmd *cobra.Command, args []string) error {
	var flow string
	if len(args) == 1 {
		flow = args[0]
		if flow != flows.Register && flow != flows.Group {
			return fmt.Errorf("no history is kept for %q (want %s or %s)", flow, flows.Register, flows.Group)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := openRuntime(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	records, err := rt.store.History(ctx, flow)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No submissions")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintln(out, formatRecord(rec, historyFlags.fields))
	}
	return nil
}

func formatRecord(rec submission.Record, withFields bool) string {
	line := fmt.Sprintf("[%s] %s %s %s", rec.ID, rec.Timestamp.Local().Format(time.DateTime), rec.Flow, rec.Session)
	if !withFields {
		return line
	}

	keys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{line}
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("    %s: %s", k, rec.Fields[k]))
	}
	return strings.Join(lines, "\n")
}
