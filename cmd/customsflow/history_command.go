package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"customsflow/internal/events"
	"customsflow/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [declaration-id]",
		Short: "Show journaled lifecycle transitions and audit completions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return fmt.Errorf("journal is disabled (set [journal] enabled = true)")
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []journal.Entry
			title := "Recent activity"
			if len(args) == 1 {
				id := strings.TrimSpace(args[0])
				entries, err = store.History(cmd.Context(), id)
				title = "History for " + id
			} else {
				entries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No journal entries")
				return nil
			}
			fmt.Fprintln(out, renderHistory(title, entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of recent entries to show")
	return cmd
}

func renderHistory(title string, entries []journal.Entry) string {
	headers := []string{"Seq", "Time", "Declaration", "Event", "Detail"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.Seq, 10),
			e.OccurredAt.Local().Format("2006-01-02 15:04:05"),
			shortID(e.DeclarationID),
			historyEvent(e),
			historyDetail(e),
		})
	}
	return renderTable(title, headers, rows, []columnAlignment{alignRight})
}

func historyEvent(e journal.Entry) string {
	if e.Kind == events.KindAuditCompleted {
		return "audit completed"
	}
	return "transition"
}

func historyDetail(e journal.Entry) string {
	if e.Kind == events.KindAuditCompleted {
		return "transaction " + e.TransactionID
	}
	return fmt.Sprintf("%s -> %s", e.From.Label(), e.To.Label())
}
