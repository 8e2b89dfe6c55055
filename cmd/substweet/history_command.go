package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"substweet/internal/history"
	"substweet/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded publish attempts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.HistoryDB == "" {
				return services.Wrap(services.ErrConfiguration, "history", "open", "paths.history_db is not set", nil)
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			attempts, err := store.List(cmd.Context(), history.Filter{RunID: runID, Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(attempts) == 0 {
				fmt.Fprintln(out, "No publish attempts recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistory(attempts))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only show attempts from this run id")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum rows to show (0 for all)")
	return cmd
}

func renderHistory(attempts []history.Attempt) string {
	columns := []column{
		{header: "When"},
		{header: "Run"},
		{header: "Caption", align: alignRight},
		{header: "Window"},
		{header: "Status"},
		{header: "Result", width: 60},
	}
	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		result := a.PostURL
		if a.Status == history.StatusFailed {
			result = a.Error
		}
		when := ""
		if !a.AttemptedAt.IsZero() {
			when = a.AttemptedAt.Local().Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{
			when,
			shortRunID(a.RunID),
			strconv.Itoa(a.CaptionID),
			a.Start + " - " + a.End,
			string(a.Status),
			result,
		})
	}
	return renderTable(columns, rows)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
