package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sqxedit/internal/history"
)

type historyView struct {
	ID          int64  `json:"id"`
	Session     string `json:"session_id"`
	Action      string `json:"action"`
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
	Rows        int    `json:"rows"`
	Changed     bool   `json:"changed"`
	Digest      string `json:"digest,omitempty"`
	Outcome     string `json:"outcome"`
	Message     string `json:"message,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent saves from the edit journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(c context.Context, rt *runtime) error {
				if rt.history == nil {
					return errors.New("edit history is disabled (set history.enabled = true)")
				}
				entries, err := rt.history.List(c, limit)
				if err != nil {
					return fmt.Errorf("list history: %w", err)
				}
				views := make([]historyView, 0, len(entries))
				for _, e := range entries {
					views = append(views, toHistoryView(e))
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), views)
				}
				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintln(out, "No edits recorded")
					return nil
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					target := v.Destination
					if target == "" {
						target = v.Source
					}
					rows = append(rows, []string{
						strconv.FormatInt(v.ID, 10),
						v.CreatedAt,
						v.Action,
						target,
						strconv.Itoa(v.Rows),
						yesNo(v.Changed),
						v.Outcome,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "When", "Action", "Archive", "Rows", "Changed", "Outcome"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func toHistoryView(e history.Entry) historyView {
	return historyView{
		ID:          e.ID,
		Session:     e.SessionID,
		Action:      e.Action,
		Source:      e.Source,
		Destination: e.Destination,
		Rows:        e.Rows,
		Changed:     e.Changed,
		Digest:      e.Digest,
		Outcome:     e.Outcome,
		Message:     e.Message,
		CreatedAt:   e.CreatedAt.Local().Format(time.DateTime),
	}
}
