package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vitae/internal/config"
	"vitae/internal/ledger"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List ingestion sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(_ *config.Config, store *ledger.Store) error {
				var sessions []*ledger.Session
				var err error
				if all {
					sessions, err = store.List(cmd.Context(), ledger.AllStatuses()...)
				} else {
					sessions, err = store.ListActive(cmd.Context())
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					if all {
						fmt.Fprintln(out, "No sessions recorded.")
					} else {
						fmt.Fprintln(out, "No active sessions.")
					}
					return nil
				}

				rows := make([][]string, 0, len(sessions))
				for _, session := range sessions {
					rows = append(rows, []string{
						session.SessionID,
						string(session.Status),
						fmt.Sprintf("%d/%d", session.ProcessedItems, session.TotalItems),
						fmt.Sprintf("%.0f%%", session.Fraction()*100),
						formatTime(session.UpdatedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Session", "Status", "Progress", "%", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include terminal sessions")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showLogs bool

	cmd := &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show progress for one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(_ *config.Config, store *ledger.Store) error {
				session, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if session == nil {
					return fmt.Errorf("session %s not found", args[0])
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session:   %s\n", session.SessionID)
				fmt.Fprintf(out, "Status:    %s\n", session.Status)
				fmt.Fprintf(out, "Progress:  %d/%d (%.0f%%)\n",
					session.ProcessedItems, session.TotalItems, session.Fraction()*100)
				if session.CurrentItem != "" {
					fmt.Fprintf(out, "Current:   %s\n", session.CurrentItem)
				}
				fmt.Fprintf(out, "Started:   %s\n", formatTime(session.StartedAt))
				fmt.Fprintf(out, "Updated:   %s\n", formatTime(session.UpdatedAt))
				if session.Metadata.SourceDir != "" {
					fmt.Fprintf(out, "Source:    %s\n", session.Metadata.SourceDir)
				}
				if session.Metadata.LogFilePath != "" {
					fmt.Fprintf(out, "Log file:  %s\n", session.Metadata.LogFilePath)
				}
				if len(session.Errors) > 0 {
					fmt.Fprintf(out, "Errors (%d):\n", len(session.Errors))
					for _, line := range session.Errors {
						fmt.Fprintf(out, "  - %s\n", line)
					}
				}
				if showLogs {
					if len(session.Metadata.SummaryLogs) == 0 {
						fmt.Fprintln(out, "No summary recorded yet.")
					} else {
						fmt.Fprintln(out, "Summary:")
						for _, line := range session.Metadata.SummaryLogs {
							fmt.Fprintf(out, "  %s\n", line)
						}
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showLogs, "logs", false, "Include the session summary lines")
	return cmd
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	var archive bool

	cmd := &cobra.Command{
		Use:   "cancel <session-id>",
		Short: "Request a graceful stop for a running session",
		Long: `Cancel marks the session so the worker stops dispatching new candidates.
Candidates already in flight finish first; the worker observes the new status
between dispatches, so stopping can take as long as the slowest running
candidate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(_ *config.Config, store *ledger.Store) error {
				if err := requireSession(cmd, store, args[0]); err != nil {
					return err
				}
				status := ledger.StatusAbandoned
				if archive {
					status = ledger.StatusArchived
				}
				applied, err := store.Cancel(cmd.Context(), args[0], status)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !applied {
					fmt.Fprintf(out, "Session %s is not running; nothing to cancel.\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Session %s marked %s; in-flight candidates will finish.\n", args[0], status)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&archive, "archive", false, "Mark the session ARCHIVED instead of ABANDONED")
	return cmd
}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <session-id>",
		Short: "Force-archive a session",
		Long: `Archive moves a session to ARCHIVED regardless of its current status. Use it
to recover a session left permanently RUNNING by a worker that crashed before
finalizing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(_ *config.Config, store *ledger.Store) error {
				if err := requireSession(cmd, store, args[0]); err != nil {
					return err
				}
				applied, err := store.Archive(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !applied {
					fmt.Fprintf(out, "Session %s is already archived.\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Session %s archived.\n", args[0])
				return nil
			})
		},
	}
	return cmd
}
