package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vitae/internal/config"
	"vitae/internal/ledger"
	"vitae/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs <session-id>",
		Short: "Show the worker log for a session",
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
				logPath := session.Metadata.LogFilePath
				if logPath == "" {
					return fmt.Errorf("session %s has no log file recorded", args[0])
				}

				out := cmd.OutOrStdout()
				result, err := logs.Tail(cmd.Context(), logPath, logs.TailOptions{Offset: -1, Limit: limit})
				if err != nil {
					return err
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
				if !follow {
					return nil
				}

				offset := result.Offset
				for {
					result, err := logs.Tail(cmd.Context(), logPath, logs.TailOptions{
						Offset: offset,
						Follow: true,
						Wait:   2 * time.Second,
					})
					if err != nil {
						if cmd.Context().Err() != nil {
							return nil
						}
						return err
					}
					for _, line := range result.Lines {
						fmt.Fprintln(out, line)
					}
					offset = result.Offset

					if len(result.Lines) > 0 {
						continue
					}
					// No new output; stop once the session has settled.
					session, err := store.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if session == nil || session.Status.IsTerminal() {
						return nil
					}
				}
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "lines", "n", 50, "Number of trailing lines for the initial read")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until the session finishes")
	return cmd
}
