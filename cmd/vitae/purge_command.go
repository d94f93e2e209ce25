package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vitae/internal/config"
	"vitae/internal/records"
)

func newPurgeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge <candidate-key>",
		Short: "Delete every stored record for one candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRecords(func(_ *config.Config, store *records.Store) error {
				counts, err := store.DeleteCandidate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if counts.Total() == 0 {
					fmt.Fprintf(out, "No records found for %s.\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Removed %d record(s) for %s (%d profile field(s), %d skill(s)).\n",
					counts.Total(), args[0], counts.Profiles, counts.Skills)
				return nil
			})
		},
	}
	return cmd
}
