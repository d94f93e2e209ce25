package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vitae/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, external binaries, and the LLM endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)

			rows := make([][]string, 0, len(results))
			failed := 0
			for _, result := range results {
				state := "ok"
				if !result.Passed {
					state = "FAIL"
					failed++
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if failed > 0 {
				return errors.New(pluralCheckFailure(failed))
			}
			fmt.Fprintln(out, "All checks passed.")
			return nil
		},
	}
}

func pluralCheckFailure(count int) string {
	if count == 1 {
		return "1 check failed"
	}
	return fmt.Sprintf("%d checks failed", count)
}
