package main

import (
	"github.com/spf13/cobra"

	"vitae/internal/workerrun"
)

// newWorkerCommand is the hidden entry point the ingest command launches in a
// detached process.
func newWorkerCommand(ctx *commandContext) *cobra.Command {
	var sourceDir string
	var sessionID string
	var workers int
	var logLevel string

	cmd := &cobra.Command{
		Use:    "worker",
		Short:  "Run one ingestion batch (internal)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return workerrun.Run(cmd.Context(), cfg, workerrun.Options{
				SessionID:  sessionID,
				SourceDir:  sourceDir,
				MaxWorkers: workers,
				LogLevel:   logLevel,
			})
		},
	}

	cmd.Flags().StringVar(&sourceDir, "source", "", "Root folder of candidate subfolders")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session identifier")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level override")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}
