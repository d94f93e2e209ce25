package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vitae/internal/config"
	"vitae/internal/ledger"
	"vitae/internal/workerctl"
	"vitae/internal/workerrun"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var workers int
	var sessionID string
	var foreground bool
	var waitTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "ingest <source-dir>",
		Short: "Ingest a folder of candidate subfolders",
		Long: `Ingest dispatches a batch run over every candidate subfolder of the given
directory. By default the run happens in a detached worker process and the
command returns as soon as the session is visible in the ledger; progress is
then available through "vitae status".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sourceDir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve source directory: %w", err)
			}
			if info, statErr := os.Stat(sourceDir); statErr != nil {
				return fmt.Errorf("source directory: %w", statErr)
			} else if !info.IsDir() {
				return fmt.Errorf("source %s is not a directory", sourceDir)
			}

			if foreground {
				return workerrun.Run(cmd.Context(), cfg, workerrun.Options{
					SessionID:  sessionID,
					SourceDir:  sourceDir,
					MaxWorkers: workers,
				})
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			executable, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			if err := workerctl.Launch(executable, workerctl.LaunchOptions{
				SessionID:  sessionID,
				SourceDir:  sourceDir,
				MaxWorkers: workers,
				ConfigPath: ctx.configPath(),
			}); err != nil {
				return err
			}

			store, err := ledger.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			session, err := workerctl.WaitForSession(cmd.Context(), store, sessionID, waitTimeout)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ingestion dispatched: session %s (%d candidate(s))\n",
				session.SessionID, session.TotalItems)
			fmt.Fprintf(out, "Track progress with: vitae status %s\n", session.SessionID)
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker pool size (defaults to the configured value)")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session identifier (defaults to a new UUID)")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run the batch in this process instead of a detached worker")
	cmd.Flags().DurationVar(&waitTimeout, "wait", 15*time.Second, "How long to wait for the worker to register the session")
	return cmd
}
