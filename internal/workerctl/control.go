package workerctl

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"vitae/internal/ledger"
)

// LaunchOptions controls worker process launch behavior.
type LaunchOptions struct {
	SessionID  string
	SourceDir  string
	MaxWorkers int
	ConfigPath string
}

// Launch starts a detached worker process for one session and returns without
// waiting for it. The ledger is the only way to observe the run afterwards.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}
	if strings.TrimSpace(opts.SourceDir) == "" {
		return fmt.Errorf("launch worker: source directory is required")
	}

	args := []string{"worker", "--source", opts.SourceDir}
	if session := strings.TrimSpace(opts.SessionID); session != "" {
		args = append(args, "--session", session)
	}
	if opts.MaxWorkers > 0 {
		args = append(args, "--workers", strconv.Itoa(opts.MaxWorkers))
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch worker: %w", err)
	}
	return proc.Process.Release()
}

// WaitForSession polls the ledger until the worker's session row exists.
// Submission is considered complete once the row is visible.
func WaitForSession(ctx context.Context, store *ledger.Store, sessionID string, timeout time.Duration) (*ledger.Session, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		session, err := store.Get(ctx, sessionID)
		if err == nil && session != nil {
			return session, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("worker failed to register session %s: %w", sessionID, lastErr)
	}
	return nil, fmt.Errorf("timeout waiting for session %s to appear", sessionID)
}
