package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vitae/internal/ledger"
)

func formatTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04:05")
}

// requireSession fails with a clear message when the session does not exist.
func requireSession(cmd *cobra.Command, store *ledger.Store, sessionID string) error {
	session, err := store.Get(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}
