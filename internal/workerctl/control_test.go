package workerctl_test

import (
	"context"
	"testing"
	"time"

	"vitae/internal/ledger"
	"vitae/internal/testsupport"
	"vitae/internal/workerctl"
)

func TestLaunchRequiresExecutable(t *testing.T) {
	err := workerctl.Launch("", workerctl.LaunchOptions{SourceDir: "/tmp/batch"})
	if err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

func TestLaunchRequiresSourceDir(t *testing.T) {
	err := workerctl.Launch("/usr/local/bin/vitae", workerctl.LaunchOptions{})
	if err == nil {
		t.Fatal("expected error for missing source directory")
	}
}

func TestWaitForSessionReturnsExistingRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	if _, err := store.Create(ctx, "sess-1", 3, ledger.Metadata{}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	session, err := workerctl.WaitForSession(ctx, store, "sess-1", time.Second)
	if err != nil {
		t.Fatalf("WaitForSession returned error: %v", err)
	}
	if session.SessionID != "sess-1" || session.Status != ledger.StatusRunning {
		t.Errorf("unexpected session %+v", session)
	}
}

func TestWaitForSessionTimesOut(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	if _, err := workerctl.WaitForSession(context.Background(), store, "missing", 300*time.Millisecond); err == nil {
		t.Fatal("expected timeout waiting for a session that never appears")
	}
}
