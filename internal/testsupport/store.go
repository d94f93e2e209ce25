package testsupport

import (
	"testing"

	"vitae/internal/config"
	"vitae/internal/ledger"
	"vitae/internal/records"
)

// MustOpenLedger opens a ledger store against the test config and closes it
// when the test ends.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("open ledger store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close ledger store: %v", err)
		}
	})
	return store
}

// MustOpenRecords opens a records store against the test config and closes it
// when the test ends.
func MustOpenRecords(t testing.TB, cfg *config.Config) *records.Store {
	t.Helper()

	store, err := records.Open(cfg)
	if err != nil {
		t.Fatalf("open records store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close records store: %v", err)
		}
	})
	return store
}
