// Package ingest orchestrates one batch-ingestion run: a bounded worker pool
// processes candidate folders concurrently, per-candidate failures stay
// isolated, fine-grained progress is persisted to the session ledger, and a
// cooperative stop signal polled from the ledger abandons unstarted work
// while in-flight candidates run to completion.
package ingest
