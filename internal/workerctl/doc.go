// Package workerctl launches detached worker processes and waits for their
// sessions to become visible in the ledger.
package workerctl
