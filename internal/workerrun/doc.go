// Package workerrun hosts the worker process runtime: it locks the session,
// opens the durable stores, wires the extraction pipeline, and drives one
// batch run under the supervisor. The session ledger is its only channel back
// to the process that launched it.
package workerrun
