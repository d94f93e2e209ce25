// Command vitae ingests folders of candidate documents. The ingest command
// dispatches a detached worker process; the remaining commands observe and
// steer running sessions through the shared session ledger.
package main
