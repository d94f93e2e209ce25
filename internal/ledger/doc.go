// Package ledger persists batch-ingestion sessions in SQLite.
//
// The Store is the sole channel between the worker process and any external
// observer: workers write absolute progress counts and append errors, the CLI
// polls for snapshots, and cancellation is requested by flipping a session's
// status to one of the cancellation terminals. All mutation is expressed as
// single-record, single-statement updates so concurrent writers never need a
// read-modify-write transaction.
//
// Sessions are never deleted here; purging old rows is an operational concern
// outside this subsystem. Schema changes bump schemaVersion in schema.go.
package ledger
