// Package records stores extracted candidate data in SQLite. Profile fields
// and skills live in separate tables keyed by candidate so that either
// extraction phase can be replayed independently and a cancelled ingest can
// purge a partially written candidate.
package records
