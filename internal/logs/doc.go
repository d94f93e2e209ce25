// Package logs provides file tailing and offset helpers for worker session
// logs.
//
// Workers append plain text lines to a per-session log file; observers read
// the tail without coordinating with the worker. The package streams files
// with bounded memory usage, supports negative offsets for "tail last N
// lines" operations, and powers follow-mode updates for `vitae logs -f`.
// Callers supply context deadlines so polling shuts down cleanly when the
// CLI exits.
package logs
