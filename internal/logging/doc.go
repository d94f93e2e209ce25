// Package logging assembles structured slog loggers and attribute helpers used
// across vitae components.
//
// It owns the configurable console/JSON handlers and centralizes level and
// output plumbing so the CLI and the worker process emit log lines with the
// same shape. A no-op logger is provided for tests and wiring code that cannot
// fail.
package logging
