// Package logging assembles structured slog loggers and formatting helpers used
// across substweet.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// mirrors every record into a JSON log file, and exposes context-aware helpers
// so pipeline code can tag log lines with run and caption IDs. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
