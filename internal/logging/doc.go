// Package logging assembles structured slog loggers and formatting helpers used
// across lectern.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code automatically
// tags log lines with session IDs, stages, and correlation IDs. The "auto"
// format picks the console handler on a terminal and JSON otherwise.
package logging
