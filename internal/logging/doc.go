// Package logging assembles structured slog loggers and formatting helpers used
// across the livingroom pipeline.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can tag log lines
// with case IDs, stages, and run correlation IDs. Logs go to stderr (and the
// optional log file) because stdout carries the merged table.
package logging
