// Package praat wraps the Praat phonetics engine used for audio splitting,
// acoustic measurement, and TextGrid queries.
//
// Every invocation runs `praat --run <script> args...` under a per-call
// deadline. A deadline hit is reported as services.ErrTimeout so callers can
// drop the case and carry on; other non-zero exits are services.ErrExternalTool.
// Operator cancellation is returned as the context error, untouched.
package praat
