// Package services defines shared utilities consumed by the pipeline stages
// and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp case IDs, stage names, and run correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, and IsFatal to separate
//     run-ending failures from per-case ones.
//
// External tool clients live in subpackages (praat, vision).
package services
