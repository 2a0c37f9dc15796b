// Package orchestrator enumerates cases from the corpus layout, resolves each
// case's resources, runs the merge engine per case and assembles the corpus
// table with session-level offset and interlocutor columns.
//
// RunCase is the independently invocable unit: it touches no state shared with
// other cases apart from the write-once case cache, so callers may run cases
// in separate processes and combine them later.
package orchestrator
