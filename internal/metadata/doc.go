// Package metadata joins participant and session records onto the corpus.
//
// Two survey exports feed it: the exit survey (one row per participant and
// session) and the session roster (one row per session naming its two
// participant slots). Both are comma-separated exports whose first two rows
// are tool preamble; their column names come from separate header files.
// Early exit-survey responses lack session and participant IDs, so those are
// backfilled from an embedded table keyed by response ID.
package metadata
