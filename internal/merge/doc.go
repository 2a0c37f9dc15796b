// Package merge builds the per-case chunk table.
//
// The acoustic tool's long-format output (one row per chunk and measure) is
// the backbone: it is pivoted to one row per chunk, placed on the recording's
// original timeline, and then enriched from the other sources by interval
// containment on that timeline. Creak, computer-vision and transcript data
// are optional; when one is absent its columns are left out and the case
// still completes.
package merge
