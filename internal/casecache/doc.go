// Package casecache persists finished case tables and computer-vision series
// so that repeated runs skip expensive external tool invocations.
//
// Entries are grouped by namespace and keyed by case ID. Every backend is
// write-once: the first Put for a key wins and later writers are ignored, so
// concurrent per-case workers never collide on the same entry.
package casecache
