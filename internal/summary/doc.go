// Package summary reduces a merged corpus table for analysis.
//
// Segments collapses the per-chunk rows of each segment into one row, and
// CountWords tallies the vocabulary of a transcript or word list.
package summary
