// Package textutil provides text helpers shared across the pipeline:
// filesystem-safe tokens for cache and scratch names, and whitespace word
// tokenisation with optional Unicode case folding for word counts.
package textutil
