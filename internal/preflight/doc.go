// Package preflight provides readiness checks for the external programs,
// scripts and directories the pipeline depends on.
//
// The CLI "livingroom doctor" command prints every result; "livingroom run"
// calls RunAll first and refuses to start when a required check fails, so a
// batch does not discover a missing script hours into a corpus.
//
// Each check is gated by its config toggle; disabled sources are skipped.
package preflight
