// Package config loads, normalizes, and validates livingroom configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LIVINGROOM_CORPUS_ROOT and LIVINGROOM_PRAAT. The Config type centralizes
// every corpus directory, filename pattern, and external tool setting the
// pipeline needs so that no package keeps process-wide path state.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, compiled-ready patterns, and clear validation errors.
package config
