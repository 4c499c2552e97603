// Package config loads, normalizes, and validates itq configuration.
//
// Configuration lives in a TOML file (default ~/.config/itq/config.toml, with
// a repo-local itq.toml fallback). Load applies defaults, expands ~ in path
// fields, and rejects unusable values so downstream packages can trust the
// struct without re-checking.
package config
