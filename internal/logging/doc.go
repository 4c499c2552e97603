// Package logging assembles structured slog loggers shared across itq
// components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers plus standardized field keys so the
// reconciler, lifecycle engine, and shift scheduler emit log lines with the
// same shape. A no-op logger is provided for tests and wiring that cannot
// fail.
package logging
