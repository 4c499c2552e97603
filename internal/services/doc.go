// Package services holds the shared error taxonomy used across itq
// components.
//
// Errors are tagged with sentinel markers (transient, validation, not found,
// conflict) so callers can decide between retrying on the next scheduled run
// and surfacing a user-facing rejection without inspecting message text.
package services
