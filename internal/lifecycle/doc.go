// Package lifecycle implements the service-queue state machine: priority
// selection for the normal lane, ad-hoc preemption, and the upstream-status
// gate that blocks closing an entry whose repair job is still in progress.
package lifecycle
