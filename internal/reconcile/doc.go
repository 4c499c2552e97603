// Package reconcile keeps the local job mirror and the service queue in step
// with the upstream BMS system.
//
// One Synchronize run ingests open jobs, refreshes the existing mirror in
// bounded batches, prunes jobs routed away from the department, materializes
// queue entries for newly mirrored jobs, and derives status transitions from
// mirror state. Runs serialize through an internal guard so the background
// timer and foreground triggers never race.
package reconcile
