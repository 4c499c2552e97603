// Package daemon runs the itq background process: a single-instance lock,
// the periodic reconciliation loop, and the cron-scheduled nightly
// auto-close check.
package daemon
