// Package bms defines the boundary to the upstream BMS repair-job system.
//
// The concrete database driver lives outside this module; consumers receive a
// Client and treat it as an opaque row-fetching capability. The package also
// owns the upstream status-code vocabulary: the open set ingested during
// synchronization and the closable set gating local queue closure.
package bms
