// Command itq is the operator CLI for the IT service queue: synchronizing
// with the upstream BMS system, calling and finishing queue entries, ad-hoc
// preemption, and managing the nightly service window.
package main
