// Package shift manages the nightly service-window closure: an idempotent
// auto-close inside a span that wraps past midnight, manual close and reopen,
// and the overtime rule that keeps a manually reopened window open for the
// rest of the span.
package shift
