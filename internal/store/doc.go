// Package store persists the job mirror, the service queue, status registry,
// shift closures, and the queue number counter in a single SQLite database.
//
// All timestamps are stored in UTC at whole-second precision. Multi-row
// mutations that must appear atomic to readers, such as lane transitions and
// cascade deletes, run inside a single transaction with busy retries.
package store
