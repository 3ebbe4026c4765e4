// Package store persists completed simulation runs.
//
// Two implementations are provided: InMemoryStore for tests and single
// process use, and SQLiteStore which keeps runs in a local database file
// using the pure Go modernc.org/sqlite driver.
package store
