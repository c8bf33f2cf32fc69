// Package sqlite implements the storage interfaces on a single SQLite file
// using the pure-Go modernc.org/sqlite driver.
package sqlite
