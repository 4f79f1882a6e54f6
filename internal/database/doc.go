// Package database provides SQLite-based storage for flightdash.
//
// The DB stores:
//   - Price points, as an alternative to the CSV history file
//   - One record per pipeline run with its status, error and summary
//
// SQLite (via modernc.org/sqlite) keeps the whole history in a single
// file without CGO, so the binary cross-compiles for the CI runners that
// execute the scheduled job. WAL mode lets the history command read while
// a scheduled run writes.
package database
