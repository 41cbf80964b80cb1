// Package database provides SQLite-based storage for hostprint.
//
// This package implements the HistoryDB, which stores one row per
// fingerprint run: the composite hash, the collision-safe digest, and the
// full per-engine result as JSON. History rows back the compare command
// and the watch command's drift detection.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
