// Package database provides SQLite-based storage for pagefold run history.
//
// This package implements the RunDB, which stores:
//   - Run reports with per-phase counters for historical comparison
//   - The path mapping each run applied, for auditing and rollback
//   - Broken links found by validation
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
