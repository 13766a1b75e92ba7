// Package sqlite provides SQLite-backed implementations of the driven ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. A single database connection backs:
//
//   - WatchStateStore: the watched folder and its continuation token
//   - CycleStore: poll cycle history
//   - ChunkRepository: chunk records for offline use without MongoDB
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.kbsync/data/kbsync.db
package sqlite
