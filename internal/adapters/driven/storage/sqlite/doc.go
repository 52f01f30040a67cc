// Package sqlite provides a unified SQLite-based implementation of the
// storage driven ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. It implements
// multiple store interfaces through a single database connection:
//
//   - OrganizationStore: the local mirror of CRM organizations
//   - WatermarkStore: incremental fetch boundaries per sync type
//   - SyncLogStore: the append-only sync run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory as numbered .up.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.crmsync/data/crmsync.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
