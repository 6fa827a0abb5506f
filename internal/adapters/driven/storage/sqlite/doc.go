// Package sqlite provides the SQLite-backed destination store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two store interfaces
// through a single database connection:
//
//   - AnnotationStore: imported canonical annotations, kept in import order
//   - CheckpointStore: the last committed offset of each pull
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Replies reference their parent through a foreign key, so a reply can never be
// stored ahead of its parent and a parent cannot be deleted while replies remain.
//
// # Data Location
//
// By default, the database is stored at ~/.annomigrate/data/catch.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
