// Package store provides SQLite-backed snapshots of sofer documents.
//
// Every Save of a name appends a new revision; earlier revisions are never
// modified. A snapshot holds the raw-text sofer serialization, so loading it
// yields a tree with the saved identifiers, text and attributes and no
// evaluated text.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Schema changes are applied through PRAGMA user_version migrations when
// the database is opened.
package store
