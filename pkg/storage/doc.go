// Package storage provides the transactional key-value substrate for the
// trellis graph store.
//
// Two interchangeable engines implement the same contract:
//   - BadgerEngine: embedded file-backed storage (dgraph-io/badger)
//   - SQLiteEngine: relational storage (mattn/go-sqlite3, one table per keyspace)
//
// Both expose snapshot-isolated read transactions and serialized write
// transactions over a small set of fixed keyspaces. Callers never see
// backend-specific types; the graph layer is written once against Engine.
//
// # Transaction Model
//
//   - View: read-only transaction against a consistent snapshot. Concurrent
//     readers never block a writer and are never blocked by one.
//   - Update: read-write transaction. Writers serialize against each other;
//     a failed commit leaves no partial write visible.
//
// # Keyspaces
//
// The store persists independent key ranges for nodes, relations, the
// optional adjacency index, and capability tokens. The badger engine maps
// each keyspace to a single-byte key prefix; the sqlite engine maps each to
// its own table.
package storage
