package storage

import "context"

// Keyspace identifies one of the store's independent key ranges.
type Keyspace string

const (
	// KeyspaceNodes holds node records keyed by node id.
	KeyspaceNodes Keyspace = "nodes"

	// KeyspaceRelations holds relation records keyed by composite relation key.
	KeyspaceRelations Keyspace = "relations"

	// KeyspaceAdjacency holds the optional adjacency index
	// (source node id -> relation key), maintained by the graph layer.
	KeyspaceAdjacency Keyspace = "adjacency"

	// KeyspaceTokens holds single-use capability token records.
	KeyspaceTokens Keyspace = "tokens"
)

// Keyspaces returns every keyspace an engine must provide, in a fixed order.
func Keyspaces() []Keyspace {
	return []Keyspace{KeyspaceNodes, KeyspaceRelations, KeyspaceAdjacency, KeyspaceTokens}
}

// Engine is the transactional substrate behind the graph store.
//
// Implementations must be safe for concurrent use: the store shares one
// Engine handle across callers and adds no locking of its own.
type Engine interface {
	// View runs fn inside a read-only transaction. The transaction observes
	// a consistent snapshot for its whole duration, even if a writer commits
	// concurrently. Mutations inside fn fail with ErrReadOnlyTxn.
	View(ctx context.Context, fn func(Txn) error) error

	// Update runs fn inside a read-write transaction and commits it when fn
	// returns nil. If fn returns an error or the commit fails, no write
	// becomes visible.
	Update(ctx context.Context, fn func(Txn) error) error

	// Close releases the underlying database. The engine must not be used
	// afterwards.
	Close() error
}

// Txn is the operation surface inside a transaction.
//
// Keys are UTF-8 strings ordered bytewise; Scan visits keys in that order.
// A Txn is only valid for the duration of the View/Update call that
// produced it.
type Txn interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ks Keyspace, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ks Keyspace, key string, value []byte) error

	// Delete removes key and reports whether a value existed.
	// Deleting an absent key is not an error.
	Delete(ks Keyspace, key string) (bool, error)

	// Scan calls fn for every key with the given prefix, in ascending key
	// order. An empty prefix scans the whole keyspace. Iteration stops at
	// the first error returned by fn, which is propagated unchanged.
	Scan(ks Keyspace, prefix string, fn func(key string, value []byte) error) error
}
