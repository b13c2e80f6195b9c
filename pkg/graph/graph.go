package graph

import (
	"time"

	"github.com/roach88/trellis/pkg/storage"
)

// Clock supplies record timestamps.
//
// The default clock reads wall time; tests substitute a fixed clock so
// stored records are reproducible.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Store is the node/relation store. It is safe for concurrent use as long
// as the underlying engine is; the store adds no locking of its own, all
// concurrency safety is delegated to the engine's transactions.
type Store struct {
	engine    storage.Engine
	clock     Clock
	adjacency bool
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithAdjacencyIndex maintains an auxiliary index from source node id to
// outgoing relation keys, updated in the same transaction as every
// relation put and delete. Edge lookup during traversal becomes a bounded
// prefix scan instead of a full relation scan. Traversal output is
// identical with and without the index.
//
// Enabling this on a store whose relations predate the index requires one
// ReindexAdjacency call to backfill.
func WithAdjacencyIndex() Option {
	return func(s *Store) { s.adjacency = true }
}

// WithClock substitutes the timestamp source. Intended for tests.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New wraps an already-open engine in a Store. The Store takes ownership:
// Close closes the engine.
func New(engine storage.Engine, opts ...Option) *Store {
	s := &Store{engine: engine, clock: systemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the underlying engine.
func (s *Store) Close() error {
	return s.engine.Close()
}
