package storage

import "errors"

// Sentinel errors shared by all engine implementations.
var (
	// ErrKeyNotFound is returned by Txn.Get when no value exists for a key.
	ErrKeyNotFound = errors.New("storage: key not found")

	// ErrReadOnlyTxn is returned when Set or Delete is called inside a
	// View transaction.
	ErrReadOnlyTxn = errors.New("storage: write inside read-only transaction")

	// ErrEngineClosed is returned when an operation is attempted after Close.
	ErrEngineClosed = errors.New("storage: engine closed")

	// ErrUnknownKeyspace is returned for a keyspace outside Keyspaces().
	ErrUnknownKeyspace = errors.New("storage: unknown keyspace")
)
