package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
)

// Keyspace prefixes for badger keys. The raw key follows the prefix byte,
// so keyspaces occupy disjoint, contiguous key ranges and prefix scans never
// cross keyspace boundaries.
var badgerPrefix = map[Keyspace]byte{
	KeyspaceNodes:     0x01,
	KeyspaceRelations: 0x02,
	KeyspaceAdjacency: 0x03,
	KeyspaceTokens:    0x04,
}

// BadgerOptions configures the embedded engine.
type BadgerOptions struct {
	// Dir is the storage directory, created if missing. Ignored when
	// InMemory is set.
	Dir string

	// InMemory keeps all data in memory, for tests and ephemeral stores.
	InMemory bool

	// SyncWrites makes every commit fsync before returning.
	SyncWrites bool
}

// BadgerEngine is the embedded file-backed engine.
//
// Badger provides MVCC snapshot isolation natively: View transactions read
// a stable snapshot while Update transactions serialize on commit.
type BadgerEngine struct {
	db     *badger.DB
	closed atomic.Bool
}

var _ Engine = (*BadgerEngine)(nil)

// OpenBadger opens or creates a badger database per opts.
func OpenBadger(opts BadgerOptions) (*BadgerEngine, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, fmt.Errorf("open badger: directory required")
		}
		bopts = badger.DefaultOptions(opts.Dir)
	}
	bopts = bopts.WithSyncWrites(opts.SyncWrites)
	bopts = bopts.WithLogger(nil) // badger's default logger is noisy on stderr

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &BadgerEngine{db: db}, nil
}

// View runs fn in a read-only badger transaction.
func (e *BadgerEngine) View(ctx context.Context, fn func(Txn) error) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.db.View(func(btxn *badger.Txn) error {
		return fn(&badgerTxn{ctx: ctx, txn: btxn})
	})
}

// Update runs fn in a read-write badger transaction and commits it.
func (e *BadgerEngine) Update(ctx context.Context, fn func(Txn) error) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.db.Update(func(btxn *badger.Txn) error {
		return fn(&badgerTxn{ctx: ctx, txn: btxn, update: true})
	})
}

// Close closes the underlying database. Safe to call more than once.
func (e *BadgerEngine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	return nil
}

// badgerTxn adapts a badger transaction to the Txn interface.
type badgerTxn struct {
	ctx    context.Context
	txn    *badger.Txn
	update bool
}

// badgerKey prepends the keyspace prefix byte to key.
func badgerKey(ks Keyspace, key string) ([]byte, error) {
	prefix, ok := badgerPrefix[ks]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyspace, ks)
	}
	buf := make([]byte, 0, len(key)+1)
	buf = append(buf, prefix)
	buf = append(buf, key...)
	return buf, nil
}

func (t *badgerTxn) Get(ks Keyspace, key string) ([]byte, error) {
	k, err := badgerKey(ks, key)
	if err != nil {
		return nil, err
	}
	item, err := t.txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("badger get value: %w", err)
	}
	return value, nil
}

func (t *badgerTxn) Set(ks Keyspace, key string, value []byte) error {
	if !t.update {
		return ErrReadOnlyTxn
	}
	k, err := badgerKey(ks, key)
	if err != nil {
		return err
	}
	if err := t.txn.Set(k, value); err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

func (t *badgerTxn) Delete(ks Keyspace, key string) (bool, error) {
	if !t.update {
		return false, ErrReadOnlyTxn
	}
	k, err := badgerKey(ks, key)
	if err != nil {
		return false, err
	}
	// Badger's Delete does not report prior existence, so probe first.
	_, err = t.txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("badger delete probe: %w", err)
	}
	if err := t.txn.Delete(k); err != nil {
		return false, fmt.Errorf("badger delete: %w", err)
	}
	return true, nil
}

func (t *badgerTxn) Scan(ks Keyspace, prefix string, fn func(key string, value []byte) error) error {
	p, err := badgerKey(ks, prefix)
	if err != nil {
		return err
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = p
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		if err := t.ctx.Err(); err != nil {
			return err
		}
		item := it.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("badger scan value: %w", err)
		}
		// Strip the keyspace prefix byte before handing the key back.
		if err := fn(string(item.Key()[1:]), value); err != nil {
			return err
		}
	}

	return nil
}
