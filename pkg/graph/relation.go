package graph

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/trellis/pkg/storage"
)

// Relation is a directed, named edge between two node ids, with an opaque
// payload of its own. At most one record exists per (name, from, to).
type Relation struct {
	Name      string
	From      string
	To        string
	Payload   []byte
	Timestamp time.Time
}

// PutRelation stores payload under the relation identified by
// (name, from, to), replacing any existing record wholesale. A second put
// to the same triple overwrites, never appends. Reports whether a record
// already existed. One write transaction, adjacency index included.
func (s *Store) PutRelation(ctx context.Context, name, from, to string, payload []byte) (bool, error) {
	const op = "PutRelation"
	t, err := canonicalTriple(op, name, from, to)
	if err != nil {
		return false, err
	}
	key := t.key()
	value, err := encodeRecord(op, key, payload, s.clock.Now())
	if err != nil {
		return false, err
	}

	existed := false
	err = s.engine.Update(ctx, func(txn storage.Txn) error {
		_, err := txn.Get(storage.KeyspaceRelations, key)
		switch {
		case errors.Is(err, storage.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			existed = true
		}
		if err := txn.Set(storage.KeyspaceRelations, key, value); err != nil {
			return err
		}
		if s.adjacency {
			return txn.Set(storage.KeyspaceAdjacency, adjacencyKey(t.From, key), []byte(key))
		}
		return nil
	})
	if err != nil {
		return false, wrapEngine(op, key, err)
	}
	return existed, nil
}

// GetRelation returns the relation stored under (name, from, to). Absence
// is a NotFound outcome; check it with IsNotFound. One read transaction.
func (s *Store) GetRelation(ctx context.Context, name, from, to string) (*Relation, error) {
	const op = "GetRelation"
	t, err := canonicalTriple(op, name, from, to)
	if err != nil {
		return nil, err
	}
	key := t.key()

	var rel *Relation
	err = s.engine.View(ctx, func(txn storage.Txn) error {
		raw, err := txn.Get(storage.KeyspaceRelations, key)
		if errors.Is(err, storage.ErrKeyNotFound) {
			return errNotFound(op, key)
		}
		if err != nil {
			return err
		}
		rec, err := decodeRecord(op, key, raw)
		if err != nil {
			return err
		}
		rel = &Relation{
			Name:      t.Name,
			From:      t.From,
			To:        t.To,
			Payload:   rec.Payload,
			Timestamp: rec.TS,
		}
		return nil
	})
	if err != nil {
		return nil, wrapEngine(op, key, err)
	}
	return rel, nil
}

// DeleteRelation removes the relation stored under (name, from, to) and
// reports whether a record existed. One write transaction, adjacency index
// included.
func (s *Store) DeleteRelation(ctx context.Context, name, from, to string) (bool, error) {
	const op = "DeleteRelation"
	t, err := canonicalTriple(op, name, from, to)
	if err != nil {
		return false, err
	}
	key := t.key()

	existed := false
	err = s.engine.Update(ctx, func(txn storage.Txn) error {
		var err error
		existed, err = txn.Delete(storage.KeyspaceRelations, key)
		if err != nil {
			return err
		}
		if s.adjacency {
			_, err = txn.Delete(storage.KeyspaceAdjacency, adjacencyKey(t.From, key))
		}
		return err
	})
	if err != nil {
		return false, wrapEngine(op, key, err)
	}
	return existed, nil
}

// ListRelations returns the identity triples of all stored relations,
// decoded from their keys, in key order. Empty, never nil, when none.
func (s *Store) ListRelations(ctx context.Context) ([]Triple, error) {
	const op = "ListRelations"
	triples := []Triple{}
	err := s.engine.View(ctx, func(txn storage.Txn) error {
		return txn.Scan(storage.KeyspaceRelations, "", func(key string, _ []byte) error {
			name, from, to, err := DecodeRelationKey(key)
			if err != nil {
				return err
			}
			triples = append(triples, Triple{Name: name, From: from, To: to})
			return nil
		})
	})
	if err != nil {
		return nil, wrapEngine(op, "", err)
	}
	return triples, nil
}

// ScanRelations returns the triples satisfying pred, in key order. This is
// a full linear scan of the relation keyspace, O(total relation count).
func (s *Store) ScanRelations(ctx context.Context, pred func(Triple) bool) ([]Triple, error) {
	const op = "ScanRelations"
	triples := []Triple{}
	err := s.engine.View(ctx, func(txn storage.Txn) error {
		return txn.Scan(storage.KeyspaceRelations, "", func(key string, _ []byte) error {
			name, from, to, err := DecodeRelationKey(key)
			if err != nil {
				return err
			}
			t := Triple{Name: name, From: from, To: to}
			if pred(t) {
				triples = append(triples, t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, wrapEngine(op, "", err)
	}
	return triples, nil
}

// OutgoingRelations returns the triples whose From equals from, in key
// order. A bounded prefix scan when the adjacency index is enabled, a
// filtered full scan otherwise. One read transaction.
func (s *Store) OutgoingRelations(ctx context.Context, from string) ([]Triple, error) {
	const op = "OutgoingRelations"
	from, err := canonicalNodeID(op, from)
	if err != nil {
		return nil, err
	}

	triples := []Triple{}
	err = s.engine.View(ctx, func(txn storage.Txn) error {
		out, err := s.outgoing(txn, from)
		if err != nil {
			return err
		}
		triples = append(triples, out...)
		return nil
	})
	if err != nil {
		return nil, wrapEngine(op, from, err)
	}
	return triples, nil
}

// outgoing collects from's outgoing triples inside an existing transaction.
// Both paths yield triples in composite-key order, so traversal output does
// not depend on whether the index is enabled.
func (s *Store) outgoing(txn storage.Txn, from string) ([]Triple, error) {
	var out []Triple

	if s.adjacency {
		prefix := from + adjacencySep
		err := txn.Scan(storage.KeyspaceAdjacency, prefix, func(_ string, value []byte) error {
			name, f, to, err := DecodeRelationKey(string(value))
			if err != nil {
				return err
			}
			out = append(out, Triple{Name: name, From: f, To: to})
			return nil
		})
		return out, err
	}

	err := txn.Scan(storage.KeyspaceRelations, "", func(key string, _ []byte) error {
		name, f, to, err := DecodeRelationKey(key)
		if err != nil {
			return err
		}
		if f == from {
			out = append(out, Triple{Name: name, From: f, To: to})
		}
		return nil
	})
	return out, err
}

// ReindexAdjacency rebuilds the adjacency keyspace from the stored
// relations in one transaction. Run it once when enabling
// WithAdjacencyIndex on a store whose relations predate the index.
func (s *Store) ReindexAdjacency(ctx context.Context) error {
	const op = "ReindexAdjacency"
	err := s.engine.Update(ctx, func(txn storage.Txn) error {
		// Collect first: deleting under an open iterator is undefined on
		// some engines.
		var stale []string
		err := txn.Scan(storage.KeyspaceAdjacency, "", func(key string, _ []byte) error {
			stale = append(stale, key)
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range stale {
			if _, err := txn.Delete(storage.KeyspaceAdjacency, key); err != nil {
				return err
			}
		}
		return txn.Scan(storage.KeyspaceRelations, "", func(key string, _ []byte) error {
			_, from, _, err := DecodeRelationKey(key)
			if err != nil {
				return err
			}
			return txn.Set(storage.KeyspaceAdjacency, adjacencyKey(from, key), []byte(key))
		})
	})
	return wrapEngine(op, "", err)
}
