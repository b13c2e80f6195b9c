package graph

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/trellis/pkg/storage"
)

// Node is a stored entity: an opaque payload under a unique string id.
type Node struct {
	ID        string
	Payload   []byte
	Timestamp time.Time
}

// PutNode stores payload under id, replacing any existing record wholesale.
// It reports whether a record already existed (update vs. create).
// One write transaction.
func (s *Store) PutNode(ctx context.Context, id string, payload []byte) (bool, error) {
	const op = "PutNode"
	id, err := canonicalNodeID(op, id)
	if err != nil {
		return false, err
	}
	value, err := encodeRecord(op, id, payload, s.clock.Now())
	if err != nil {
		return false, err
	}

	existed := false
	err = s.engine.Update(ctx, func(txn storage.Txn) error {
		_, err := txn.Get(storage.KeyspaceNodes, id)
		switch {
		case errors.Is(err, storage.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			existed = true
		}
		return txn.Set(storage.KeyspaceNodes, id, value)
	})
	if err != nil {
		return false, wrapEngine(op, id, err)
	}
	return existed, nil
}

// GetNode returns the node stored under id. Absence is a NotFound outcome,
// not a fault; check it with IsNotFound. One read transaction.
func (s *Store) GetNode(ctx context.Context, id string) (*Node, error) {
	const op = "GetNode"
	id, err := canonicalNodeID(op, id)
	if err != nil {
		return nil, err
	}

	var node *Node
	err = s.engine.View(ctx, func(txn storage.Txn) error {
		raw, err := txn.Get(storage.KeyspaceNodes, id)
		if errors.Is(err, storage.ErrKeyNotFound) {
			return errNotFound(op, id)
		}
		if err != nil {
			return err
		}
		rec, err := decodeRecord(op, id, raw)
		if err != nil {
			return err
		}
		node = &Node{ID: id, Payload: rec.Payload, Timestamp: rec.TS}
		return nil
	})
	if err != nil {
		return nil, wrapEngine(op, id, err)
	}
	return node, nil
}

// DeleteNode removes the node stored under id and reports whether a record
// existed. Deleting an absent node is not an error. Relations referencing
// the node are left in place; the store never cascades.
// One write transaction.
func (s *Store) DeleteNode(ctx context.Context, id string) (bool, error) {
	const op = "DeleteNode"
	id, err := canonicalNodeID(op, id)
	if err != nil {
		return false, err
	}

	existed := false
	err = s.engine.Update(ctx, func(txn storage.Txn) error {
		var err error
		existed, err = txn.Delete(storage.KeyspaceNodes, id)
		return err
	})
	if err != nil {
		return false, wrapEngine(op, id, err)
	}
	return existed, nil
}

// ListNodes returns all node ids in key order, snapshot-consistent as of
// the read transaction's start. The result is empty, never nil, when no
// nodes exist.
func (s *Store) ListNodes(ctx context.Context) ([]string, error) {
	const op = "ListNodes"
	ids := []string{}
	err := s.engine.View(ctx, func(txn storage.Txn) error {
		return txn.Scan(storage.KeyspaceNodes, "", func(key string, _ []byte) error {
			ids = append(ids, key)
			return nil
		})
	})
	if err != nil {
		return nil, wrapEngine(op, "", err)
	}
	return ids, nil
}

// ScanNodes returns the ids of nodes whose payload satisfies pred, in key
// order. This is a full linear scan; there is no payload index, so cost is
// O(n) in node count.
func (s *Store) ScanNodes(ctx context.Context, pred func(id string, payload []byte) bool) ([]string, error) {
	const op = "ScanNodes"
	ids := []string{}
	err := s.engine.View(ctx, func(txn storage.Txn) error {
		return txn.Scan(storage.KeyspaceNodes, "", func(key string, raw []byte) error {
			rec, err := decodeRecord(op, key, raw)
			if err != nil {
				return err
			}
			if pred(key, rec.Payload) {
				ids = append(ids, key)
			}
			return nil
		})
	})
	if err != nil {
		return nil, wrapEngine(op, "", err)
	}
	return ids, nil
}
