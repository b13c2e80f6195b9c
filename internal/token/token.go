// Package token issues and redeems single-use capability tokens.
//
// A token maps to one permission string. Redemption is destructive and
// atomic: one write transaction reads the record, compares the stored
// permission, and deletes the record only when they match, so a token can
// never be checked valid and then reused.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/trellis/pkg/storage"
)

// tokenRecord is the stored shape of an issued token.
type tokenRecord struct {
	Permission string    `json:"permission"`
	IssuedAt   time.Time `json:"issued_at"`
}

// Service issues and redeems tokens against the engine's token keyspace.
type Service struct {
	engine storage.Engine
	now    func() time.Time
}

// NewService wraps an engine. The engine handle is shared with the graph
// store; the service only touches the Tokens keyspace.
func NewService(engine storage.Engine) *Service {
	return &Service{engine: engine, now: time.Now}
}

// Issue creates a single-use token carrying the given permission and
// returns its id. One write transaction.
func (s *Service) Issue(ctx context.Context, permission string) (string, error) {
	if permission == "" {
		return "", fmt.Errorf("issue token: permission required")
	}

	id := uuid.NewString()
	raw, err := json.Marshal(tokenRecord{
		Permission: permission,
		IssuedAt:   s.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("issue token: encode record: %w", err)
	}

	err = s.engine.Update(ctx, func(txn storage.Txn) error {
		return txn.Set(storage.KeyspaceTokens, id, raw)
	})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return id, nil
}

// Redeem consumes the token if it exists and carries the required
// permission. It returns true exactly once per issued token; an unknown
// token or a permission mismatch returns false with nothing consumed.
// The read, the comparison, and the delete happen in one write
// transaction.
func (s *Service) Redeem(ctx context.Context, token, required string) (bool, error) {
	if token == "" || required == "" {
		return false, nil
	}

	granted := false
	err := s.engine.Update(ctx, func(txn storage.Txn) error {
		raw, err := txn.Get(storage.KeyspaceTokens, token)
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var rec tokenRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decode token record: %w", err)
		}
		if rec.Permission != required {
			return nil
		}

		if _, err := txn.Delete(storage.KeyspaceTokens, token); err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redeem token: %w", err)
	}
	return granted, nil
}
