package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/trellis/pkg/storage"
)

// fixedClock pins record timestamps so stored envelopes are reproducible.
type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestStore builds a store over an in-memory engine. Engine parity is
// covered by the storage package's backend matrix; these tests exercise
// the graph semantics on one engine.
func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	eng, err := storage.OpenBadger(storage.BadgerOptions{InMemory: true})
	require.NoError(t, err, "open in-memory engine")

	opts = append([]Option{WithClock(fixedClock{t: testTime})}, opts...)
	s := New(eng, opts...)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustPutNode(t *testing.T, s *Store, id, payload string) {
	t.Helper()
	_, err := s.PutNode(context.Background(), id, []byte(payload))
	require.NoError(t, err, "PutNode(%q)", id)
}

func mustPutRelation(t *testing.T, s *Store, name, from, to, payload string) {
	t.Helper()
	_, err := s.PutRelation(context.Background(), name, from, to, []byte(payload))
	require.NoError(t, err, "PutRelation(%q, %q, %q)", name, from, to)
}
