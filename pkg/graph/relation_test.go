package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trellis/pkg/storage"
)

// Regression for the append-on-rewrite defect: a second put to the same
// triple must leave exactly one record holding exactly the new payload.
func TestPutRelation_Overwrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existed, err := s.PutRelation(ctx, "likes", "a", "b", []byte("p1"))
	require.NoError(t, err)
	assert.False(t, existed)

	existed, err = s.PutRelation(ctx, "likes", "a", "b", []byte("p2"))
	require.NoError(t, err)
	assert.True(t, existed)

	rel, err := s.GetRelation(ctx, "likes", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("p2"), rel.Payload, "overwrite, not concatenation")

	triples, err := s.ListRelations(ctx)
	require.NoError(t, err)
	assert.Len(t, triples, 1, "exactly one stored record per triple")
}

func TestPutGetRelation_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	payload := []byte{0x00, 0xFE, 'z'}
	_, err := s.PutRelation(ctx, "edge", "from", "to", payload)
	require.NoError(t, err)

	rel, err := s.GetRelation(ctx, "edge", "from", "to")
	require.NoError(t, err)
	assert.Equal(t, "edge", rel.Name)
	assert.Equal(t, "from", rel.From)
	assert.Equal(t, "to", rel.To)
	assert.Equal(t, payload, rel.Payload)
	assert.Equal(t, testTime, rel.Timestamp)
}

func TestGetRelation_NotFound(t *testing.T) {
	s := newTestStore(t)

	rel, err := s.GetRelation(context.Background(), "likes", "a", "b")
	assert.Nil(t, rel)
	assert.True(t, IsNotFound(err), "expected NotFound, got %v", err)
}

func TestGetRelation_Directed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPutRelation(t, s, "likes", "a", "b", "forward")

	// The reverse direction is a distinct identity.
	_, err := s.GetRelation(ctx, "likes", "b", "a")
	assert.True(t, IsNotFound(err))
}

func TestDeleteRelation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPutRelation(t, s, "likes", "a", "b", "p")

	existed, err := s.DeleteRelation(ctx, "likes", "a", "b")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.DeleteRelation(ctx, "likes", "a", "b")
	require.NoError(t, err, "delete of absent relation is not a fault")
	assert.False(t, existed)
}

func TestPutRelation_InvalidComponents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, tt := range [][3]string{
		{"has_part", "a", "b"},
		{"likes", "", "b"},
		{"likes", "a", "b\x00"},
	} {
		_, err := s.PutRelation(ctx, tt[0], tt[1], tt[2], nil)
		assert.True(t, IsKeyEncodingError(err),
			"PutRelation(%v) should be rejected, got %v", tt, err)
	}
}

func TestListRelations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	triples, err := s.ListRelations(ctx)
	require.NoError(t, err)
	assert.NotNil(t, triples)
	assert.Empty(t, triples)

	mustPutRelation(t, s, "likes", "b", "c", "1")
	mustPutRelation(t, s, "knows", "a", "b", "2")
	mustPutRelation(t, s, "likes", "a", "b", "3")

	triples, err = s.ListRelations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Triple{
		{Name: "knows", From: "a", To: "b"},
		{Name: "likes", From: "a", To: "b"},
		{Name: "likes", From: "b", To: "c"},
	}, triples, "triples decoded from keys, in key order")
}

func TestScanRelations_Predicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPutRelation(t, s, "likes", "a", "b", "1")
	mustPutRelation(t, s, "knows", "a", "c", "2")
	mustPutRelation(t, s, "likes", "c", "d", "3")

	triples, err := s.ScanRelations(ctx, func(tr Triple) bool {
		return tr.Name == "likes"
	})
	require.NoError(t, err)
	assert.Equal(t, []Triple{
		{Name: "likes", From: "a", To: "b"},
		{Name: "likes", From: "c", To: "d"},
	}, triples)
}

// Deleting a node must not cascade: dangling relations are permitted,
// and this pins that down.
func TestDeleteNode_LeavesDanglingRelation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPutNode(t, s, "a", "node-a")
	mustPutNode(t, s, "b", "node-b")
	mustPutRelation(t, s, "edge", "a", "b", "p")

	existed, err := s.DeleteNode(ctx, "a")
	require.NoError(t, err)
	require.True(t, existed)

	rel, err := s.GetRelation(ctx, "edge", "a", "b")
	require.NoError(t, err, "relation survives deletion of its source node")
	assert.Equal(t, []byte("p"), rel.Payload)
}

func TestOutgoingRelations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPutRelation(t, s, "likes", "a", "b", "1")
	mustPutRelation(t, s, "knows", "a", "c", "2")
	mustPutRelation(t, s, "likes", "b", "c", "3")

	triples, err := s.OutgoingRelations(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []Triple{
		{Name: "knows", From: "a", To: "c"},
		{Name: "likes", From: "a", To: "b"},
	}, triples, "only a's outgoing edges, in key order")

	triples, err = s.OutgoingRelations(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, triples)
}

func TestAdjacencyIndex_MaintainedTransactionally(t *testing.T) {
	s := newTestStore(t, WithAdjacencyIndex())
	ctx := context.Background()

	mustPutRelation(t, s, "likes", "a", "b", "1")
	mustPutRelation(t, s, "likes", "a", "c", "2")

	assert.Equal(t, 2, adjacencyCount(t, s))

	_, err := s.DeleteRelation(ctx, "likes", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, adjacencyCount(t, s), "delete removes the index entry")

	triples, err := s.OutgoingRelations(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []Triple{{Name: "likes", From: "a", To: "c"}}, triples)
}

func TestReindexAdjacency_Backfills(t *testing.T) {
	eng, err := storage.OpenBadger(storage.BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	ctx := context.Background()

	// Relations written before the index existed.
	plain := New(eng, WithClock(fixedClock{t: testTime}))
	mustPutRelation(t, plain, "likes", "a", "b", "1")
	mustPutRelation(t, plain, "knows", "a", "c", "2")
	mustPutRelation(t, plain, "likes", "b", "c", "3")

	indexed := New(eng, WithClock(fixedClock{t: testTime}), WithAdjacencyIndex())
	assert.Equal(t, 0, adjacencyCount(t, indexed), "index empty before backfill")

	require.NoError(t, indexed.ReindexAdjacency(ctx))
	assert.Equal(t, 3, adjacencyCount(t, indexed))

	triples, err := indexed.OutgoingRelations(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []Triple{
		{Name: "knows", From: "a", To: "c"},
		{Name: "likes", From: "a", To: "b"},
	}, triples)
}

func adjacencyCount(t *testing.T, s *Store) int {
	t.Helper()
	count := 0
	err := s.engine.View(context.Background(), func(txn storage.Txn) error {
		return txn.Scan(storage.KeyspaceAdjacency, "", func(string, []byte) error {
			count++
			return nil
		})
	})
	require.NoError(t, err)
	return count
}
