package graph

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trellis/pkg/storage"
)

// diamond seeds the reference graph A→B, B→C, A→C plus an edge from the
// unreachable node D. No node records are written: traversal walks the
// graph implied by relations alone.
func diamond(t *testing.T, s *Store) {
	t.Helper()
	mustPutRelation(t, s, "edge", "A", "B", "")
	mustPutRelation(t, s, "edge", "B", "C", "")
	mustPutRelation(t, s, "edge", "A", "C", "")
	mustPutRelation(t, s, "edge", "D", "C", "")
}

func TestDepthFirst_VisitsReachableOnce(t *testing.T) {
	s := newTestStore(t)
	diamond(t, s)

	order, err := s.DepthFirst(context.Background(), "A")
	require.NoError(t, err)

	require.NotEmpty(t, order)
	assert.Equal(t, "A", order[0], "start is visited first")
	assert.ElementsMatch(t, []string{"A", "B", "C"}, order, "every reachable node exactly once")
	assert.NotContains(t, order, "D", "unreachable node never visited")
}

func TestBreadthFirst_HopOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A at distance 0; B, C at 1; D, E at 2.
	mustPutRelation(t, s, "edge", "A", "B", "")
	mustPutRelation(t, s, "edge", "A", "C", "")
	mustPutRelation(t, s, "edge", "B", "D", "")
	mustPutRelation(t, s, "edge", "C", "E", "")

	order, err := s.BreadthFirst(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, order,
		"non-decreasing hop distance, scan order within a hop")
}

func TestDepthFirst_Order(t *testing.T) {
	s := newTestStore(t)

	mustPutRelation(t, s, "edge", "A", "B", "")
	mustPutRelation(t, s, "edge", "A", "C", "")
	mustPutRelation(t, s, "edge", "B", "D", "")
	mustPutRelation(t, s, "edge", "C", "E", "")

	order, err := s.DepthFirst(context.Background(), "A")
	require.NoError(t, err)
	// Children are expanded newest-first off the stack, so the branch
	// through C runs to completion before B is touched.
	assert.Equal(t, []string{"A", "C", "E", "B", "D"}, order)
}

func TestTraversal_SameVisitedSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPutRelation(t, s, "edge", "A", "B", "")
	mustPutRelation(t, s, "edge", "B", "C", "")
	mustPutRelation(t, s, "edge", "C", "A", "")
	mustPutRelation(t, s, "edge", "B", "D", "")
	mustPutRelation(t, s, "rel", "D", "E", "")
	mustPutRelation(t, s, "rel", "Z", "A", "")

	dfs, err := s.DepthFirst(ctx, "A")
	require.NoError(t, err)
	bfs, err := s.BreadthFirst(ctx, "A")
	require.NoError(t, err)

	sortedDFS := append([]string(nil), dfs...)
	sortedBFS := append([]string(nil), bfs...)
	sort.Strings(sortedDFS)
	sort.Strings(sortedBFS)
	assert.Equal(t, sortedDFS, sortedBFS, "same visited set, order may differ")
}

func TestTraversal_Cycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPutRelation(t, s, "edge", "A", "B", "")
	mustPutRelation(t, s, "edge", "B", "C", "")
	mustPutRelation(t, s, "edge", "C", "A", "")

	dfs, err := s.DepthFirst(ctx, "A")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, dfs, "cycle terminates, no revisits")

	bfs, err := s.BreadthFirst(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, bfs)
}

func TestTraversal_SelfLoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPutRelation(t, s, "edge", "A", "A", "")

	dfs, err := s.DepthFirst(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, dfs, "self-loop visited once")

	bfs, err := s.BreadthFirst(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, bfs)
}

func TestTraversal_IsolatedStart(t *testing.T) {
	s := newTestStore(t)

	order, err := s.DepthFirst(context.Background(), "lonely")
	require.NoError(t, err)
	assert.Equal(t, []string{"lonely"}, order,
		"a start with no outgoing relations is still visited")
}

func TestTraversal_Deterministic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	diamond(t, s)

	first, err := s.DepthFirst(ctx, "A")
	require.NoError(t, err)
	second, err := s.DepthFirst(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical runs produce identical order")
}

// The adjacency index is an access-path optimization only: enabling it
// must not change traversal output.
func TestTraversal_IndexEquivalence(t *testing.T) {
	edges := [][3]string{
		{"edge", "A", "B"},
		{"edge", "B", "C"},
		{"edge", "A", "C"},
		{"edge", "C", "D"},
		{"link", "B", "E"},
		{"link", "E", "A"},
	}

	build := func(opts ...Option) *Store {
		eng, err := storage.OpenBadger(storage.BadgerOptions{InMemory: true})
		require.NoError(t, err)
		t.Cleanup(func() { eng.Close() })
		s := New(eng, append([]Option{WithClock(fixedClock{t: testTime})}, opts...)...)
		for _, e := range edges {
			mustPutRelation(t, s, e[0], e[1], e[2], "")
		}
		return s
	}

	ctx := context.Background()
	plain := build()
	indexed := build(WithAdjacencyIndex())

	for _, start := range []string{"A", "B", "E"} {
		plainDFS, err := plain.DepthFirst(ctx, start)
		require.NoError(t, err)
		indexedDFS, err := indexed.DepthFirst(ctx, start)
		require.NoError(t, err)
		assert.Equal(t, plainDFS, indexedDFS, "DFS from %s", start)

		plainBFS, err := plain.BreadthFirst(ctx, start)
		require.NoError(t, err)
		indexedBFS, err := indexed.BreadthFirst(ctx, start)
		require.NoError(t, err)
		assert.Equal(t, plainBFS, indexedBFS, "BFS from %s", start)
	}
}
