package graph

import (
	"context"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/trellis/pkg/storage"
)

// stack is the LIFO frontier used by depth-first traversal.
type stack []string

func (s *stack) push(id string) {
	*s = append(*s, id)
}

func (s *stack) pop() string {
	old := *s
	id := old[len(old)-1]
	old[len(old)-1] = ""
	*s = old[:len(old)-1]
	return id
}

// DepthFirst walks the graph implied by stored relations, starting at
// start, and returns the visited node ids in depth-first order. The walk
// is iterative (explicit stack, no recursion), cycle-safe via a visited
// set, and visits self-loops once. Unreachable nodes never appear; start
// itself always does, whether or not a node record exists for it.
//
// The whole walk runs inside one read transaction, so a writer committing
// mid-walk never changes the result. Without the adjacency index each
// expansion is a full relation scan, so a walk costs O(V*E); acceptable
// for small graphs only.
func (s *Store) DepthFirst(ctx context.Context, start string) ([]string, error) {
	const op = "DepthFirst"
	start = norm.NFC.String(start)

	order := []string{}
	err := s.engine.View(ctx, func(txn storage.Txn) error {
		visited := make(map[string]bool)
		frontier := stack{start}
		for len(frontier) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := frontier.pop()
			if visited[id] {
				continue
			}
			visited[id] = true
			order = append(order, id)

			edges, err := s.outgoing(txn, id)
			if err != nil {
				return err
			}
			for _, t := range edges {
				if !visited[t.To] {
					frontier.push(t.To)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapEngine(op, start, err)
	}
	return order, nil
}

// BreadthFirst walks the graph implied by stored relations, starting at
// start, and returns the visited node ids ordered by non-decreasing hop
// distance from start. Same structure as DepthFirst with the frontier
// replaced by a strict-FIFO deque; for any graph the visited set equals
// DepthFirst's, only the order differs.
//
// Runs inside one read transaction; same cost contract as DepthFirst.
func (s *Store) BreadthFirst(ctx context.Context, start string) ([]string, error) {
	const op = "BreadthFirst"
	start = norm.NFC.String(start)

	order := []string{}
	err := s.engine.View(ctx, func(txn storage.Txn) error {
		visited := make(map[string]bool)
		frontier := newDeque()
		frontier.pushBack(start)
		for frontier.len() > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := frontier.popFront()
			if visited[id] {
				continue
			}
			visited[id] = true
			order = append(order, id)

			edges, err := s.outgoing(txn, id)
			if err != nil {
				return err
			}
			for _, t := range edges {
				if !visited[t.To] {
					frontier.pushBack(t.To)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapEngine(op, start, err)
	}
	return order, nil
}
