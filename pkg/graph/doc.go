// Package graph is an embeddable node/relation store: a minimal
// graph-shaped data layer on top of a transactional storage engine.
//
// The store offers:
//   - Nodes: opaque payloads keyed by a unique string id
//   - Relations: directed, named edges identified by (name, from, to)
//   - Traversal: depth-first and breadth-first walks over stored relations
//
// # Transaction Discipline
//
// Every store call runs in exactly one engine transaction: mutations in one
// Update (begin, write, commit), reads in one View. Traversals hold a single
// View for the whole walk, so a concurrent writer committing mid-walk never
// changes the result. There is no cross-call transaction handle; callers
// needing a larger atomic unit must go to the engine directly.
//
// # Relation Keys
//
// A relation is stored under the composite key "name_from_to". None of the
// three components may be empty or contain the delimiter or a NUL byte;
// EncodeRelationKey rejects such components rather than storing a key that
// cannot be decoded unambiguously. Components are NFC-normalized first, so
// visually identical identifiers always map to the same key.
//
// # Traversal Cost
//
// There is no secondary index by default: finding a node's outgoing edges is
// a full scan of the relation keyspace, making a whole walk O(V*E). That is
// the documented contract for small graphs. WithAdjacencyIndex opts into an
// auxiliary index maintained transactionally with every relation write,
// which turns edge lookup into a bounded prefix scan without changing
// traversal output.
package graph
