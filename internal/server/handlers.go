package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roach88/trellis/pkg/graph"
)

// The HTTP surface treats payloads as text. Binary payloads are an
// in-process API affair; JSON strings keep the endpoints curl-friendly.

type nodeRequest struct {
	ID      string `json:"id,omitempty"`
	Payload string `json:"payload"`
}

type nodeResponse struct {
	ID        string    `json:"id"`
	Payload   string    `json:"payload"`
	Timestamp time.Time `json:"ts"`
}

type putResponse struct {
	ID      string `json:"id"`
	Existed bool   `json:"existed"`
}

type relationRequest struct {
	Name    string `json:"name"`
	From    string `json:"from"`
	To      string `json:"to"`
	Payload string `json:"payload"`
}

type relationResponse struct {
	Name      string    `json:"name"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Payload   string    `json:"payload"`
	Timestamp time.Time `json:"ts"`
}

type tripleResponse struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateNode creates a node, generating an id when the body omits
// one. Responds 201 with the id so callers learn generated ids.
func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	existed, err := s.store.PutNode(r.Context(), req.ID, []byte(req.Payload))
	observeStoreOp("PutNode", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, putResponse{ID: req.ID, Existed: existed})
}

func (s *Server) handlePutNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	existed, err := s.store.PutNode(r.Context(), id, []byte(req.Payload))
	observeStoreOp("PutNode", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, putResponse{ID: id, Existed: existed})
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	node, err := s.store.GetNode(r.Context(), id)
	observeStoreOp("GetNode", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, nodeResponse{
		ID:        node.ID,
		Payload:   string(node.Payload),
		Timestamp: node.Timestamp,
	})
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existed, err := s.store.DeleteNode(r.Context(), id)
	observeStoreOp("DeleteNode", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !existed {
		s.respondError(w, r, errNotFound("no node with that id"))
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.ListNodes(r.Context())
	observeStoreOp("ListNodes", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"nodes": ids})
}

func (s *Server) handleCreateRelation(w http.ResponseWriter, r *http.Request) {
	var req relationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	existed, err := s.store.PutRelation(r.Context(), req.Name, req.From, req.To, []byte(req.Payload))
	observeStoreOp("PutRelation", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]bool{"existed": existed})
}

func (s *Server) handleGetRelation(w http.ResponseWriter, r *http.Request) {
	rel, err := s.store.GetRelation(r.Context(),
		chi.URLParam(r, "name"), chi.URLParam(r, "from"), chi.URLParam(r, "to"))
	observeStoreOp("GetRelation", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, relationResponse{
		Name:      rel.Name,
		From:      rel.From,
		To:        rel.To,
		Payload:   string(rel.Payload),
		Timestamp: rel.Timestamp,
	})
}

func (s *Server) handleDeleteRelation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	from := chi.URLParam(r, "from")
	to := chi.URLParam(r, "to")

	existed, err := s.store.DeleteRelation(r.Context(), name, from, to)
	observeStoreOp("DeleteRelation", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !existed {
		s.respondError(w, r, errNotFound("no relation with that identity"))
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

// handleQueryRelations lists relations, optionally filtered by any of
// name, from, and to. An empty filter returns everything.
func (s *Server) handleQueryRelations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name, from, to := q.Get("name"), q.Get("from"), q.Get("to")

	triples, err := s.store.ScanRelations(r.Context(), func(t graph.Triple) bool {
		if name != "" && t.Name != name {
			return false
		}
		if from != "" && t.From != from {
			return false
		}
		if to != "" && t.To != to {
			return false
		}
		return true
	})
	observeStoreOp("ScanRelations", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	out := make([]tripleResponse, 0, len(triples))
	for _, t := range triples {
		out = append(out, tripleResponse{Name: t.Name, From: t.From, To: t.To})
	}
	s.respondJSON(w, http.StatusOK, map[string][]tripleResponse{"relations": out})
}

// handleWalk runs a traversal from the given start node.
// order=dfs (default) or order=bfs.
func (s *Server) handleWalk(w http.ResponseWriter, r *http.Request) {
	start := chi.URLParam(r, "id")
	order := r.URL.Query().Get("order")
	if order == "" {
		order = "dfs"
	}

	var (
		visited []string
		err     error
	)
	switch order {
	case "dfs":
		visited, err = s.store.DepthFirst(r.Context(), start)
	case "bfs":
		visited, err = s.store.BreadthFirst(r.Context(), start)
	default:
		s.respondError(w, r, errBadRequest(`order must be "dfs" or "bfs"`))
		return
	}
	observeStoreOp("Walk", err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"start":   start,
		"order":   order,
		"visited": visited,
	})
}

type tokenRequest struct {
	Permission string `json:"permission"`
}

// handleIssueToken mints a single-use token. Issuance itself requires no
// auth: possession of a token is the credential. Deployments wanting
// gated issuance put this route behind their own access control.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Permission == "" {
		s.respondError(w, r, errBadRequest("permission required"))
		return
	}

	tok, err := s.tokens.Issue(r.Context(), req.Permission)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{
		"token":      tok,
		"permission": req.Permission,
	})
}
