package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes wires the middleware chain and the v1 API.
//
// Recovery sits outermost so it catches everything, logging next so every
// request is recorded with its final status. The write gate applies only
// to mutating node/relation routes; reads and traversal stay open.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.recoverPanics)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", s.handleListNodes)
			r.Get("/{id}", s.handleGetNode)

			r.Group(func(r chi.Router) {
				r.Use(s.requireWriteToken)
				r.Post("/", s.handleCreateNode)
				r.Put("/{id}", s.handlePutNode)
				r.Delete("/{id}", s.handleDeleteNode)
			})
		})

		r.Route("/relations", func(r chi.Router) {
			r.Get("/", s.handleQueryRelations)
			r.Get("/{name}/{from}/{to}", s.handleGetRelation)

			r.Group(func(r chi.Router) {
				r.Use(s.requireWriteToken)
				r.Post("/", s.handleCreateRelation)
				r.Delete("/{name}/{from}/{to}", s.handleDeleteRelation)
			})
		})

		r.Get("/walk/{id}", s.handleWalk)

		r.Post("/tokens", s.handleIssueToken)
	})

	return r
}
