// Package server exposes the store over HTTP.
//
// The server is a thin translation layer: handlers decode requests, call
// the public store API, and map typed store outcomes onto status codes.
// No graph semantics live here.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/trellis/internal/token"
	"github.com/roach88/trellis/pkg/graph"
)

// permissionWrite is the permission a bearer token must carry to pass the
// write gate. Tokens are single-use: every mutating request consumes one.
const permissionWrite = "write"

// Options configures the HTTP surface.
type Options struct {
	// Listen is the bind address.
	Listen string

	// Auth gates mutating routes behind single-use bearer tokens.
	Auth bool
}

// Server holds the HTTP interface over an open store.
type Server struct {
	store  *graph.Store
	tokens *token.Service
	logger *slog.Logger
	auth   bool

	httpServer *http.Server
}

// New builds a server over an already-open store. The store must outlive
// the server; Shutdown does not close it.
func New(store *graph.Store, tokens *token.Service, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:  store,
		tokens: tokens,
		logger: logger,
		auth:   opts.Auth,
	}
	s.httpServer = &http.Server{
		Addr:              opts.Listen,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run starts serving and blocks until Shutdown is called or the listener
// fails.
func (s *Server) Run() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires. The store is left
// open; the caller owns that lifecycle.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
