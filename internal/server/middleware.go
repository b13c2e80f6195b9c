package server

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// recoverPanics catches handler panics, logs the stack trace, and returns
// a generic 500 so the server stays up and internals stay hidden.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered in http handler",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", chimiddleware.GetReqID(r.Context()),
					"stack", string(debug.Stack()),
				)
				s.respondError(w, r, errInternal("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// logRequests logs every request with its final status and records the
// Prometheus request metrics. Routes are labeled by chi pattern, not raw
// path, to keep metric cardinality bounded.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", duration.String(),
			"request_id", chimiddleware.GetReqID(r.Context()),
			"ip", r.RemoteAddr,
		)

		requestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
	})
}

// requireWriteToken redeems the request's bearer token against the write
// permission. Tokens are single-use, so each mutating request spends one.
func (s *Server) requireWriteToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth {
			next.ServeHTTP(w, r)
			return
		}

		tok, ok := bearerToken(r)
		if !ok {
			s.respondError(w, r, errUnauthorized("missing bearer token"))
			return
		}

		granted, err := s.tokens.Redeem(r.Context(), tok, permissionWrite)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if !granted {
			s.respondError(w, r, errUnauthorized("token not valid for write"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	return tok, tok != ""
}

// responseWrapper captures the status code a handler writes.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
