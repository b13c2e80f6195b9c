package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/roach88/trellis/pkg/graph"
)

// apiError carries a status decided by the HTTP layer itself (bad bodies,
// auth failures, absent delete targets). Store errors never pass through
// this type; they are mapped by code in respondError.
type apiError struct {
	status  int
	message string
	code    string
}

func (e *apiError) Error() string { return e.message }

func errBadRequest(message string) *apiError {
	return &apiError{status: http.StatusBadRequest, message: message}
}

func errUnauthorized(message string) *apiError {
	return &apiError{status: http.StatusUnauthorized, message: message}
}

func errInternal(message string) *apiError {
	return &apiError{status: http.StatusInternalServerError, message: message}
}

func errNotFound(message string) *apiError {
	return &apiError{
		status:  http.StatusNotFound,
		message: message,
		code:    string(graph.ErrCodeNotFound),
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondJSON writes v with the given status. Encoding failures are logged,
// not surfaced: the status line is already on the wire.
func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

// respondError translates an error into a status code and a JSON body.
//
// Store outcomes map per their code: NotFound 404, key codec rejections
// 400, record shape mismatches 500, engine faults 503. Anything untyped
// is a 500 with a generic message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status = http.StatusInternalServerError
		body   = errorResponse{Error: "internal server error"}
	)

	var ae *apiError
	var ge *graph.Error

	switch {
	case errors.As(err, &ae):
		status = ae.status
		body.Error = ae.message
		body.Code = ae.code
	case errors.As(err, &ge):
		body.Error = ge.Message
		body.Code = string(ge.Code)
		switch {
		case graph.IsNotFound(err):
			status = http.StatusNotFound
		case graph.IsKeyEncodingError(err), graph.IsKeyDecodingError(err):
			status = http.StatusBadRequest
		case graph.IsEngineUnavailable(err):
			status = http.StatusServiceUnavailable
			body.Error = "storage engine unavailable"
		default: // CodecMismatch and anything future
			status = http.StatusInternalServerError
			body.Error = "stored record unreadable"
		}
	default:
		// Untyped errors here come from the token service, whose only
		// failure mode is an engine fault.
		status = http.StatusServiceUnavailable
		body.Error = "service unavailable"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	s.respondJSON(w, status, body)
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errBadRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
