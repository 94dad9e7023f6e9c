package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"vaultify/internal/graph"
)

type ErrorResponse struct {
	Error string `json:"error" example:"not found: node abc does not exist"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Access revoked."`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, graph.ErrNotFound), errors.Is(err, graph.ErrGranteeNotFound):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, graph.ErrInvalidName),
		errors.Is(err, graph.ErrInvalidParent),
		errors.Is(err, graph.ErrCycleDetected),
		errors.Is(err, graph.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrNotTrashed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError maps a graph error to its status. Datastore and blob
// store failures are logged and reported without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "Internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// optionalID treats "", "null" and "root" as the root of the tree.
func optionalID(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "root" {
		return nil
	}
	return &raw
}
