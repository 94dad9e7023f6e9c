package api

import (
	"net/http"

	"vaultify/internal/database"
	"vaultify/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// @Summary      List active sessions
// @Description  Gets a list of all active sessions for the currently authenticated user, which can be displayed to allow them to manage devices.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Session
// @Failure      401  {object}  ErrorResponse "Unauthorized"
// @Failure      500  {object}  ErrorResponse
// @Router       /sessions [get]
func (s *Server) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var sessions []models.Session
	err := s.store.ExecTx(r.Context(), func(q database.Querier) error {
		var err error
		sessions, err = q.ListSessionsForUser(r.Context(), claims.UserID)
		return err
	})
	if err != nil {
		s.logger.Error(r.Context(), "list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve sessions")
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// @Summary      Terminate a specific session
// @Description  Terminates (logs out) a specific session by its ID. A user can only terminate their own sessions.
// @Tags         sessions
// @Security     BearerAuth
// @Param        sessionId  path      string  true  "ID of the session to terminate" format(uuid)
// @Success      204        {null}    nil     "No Content"
// @Failure      400        {object}  ErrorResponse "Bad Request - Invalid session ID format"
// @Failure      401        {object}  ErrorResponse "Unauthorized"
// @Failure      500        {object}  ErrorResponse
// @Router       /sessions/{sessionId} [delete]
func (s *Server) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	err = s.store.ExecTx(r.Context(), func(q database.Querier) error {
		return q.DeleteSessionByID(r.Context(), sessionID, claims.UserID)
	})
	if err != nil {
		s.logger.Error(r.Context(), "delete session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Terminate all sessions (Log out everywhere)
// @Description  Terminates all active sessions for the currently authenticated user, effectively logging them out from all other devices.
// @Tags         sessions
// @Security     BearerAuth
// @Success      204  {null}    nil "No Content"
// @Failure      401  {object}  ErrorResponse "Unauthorized"
// @Failure      500  {object}  ErrorResponse
// @Router       /sessions/terminate_all [post]
func (s *Server) TerminateAllSessionsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	err := s.store.ExecTx(r.Context(), func(q database.Querier) error {
		return q.DeleteAllSessionsForUser(r.Context(), claims.UserID)
	})
	if err != nil {
		s.logger.Error(r.Context(), "terminate sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to terminate all sessions")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
