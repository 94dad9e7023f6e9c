package api

import (
	"net/http"

	"vaultify/internal/graph"

	"github.com/go-chi/chi/v5"
)

// @Summary      Move to trash
// @Description  Soft-deletes a node. Its descendants disappear from every listing until it is restored.
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      200     {object}  models.Node
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /files/{nodeId}/trash [patch]
func (s *Server) TrashNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	node, err := s.graph.Trash(r.Context(), graph.NodeRef{NodeID: chi.URLParam(r, "nodeId"), CallerID: claims.UserID})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// @Summary      Restore from trash
// @Tags         trash
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      200     {object}  models.Node
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /files/{nodeId}/restore [patch]
func (s *Server) RestoreNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	node, err := s.graph.Restore(r.Context(), graph.NodeRef{NodeID: chi.URLParam(r, "nodeId"), CallerID: claims.UserID})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// @Summary      Delete forever
// @Description  Permanently deletes a trashed node, everything below it and the stored content. This action cannot be undone.
// @Tags         trash
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      204     {null}    nil "No Content"
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Failure      409     {object}  ErrorResponse "Node is not in the trash"
// @Router       /files/{nodeId} [delete]
func (s *Server) PurgeNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	err := s.graph.PurgeForever(r.Context(), graph.NodeRef{NodeID: chi.URLParam(r, "nodeId"), CallerID: claims.UserID})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
