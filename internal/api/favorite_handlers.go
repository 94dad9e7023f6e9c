package api

import (
	"net/http"

	"vaultify/internal/graph"

	"github.com/go-chi/chi/v5"
)

type StarRequest struct {
	NodeID string `json:"nodeId" example:"V1StGXR8_Z5jdHi6B-myT"`
}

func (s *Server) listParams(w http.ResponseWriter, r *http.Request) (graph.ListParams, bool) {
	limit, offset, ok := pageParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit and offset must be integers")
		return graph.ListParams{}, false
	}
	return graph.ListParams{CallerID: GetUserFromContext(r.Context()).UserID, Limit: limit, Offset: offset}, true
}

// @Summary      List starred
// @Tags         meta
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Node
// @Router       /meta/starred [get]
func (s *Server) ListStarredHandler(w http.ResponseWriter, r *http.Request) {
	params, ok := s.listParams(w, r)
	if !ok {
		return
	}
	nodes, err := s.graph.ListStarred(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

// @Summary      List recently modified
// @Tags         meta
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Node
// @Router       /meta/recent [get]
func (s *Server) ListRecentHandler(w http.ResponseWriter, r *http.Request) {
	params, ok := s.listParams(w, r)
	if !ok {
		return
	}
	nodes, err := s.graph.ListRecent(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

// @Summary      List shared with me
// @Description  Files and folders other users have shared directly with the caller.
// @Tags         meta
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Node
// @Router       /meta/shared [get]
func (s *Server) ListSharedWithMeHandler(w http.ResponseWriter, r *http.Request) {
	params, ok := s.listParams(w, r)
	if !ok {
		return
	}
	nodes, err := s.graph.ListSharedWithMe(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

// @Summary      Star a node
// @Tags         meta
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        star  body      StarRequest  true  "Node to star"
// @Success      200   {object}  models.Node
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /meta/stars [post]
func (s *Server) AddStarHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req StarRequest
	if err := decodeJSON(r, &req); err != nil || req.NodeID == "" {
		writeError(w, http.StatusBadRequest, "nodeId is required")
		return
	}

	node, err := s.graph.Star(r.Context(), graph.NodeRef{NodeID: req.NodeID, CallerID: claims.UserID})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// @Summary      Unstar a node
// @Tags         meta
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      200     {object}  models.Node
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /meta/stars/{nodeId} [delete]
func (s *Server) RemoveStarHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	node, err := s.graph.Unstar(r.Context(), graph.NodeRef{NodeID: chi.URLParam(r, "nodeId"), CallerID: claims.UserID})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}
