package api

import (
	"net/http"
	"strconv"

	"vaultify/internal/graph"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ShareRequest struct {
	ResourceID   string `json:"resourceId" example:"V1StGXR8_Z5jdHi6B-myT"`
	GranteeEmail string `json:"granteeEmail" example:"bob@example.com"`
	Role         string `json:"role" example:"viewer" enums:"viewer,editor"`
}

type LinkShareRequest struct {
	ResourceID string `json:"resourceId" example:"V1StGXR8_Z5jdHi6B-myT"`
}

// @Summary      Share with a user
// @Description  Grants a user, identified by email, viewer or editor access to a file or folder the caller owns. Sharing again with the same user replaces the role.
// @Tags         shares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        share  body      ShareRequest  true  "Share details"
// @Success      201    {object}  models.Share
// @Failure      400    {object}  ErrorResponse
// @Failure      403    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse "Resource or grantee not found"
// @Router       /shares [post]
func (s *Server) CreateShareHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req ShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	share, err := s.graph.CreateShare(r.Context(), graph.CreateShareParams{
		ResourceID:   req.ResourceID,
		OwnerID:      claims.UserID,
		GranteeEmail: req.GranteeEmail,
		Role:         req.Role,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, share)
}

// @Summary      List a resource's shares
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Param        resourceId  path      string  true  "Node ID"
// @Success      200         {array}   models.ShareWithGrantee
// @Failure      403         {object}  ErrorResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /shares/{resourceId} [get]
func (s *Server) ListSharesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	shares, err := s.graph.ListShares(r.Context(), graph.ResourceRef{
		ResourceID: chi.URLParam(r, "resourceId"),
		OwnerID:    claims.UserID,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, shares)
}

// @Summary      Revoke a share
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Param        shareId  path      int  true  "Share ID"
// @Success      200      {object}  MessageResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /shares/{shareId} [delete]
func (s *Server) RevokeShareHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	shareID, err := strconv.ParseInt(chi.URLParam(r, "shareId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid share ID")
		return
	}

	if err := s.graph.RevokeShare(r.Context(), graph.RevokeShareParams{ShareID: shareID, OwnerID: claims.UserID}); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Access revoked."})
}

// @Summary      Create a public link
// @Description  Returns the caller's public link for the resource, creating it on first use.
// @Tags         shares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        link  body      LinkShareRequest  true  "Resource"
// @Success      201   {object}  models.LinkShare
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /shares/link [post]
func (s *Server) CreateLinkShareHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req LinkShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	link, err := s.graph.CreateLinkShare(r.Context(), graph.ResourceRef{ResourceID: req.ResourceID, OwnerID: claims.UserID})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

// @Summary      Get a resource's public link
// @Description  Returns the link, or null when the resource has none.
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Param        resourceId  path      string  true  "Node ID"
// @Success      200         {object}  models.LinkShare
// @Failure      403         {object}  ErrorResponse
// @Failure      404         {object}  ErrorResponse
// @Router       /shares/link/{resourceId} [get]
func (s *Server) GetLinkShareHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	link, err := s.graph.GetLinkShare(r.Context(), graph.ResourceRef{
		ResourceID: chi.URLParam(r, "resourceId"),
		OwnerID:    claims.UserID,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// @Summary      Delete a public link
// @Tags         shares
// @Produce      json
// @Security     BearerAuth
// @Param        linkId  path      string  true  "Link ID" format(uuid)
// @Success      200     {object}  MessageResponse
// @Failure      400     {object}  ErrorResponse
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /shares/link/{linkId} [delete]
func (s *Server) DeleteLinkShareHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	linkID, err := uuid.Parse(chi.URLParam(r, "linkId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid link ID format")
		return
	}

	if err := s.graph.DeleteLinkShare(r.Context(), graph.DeleteLinkShareParams{LinkID: linkID, OwnerID: claims.UserID}); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Link deleted"})
}

// @Summary      Resolve a public link
// @Description  Unauthenticated. Returns the file or folder behind a public link token.
// @Tags         public
// @Produce      json
// @Param        token  path      string  true  "Link token"
// @Success      200    {object}  models.Node
// @Failure      404    {object}  ErrorResponse
// @Router       /shares/public/{token} [get]
func (s *Server) ResolvePublicLinkHandler(w http.ResponseWriter, r *http.Request) {
	node, err := s.graph.ResolvePublicToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writePublicError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// @Summary      Download through a public link
// @Description  Unauthenticated. Returns a short-lived download URL for the file behind a public link token.
// @Tags         public
// @Produce      json
// @Param        token  path      string  true  "Link token"
// @Success      200    {object}  graph.DownloadLink
// @Failure      400    {object}  ErrorResponse "Folders cannot be downloaded"
// @Failure      404    {object}  ErrorResponse
// @Router       /shares/public/{token}/download [get]
func (s *Server) PublicDownloadHandler(w http.ResponseWriter, r *http.Request) {
	link, err := s.graph.PublicDownloadURL(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.writePublicError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// writePublicError keeps unauthenticated callers from learning anything
// beyond "no such link".
func (s *Server) writePublicError(w http.ResponseWriter, r *http.Request, err error) {
	if statusFor(err) == http.StatusNotFound {
		writeError(w, http.StatusNotFound, "Share link not found or has expired.")
		return
	}
	s.writeServiceError(w, r, err)
}
