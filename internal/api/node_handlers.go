package api

import (
	"net/http"
	"strconv"
	"strings"

	"vaultify/internal/database"
	"vaultify/internal/graph"

	"github.com/go-chi/chi/v5"
)

type CreateFolderRequest struct {
	Name     string  `json:"name" example:"Reports"`
	ParentID *string `json:"parentId" example:"V1StGXR8_Z5jdHi6B-myT"`
	IsFolder *bool   `json:"is_folder" example:"true"`
}

type SignedURLRequest struct {
	FileName    string `json:"fileName" example:"q1.pdf"`
	ContentType string `json:"contentType" example:"application/pdf"`
}

type FileMetadataRequest struct {
	Name     string  `json:"name" example:"q1.pdf"`
	Path     string  `json:"path" example:"6f1c7d1e-1b9f-4c0e-9d3a-2f5b8e7a1c44/V1StGXR8_Z5jdHi6B-myT/q1.pdf"`
	MimeType *string `json:"mime_type" example:"application/pdf"`
	Size     *int64  `json:"size" example:"1048576"`
	ParentID *string `json:"parentId" example:"V1StGXR8_Z5jdHi6B-myT"`
}

type RenameRequest struct {
	NewName string `json:"newName" example:"q1-final.pdf"`
}

type MoveRequest struct {
	NewParentID *string `json:"newParentId" example:"V1StGXR8_Z5jdHi6B-myT"`
}

// pageParams reads the optional limit and offset query parameters. Range
// checks are left to the service.
func pageParams(r *http.Request) (limit, offset int, ok bool) {
	q := r.URL.Query()
	var err error
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, false
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return 0, 0, false
		}
	}
	return limit, offset, true
}

// @Summary      List files
// @Description  Lists the children of a folder (the caller's root when parentId is omitted), or the caller's trash when view=trash.
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        view       query     string  false  "drive or trash"  Enums(drive, trash)
// @Param        parentId   query     string  false  "Folder to list"
// @Param        sortBy     query     string  false  "Sort key"        Enums(name, updated_at, size_bytes)
// @Param        sortOrder  query     string  false  "Sort direction"  Enums(asc, desc)
// @Param        limit      query     int     false  "Page size"
// @Param        offset     query     int     false  "Page offset"
// @Success      200        {array}   models.Node
// @Failure      400        {object}  ErrorResponse
// @Failure      403        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Router       /files [get]
func (s *Server) ListNodesHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	q := r.URL.Query()

	limit, offset, ok := pageParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit and offset must be integers")
		return
	}

	switch q.Get("view") {
	case "trash":
		nodes, err := s.graph.ListTrash(r.Context(), graph.ListParams{CallerID: claims.UserID, Limit: limit, Offset: offset})
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nodes)
	case "", "drive":
		nodes, err := s.graph.ListChildren(r.Context(), graph.ListChildrenParams{
			CallerID:  claims.UserID,
			ParentID:  optionalID(q.Get("parentId")),
			SortKey:   database.SortKey(q.Get("sortBy")),
			SortOrder: database.SortOrder(strings.ToLower(q.Get("sortOrder"))),
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nodes)
	default:
		writeError(w, http.StatusBadRequest, "view must be 'drive' or 'trash'")
	}
}

// @Summary      Create a folder
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        folder  body      CreateFolderRequest  true  "Folder"
// @Success      201     {object}  models.Node
// @Failure      400     {object}  ErrorResponse
// @Router       /files [post]
func (s *Server) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req CreateFolderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IsFolder != nil && !*req.IsFolder {
		writeError(w, http.StatusBadRequest, "Files are registered through /files/metadata")
		return
	}

	var parentID *string
	if req.ParentID != nil {
		parentID = optionalID(*req.ParentID)
	}

	node, err := s.graph.CreateNode(r.Context(), graph.CreateNodeParams{
		OwnerID:  claims.UserID,
		Name:     req.Name,
		ParentID: parentID,
		IsFolder: true,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, node)
}

// @Summary      Get an upload URL
// @Description  Reserves a blob path in the caller's namespace and returns a short-lived URL to PUT the content to. Register the file afterwards with /files/metadata.
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        upload  body      SignedURLRequest  true  "File to upload"
// @Success      200     {object}  graph.UploadTicket
// @Failure      400     {object}  ErrorResponse
// @Router       /files/signed-url [post]
func (s *Server) SignedUploadURLHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req SignedURLRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ticket, err := s.graph.PrepareUpload(r.Context(), graph.PrepareUploadParams{
		OwnerID:  claims.UserID,
		FileName: req.FileName,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ticket)
}

// @Summary      Register an uploaded file
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        metadata  body      FileMetadataRequest  true  "File metadata"
// @Success      201       {object}  models.Node
// @Failure      400       {object}  ErrorResponse
// @Router       /files/metadata [post]
func (s *Server) CreateFileMetadataHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req FileMetadataRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var parentID *string
	if req.ParentID != nil {
		parentID = optionalID(*req.ParentID)
	}

	node, err := s.graph.CreateNode(r.Context(), graph.CreateNodeParams{
		OwnerID:   claims.UserID,
		Name:      req.Name,
		ParentID:  parentID,
		Path:      &req.Path,
		MimeType:  req.MimeType,
		SizeBytes: req.Size,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, node)
}

// @Summary      Get a file or folder
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      200     {object}  models.Node
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /files/{nodeId} [get]
func (s *Server) GetNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	node, err := s.graph.GetNode(r.Context(), graph.NodeRef{NodeID: chi.URLParam(r, "nodeId"), CallerID: claims.UserID})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// @Summary      Get a download URL
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      200     {object}  graph.DownloadLink
// @Failure      400     {object}  ErrorResponse "Folders cannot be downloaded"
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /files/{nodeId}/download [get]
func (s *Server) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	link, err := s.graph.DownloadURL(r.Context(), graph.NodeRef{NodeID: chi.URLParam(r, "nodeId"), CallerID: claims.UserID})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// @Summary      Rename a file or folder
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string         true  "Node ID"
// @Param        rename  body      RenameRequest  true  "New name"
// @Success      200     {object}  models.Node
// @Failure      400     {object}  ErrorResponse
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /files/{nodeId}/rename [patch]
func (s *Server) RenameNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req RenameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := s.graph.Rename(r.Context(), graph.RenameParams{
		NodeID:   chi.URLParam(r, "nodeId"),
		CallerID: claims.UserID,
		NewName:  req.NewName,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// @Summary      Move a file or folder
// @Description  Moves a node into another folder, or to the root when newParentId is null. Moving a folder into itself or one of its descendants is rejected.
// @Tags         files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string       true  "Node ID"
// @Param        move    body      MoveRequest  true  "Target folder"
// @Success      200     {object}  models.Node
// @Failure      400     {object}  ErrorResponse
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Router       /files/{nodeId}/move [patch]
func (s *Server) MoveNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	var req MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var target *string
	if req.NewParentID != nil {
		target = optionalID(*req.NewParentID)
	}

	node, err := s.graph.Move(r.Context(), graph.MoveParams{
		NodeID:      chi.URLParam(r, "nodeId"),
		CallerID:    claims.UserID,
		NewParentID: target,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// @Summary      Search by name
// @Description  Case-insensitive substring search over the caller's own files and folders, excluding anything in the trash.
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        q       query     string  true   "Search text"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Page offset"
// @Success      200     {array}   models.Node
// @Failure      400     {object}  ErrorResponse
// @Router       /search [get]
func (s *Server) SearchHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	limit, offset, ok := pageParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit and offset must be integers")
		return
	}

	nodes, err := s.graph.Search(r.Context(), graph.SearchParams{
		CallerID: claims.UserID,
		Query:    r.URL.Query().Get("q"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nodes)
}
