package api

import (
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"

	"vaultify/internal/storage"

	"github.com/go-chi/chi/v5"
)

// maxBlobSize caps a single upload through the local blob driver.
const maxBlobSize = 1 << 30

type BlobUploadResponse struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// @Summary      Upload blob content
// @Description  Target of the signed upload URL when blobs are stored on local disk. The token pins the path.
// @Tags         blobs
// @Accept       octet-stream
// @Produce      json
// @Param        token  path      string  true  "Signed token"
// @Success      201    {object}  BlobUploadResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      413    {object}  ErrorResponse
// @Router       /blobs/{token} [put]
func (s *Server) PutBlobHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := s.localBlobs.Verify(chi.URLParam(r, "token"), storage.BlobOpUpload)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired upload URL")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBlobSize)
	size, err := s.localBlobs.Files().Save(claims.Path, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		s.logger.Error(r.Context(), "save blob", "path", claims.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	writeJSON(w, http.StatusCreated, BlobUploadResponse{Path: claims.Path, Size: size})
}

// @Summary      Download blob content
// @Description  Target of the signed download URL when blobs are stored on local disk.
// @Tags         blobs
// @Produce      octet-stream
// @Param        token  path      string  true  "Signed token"
// @Success      200    {file}    file
// @Failure      401    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Router       /blobs/{token} [get]
func (s *Server) GetBlobHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := s.localBlobs.Verify(chi.URLParam(r, "token"), storage.BlobOpDownload)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired download URL")
		return
	}

	fileStream, err := s.localBlobs.Files().Get(claims.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "File not found on storage")
			return
		}
		s.logger.Error(r.Context(), "open blob", "path", claims.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	defer fileStream.Close()

	name := path.Base(claims.Path)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))

	if _, err := io.Copy(w, fileStream); err != nil {
		s.logger.Warn(r.Context(), "stream blob", "path", claims.Path, "error", err)
	}
}
