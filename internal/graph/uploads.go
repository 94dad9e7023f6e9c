package graph

import (
	"context"
	"path"
	"strings"
	"time"

	"vaultify/internal/database"
	"vaultify/internal/models"
)

// PrepareUpload reserves a fresh blob path in the caller's namespace and
// returns a short-lived URL the client uploads the content to. The node
// itself is created afterwards with CreateNode.
func (s *Service) PrepareUpload(ctx context.Context, arg PrepareUploadParams) (*UploadTicket, error) {
	if arg.OwnerID == "" {
		return nil, errorf(ErrInvalidArgument, "owner is required")
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(arg.FileName), `\`, "/"))
	if name == "" || name == "." || name == ".." || name == "/" {
		return nil, errorf(ErrInvalidName, "invalid file name %q", arg.FileName)
	}
	if len([]rune(name)) > MaxNameLength {
		return nil, errorf(ErrInvalidName, "name is longer than %d characters", MaxNameLength)
	}

	blobPath := path.Join(arg.OwnerID, s.newBlobKey(), name)
	expiresAt := time.Now().Add(s.uploadTTL)
	url, err := s.blobs.PresignUpload(ctx, blobPath, s.uploadTTL)
	if err != nil {
		return nil, wrap("presign upload", err)
	}

	return &UploadTicket{Path: blobPath, URL: url, ExpiresAt: expiresAt}, nil
}

func (s *Service) DownloadURL(ctx context.Context, ref NodeRef) (*DownloadLink, error) {
	var node *models.Node
	err := s.read(ctx, func(q database.Querier) error {
		var err error
		node, _, err = loadViewable(ctx, q, ref.NodeID, ref.CallerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.presignDownload(ctx, node)
}

func (s *Service) PublicDownloadURL(ctx context.Context, token string) (*DownloadLink, error) {
	var node *models.Node
	err := s.read(ctx, func(q database.Querier) error {
		var err error
		node, err = resolveToken(ctx, q, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.presignDownload(ctx, node)
}

func (s *Service) presignDownload(ctx context.Context, node *models.Node) (*DownloadLink, error) {
	if node.IsFolder || node.Path == nil {
		return nil, errorf(ErrInvalidArgument, "%s is a folder", node.ID)
	}

	expiresAt := time.Now().Add(s.downloadTTL)
	url, err := s.blobs.PresignDownload(ctx, *node.Path, s.downloadTTL)
	if err != nil {
		return nil, wrap("presign download", err)
	}
	return &DownloadLink{URL: url, Name: node.Name, ExpiresAt: expiresAt}, nil
}
