package graph

import (
	"time"

	"vaultify/internal/database"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
	MaxNameLength   = 255
)

type CreateNodeParams struct {
	OwnerID   string
	Name      string
	ParentID  *string
	IsFolder  bool
	Path      *string
	MimeType  *string
	SizeBytes *int64
}

type ListChildrenParams struct {
	CallerID  string
	ParentID  *string
	SortKey   database.SortKey
	SortOrder database.SortOrder
	Limit     int
	Offset    int
}

type SearchParams struct {
	CallerID string
	Query    string
	Limit    int
	Offset   int
}

type ListParams struct {
	CallerID string
	Limit    int
	Offset   int
}

type RenameParams struct {
	NodeID   string
	CallerID string
	NewName  string
}

type MoveParams struct {
	NodeID      string
	CallerID    string
	NewParentID *string
}

type NodeRef struct {
	NodeID   string
	CallerID string
}

type CreateShareParams struct {
	ResourceID   string
	OwnerID      string
	GranteeEmail string
	Role         string
}

type ResourceRef struct {
	ResourceID string
	OwnerID    string
}

type RevokeShareParams struct {
	ShareID int64
	OwnerID string
}

type DeleteLinkShareParams struct {
	LinkID  uuid.UUID
	OwnerID string
}

type PrepareUploadParams struct {
	OwnerID  string
	FileName string
}

type UploadTicket struct {
	Path      string    `json:"path"`
	URL       string    `json:"signedUrl"`
	ExpiresAt time.Time `json:"expires_at"`
}

type DownloadLink struct {
	URL       string    `json:"downloadUrl"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

func page(limit, offset int) (int, int, error) {
	if offset < 0 {
		return 0, 0, errorf(ErrInvalidArgument, "offset must not be negative")
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return limit, offset, nil
}
