package models

import "time"

type Node struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ParentID  *string   `json:"parent_id"`
	Name      string    `json:"name"`
	IsFolder  bool      `json:"is_folder"`
	Path      *string   `json:"path"`
	MimeType  *string   `json:"mime_type"`
	SizeBytes *int64    `json:"size_bytes"`
	IsStarred bool      `json:"is_starred"`
	IsTrashed bool      `json:"is_trashed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
