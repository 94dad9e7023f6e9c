package models

import "time"

const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
)

type Share struct {
	ID         int64     `json:"id"`
	ResourceID string    `json:"resource_id"`
	GranteeID  string    `json:"grantee_id"`
	Role       string    `json:"role"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type Grantee struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type ShareWithGrantee struct {
	ID      int64   `json:"id"`
	Role    string  `json:"role"`
	Grantee Grantee `json:"grantee"`
}
