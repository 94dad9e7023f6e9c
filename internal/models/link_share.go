package models

import (
	"time"

	"github.com/google/uuid"
)

type LinkShare struct {
	ID         uuid.UUID `json:"id"`
	ResourceID string    `json:"resource_id"`
	Token      string    `json:"token"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}
