package storage

import (
	"context"
	"errors"
	"time"
)

// BlobStore hands out time-limited URLs for a caller-chosen path and deletes
// objects by path. Delete of a missing object is not an error.
type BlobStore interface {
	PresignUpload(ctx context.Context, path string, ttl time.Duration) (string, error)
	PresignDownload(ctx context.Context, path string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, path string) error
}

var ErrInvalidPath = errors.New("invalid blob path")
