// Package graph implements the resource graph: the tree of files and folders
// owned by users, its trash lifecycle, and the grants that share parts of it.
//
// Every operation takes the caller's identity explicitly and runs in a single
// datastore transaction. Structural changes additionally hold the owner's
// tree lock, so the ancestor walks behind the cycle and access checks see a
// tree nobody else is reshaping.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vaultify/internal/database"
	"vaultify/internal/logging"
	"vaultify/internal/models"
	"vaultify/internal/storage"

	"github.com/jaevor/go-nanoid"
)

const (
	nodeIDLength    = 21
	linkTokenLength = 32
	blobKeyLength   = 21

	maxIDAttempts = 10
)

// Directory resolves users. Lookups return nil for unknown users.
type Directory interface {
	LookupByEmail(ctx context.Context, email string) (*models.Grantee, error)
	LookupByID(ctx context.Context, id string) (*models.Grantee, error)
}

type Options struct {
	UploadTTL   time.Duration
	DownloadTTL time.Duration
	Publisher   Publisher
	Logger      logging.Logger
}

type Service struct {
	store       database.Store
	blobs       storage.BlobStore
	identity    Directory
	publisher   Publisher
	logger      logging.Logger
	uploadTTL   time.Duration
	downloadTTL time.Duration

	newNodeID  func() string
	newToken   func() string
	newBlobKey func() string
}

func NewService(store database.Store, blobs storage.BlobStore, identity Directory, opts Options) (*Service, error) {
	if store == nil || blobs == nil || identity == nil {
		return nil, errors.New("graph: store, blob store and identity directory are required")
	}

	nodeIDs, err := nanoid.Standard(nodeIDLength)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}
	tokens, err := nanoid.Standard(linkTokenLength)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}
	blobKeys, err := nanoid.Standard(blobKeyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	s := &Service{
		store:       store,
		blobs:       blobs,
		identity:    identity,
		publisher:   opts.Publisher,
		logger:      opts.Logger,
		uploadTTL:   opts.UploadTTL,
		downloadTTL: opts.DownloadTTL,
		newNodeID:   nodeIDs,
		newToken:    tokens,
		newBlobKey:  blobKeys,
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	if s.uploadTTL <= 0 {
		s.uploadTTL = 15 * time.Minute
	}
	if s.downloadTTL <= 0 {
		s.downloadTTL = 5 * time.Minute
	}
	return s, nil
}

func errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// read runs fn in a transaction that records nothing.
func (s *Service) read(ctx context.Context, fn func(q database.Querier) error) error {
	return s.store.ExecTx(ctx, fn)
}

// mutate runs fn in a transaction and publishes the events it journaled once
// the transaction has committed.
func (s *Service) mutate(ctx context.Context, fn func(q database.Querier, j *journal) error) error {
	var j *journal
	err := s.store.ExecTx(ctx, func(q database.Querier) error {
		j = &journal{q: q}
		return fn(q, j)
	})
	if err != nil {
		return err
	}

	for _, event := range j.events {
		s.publisher.Publish(ctx, event)
	}
	return nil
}

func (s *Service) generateUniqueID(ctx context.Context, q database.Querier) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newNodeID()
		exists, err := q.NodeExists(ctx, id)
		if err != nil {
			return "", wrap("check node id", err)
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique ID after %d attempts", maxIDAttempts)
}
