package graph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"vaultify/internal/database"
	"vaultify/internal/database/memory"
	"vaultify/internal/identity"
	"vaultify/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeBlobs struct {
	mu         sync.Mutex
	deleted    []string
	failDelete error
}

func (b *fakeBlobs) PresignUpload(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return "https://blobs.test/put/" + path, nil
}

func (b *fakeBlobs) PresignDownload(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return "https://blobs.test/get/" + path, nil
}

func (b *fakeBlobs) Delete(ctx context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failDelete != nil {
		return b.failDelete
	}
	b.deleted = append(b.deleted, path)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types(userID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.UserID == userID {
			out = append(out, e.EventType)
		}
	}
	return out
}

type testEnv struct {
	svc   *Service
	store *memory.Store
	blobs *fakeBlobs
	pub   *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	blobs := &fakeBlobs{}
	pub := &recordingPublisher{}
	svc, err := NewService(store, blobs, identity.NewDirectory(store, 16, time.Minute), Options{Publisher: pub})
	require.NoError(t, err)

	return &testEnv{svc: svc, store: store, blobs: blobs, pub: pub}
}

func (e *testEnv) createUser(t *testing.T, email string) string {
	t.Helper()

	var user *models.User
	err := e.store.ExecTx(context.Background(), func(q database.Querier) error {
		var err error
		user, err = q.CreateUser(context.Background(), database.CreateUserParams{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: "hash",
		})
		return err
	})
	require.NoError(t, err)
	return user.ID
}

func (e *testEnv) folder(t *testing.T, ownerID, name string, parentID *string) *models.Node {
	t.Helper()

	node, err := e.svc.CreateNode(context.Background(), CreateNodeParams{
		OwnerID:  ownerID,
		Name:     name,
		ParentID: parentID,
		IsFolder: true,
	})
	require.NoError(t, err)
	return node
}

func (e *testEnv) file(t *testing.T, ownerID, name string, parentID *string) *models.Node {
	t.Helper()

	path := ownerID + "/blob/" + name
	size := int64(len(name))
	mime := "application/octet-stream"
	node, err := e.svc.CreateNode(context.Background(), CreateNodeParams{
		OwnerID:   ownerID,
		Name:      name,
		ParentID:  parentID,
		Path:      &path,
		MimeType:  &mime,
		SizeBytes: &size,
	})
	require.NoError(t, err)
	return node
}

func names(nodes []models.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestNewService(t *testing.T) {
	store := memory.New()
	_, err := NewService(store, nil, identity.NewDirectory(store, 1, time.Minute), Options{})
	require.Error(t, err)

	svc, err := NewService(store, &fakeBlobs{}, identity.NewDirectory(store, 1, time.Minute), Options{})
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, svc.uploadTTL)
	require.Equal(t, 5*time.Minute, svc.downloadTTL)
	require.Len(t, svc.newNodeID(), nodeIDLength)
	require.Len(t, svc.newToken(), linkTokenLength)
}

func TestPage(t *testing.T) {
	limit, offset, err := page(0, 0)
	require.NoError(t, err)
	require.Equal(t, DefaultPageSize, limit)
	require.Equal(t, 0, offset)

	limit, _, err = page(MaxPageSize+1, 5)
	require.NoError(t, err)
	require.Equal(t, MaxPageSize, limit)

	_, _, err = page(10, -1)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestServiceErrorsKeepTheirKind(t *testing.T) {
	err := errorf(ErrNotFound, "node %s does not exist", "abc")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, "not found: node abc does not exist", err.Error())

	cause := errors.New("connection reset")
	err = wrap("load node", cause)
	require.ErrorIs(t, err, cause)
	require.False(t, errors.Is(err, ErrNotFound))
	require.True(t, strings.HasPrefix(err.Error(), "load node: "))
}
