package graph

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"vaultify/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateShare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")
	carol := env.createUser(t, "carol@example.com")

	f := env.folder(t, alice, "F", nil)

	_, err := env.svc.CreateShare(ctx, CreateShareParams{ResourceID: f.ID, OwnerID: alice, GranteeEmail: "a@x.com", Role: models.RoleViewer})
	require.ErrorIs(t, err, ErrGranteeNotFound)

	_, err = env.svc.CreateShare(ctx, CreateShareParams{ResourceID: f.ID, OwnerID: alice, GranteeEmail: "bob@example.com", Role: "admin"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.svc.CreateShare(ctx, CreateShareParams{ResourceID: f.ID, OwnerID: alice, GranteeEmail: "alice@example.com", Role: models.RoleViewer})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.svc.CreateShare(ctx, CreateShareParams{ResourceID: "missing", OwnerID: alice, GranteeEmail: "bob@example.com", Role: models.RoleViewer})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.CreateShare(ctx, CreateShareParams{ResourceID: f.ID, OwnerID: carol, GranteeEmail: "bob@example.com", Role: models.RoleViewer})
	require.ErrorIs(t, err, ErrForbidden)

	share, err := env.svc.CreateShare(ctx, CreateShareParams{ResourceID: f.ID, OwnerID: alice, GranteeEmail: " Bob@Example.com ", Role: "Viewer"})
	require.NoError(t, err)
	require.Equal(t, bob, share.GranteeID)
	require.Equal(t, models.RoleViewer, share.Role)
	require.Equal(t, alice, share.CreatedBy)

	again, err := env.svc.CreateShare(ctx, CreateShareParams{ResourceID: f.ID, OwnerID: alice, GranteeEmail: "bob@example.com", Role: models.RoleEditor})
	require.NoError(t, err)
	require.Equal(t, share.ID, again.ID)
	require.Equal(t, models.RoleEditor, again.Role)

	_, err = env.svc.CreateShare(ctx, CreateShareParams{ResourceID: f.ID, OwnerID: alice, GranteeEmail: "carol@example.com", Role: models.RoleViewer})
	require.NoError(t, err)

	shares, err := env.svc.ListShares(ctx, ResourceRef{ResourceID: f.ID, OwnerID: alice})
	require.NoError(t, err)
	require.Equal(t, []models.ShareWithGrantee{
		{ID: share.ID, Role: models.RoleEditor, Grantee: models.Grantee{ID: bob, Email: "bob@example.com"}},
		{ID: share.ID + 1, Role: models.RoleViewer, Grantee: models.Grantee{ID: carol, Email: "carol@example.com"}},
	}, shares)

	_, err = env.svc.ListShares(ctx, ResourceRef{ResourceID: f.ID, OwnerID: bob})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.ListShares(ctx, ResourceRef{ResourceID: "missing", OwnerID: alice})
	require.ErrorIs(t, err, ErrNotFound)

	sharedWithBob, err := env.svc.ListSharedWithMe(ctx, ListParams{CallerID: bob})
	require.NoError(t, err)
	require.Equal(t, []string{"F"}, names(sharedWithBob))
}

func TestRevokeShare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")

	f := env.folder(t, alice, "F", nil)
	share, err := env.svc.CreateShare(ctx, CreateShareParams{ResourceID: f.ID, OwnerID: alice, GranteeEmail: "bob@example.com", Role: models.RoleViewer})
	require.NoError(t, err)

	_, err = env.svc.GetNode(ctx, NodeRef{NodeID: f.ID, CallerID: bob})
	require.NoError(t, err)

	err = env.svc.RevokeShare(ctx, RevokeShareParams{ShareID: share.ID, OwnerID: bob})
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.svc.RevokeShare(ctx, RevokeShareParams{ShareID: share.ID, OwnerID: alice}))

	err = env.svc.RevokeShare(ctx, RevokeShareParams{ShareID: share.ID, OwnerID: alice})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.GetNode(ctx, NodeRef{NodeID: f.ID, CallerID: bob})
	require.ErrorIs(t, err, ErrForbidden)

	require.Contains(t, env.pub.types(bob), EventShareRevoked)
}

func TestLinkShares(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")

	docs := env.folder(t, alice, "Docs", nil)
	report := env.file(t, alice, "report.pdf", &docs.ID)

	none, err := env.svc.GetLinkShare(ctx, ResourceRef{ResourceID: report.ID, OwnerID: alice})
	require.NoError(t, err)
	require.Nil(t, none)

	_, err = env.svc.CreateLinkShare(ctx, ResourceRef{ResourceID: report.ID, OwnerID: bob})
	require.ErrorIs(t, err, ErrForbidden)

	link, err := env.svc.CreateLinkShare(ctx, ResourceRef{ResourceID: report.ID, OwnerID: alice})
	require.NoError(t, err)
	require.Len(t, link.Token, linkTokenLength)
	require.Equal(t, report.ID, link.ResourceID)

	same, err := env.svc.CreateLinkShare(ctx, ResourceRef{ResourceID: report.ID, OwnerID: alice})
	require.NoError(t, err)
	require.Equal(t, link.Token, same.Token)

	got, err := env.svc.GetLinkShare(ctx, ResourceRef{ResourceID: report.ID, OwnerID: alice})
	require.NoError(t, err)
	require.Equal(t, link.ID, got.ID)

	resolved, err := env.svc.ResolvePublicToken(ctx, link.Token)
	require.NoError(t, err)
	require.Equal(t, report.ID, resolved.ID)

	renamed, err := env.svc.Rename(ctx, RenameParams{NodeID: report.ID, CallerID: alice, NewName: "final.pdf"})
	require.NoError(t, err)
	resolved, err = env.svc.ResolvePublicToken(ctx, link.Token)
	require.NoError(t, err)
	require.Equal(t, renamed.Name, resolved.Name)

	_, err = env.svc.Trash(ctx, NodeRef{NodeID: docs.ID, CallerID: alice})
	require.NoError(t, err)
	_, err = env.svc.ResolvePublicToken(ctx, link.Token)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.Restore(ctx, NodeRef{NodeID: docs.ID, CallerID: alice})
	require.NoError(t, err)
	_, err = env.svc.ResolvePublicToken(ctx, link.Token)
	require.NoError(t, err)

	err = env.svc.DeleteLinkShare(ctx, DeleteLinkShareParams{LinkID: link.ID, OwnerID: bob})
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.svc.DeleteLinkShare(ctx, DeleteLinkShareParams{LinkID: link.ID, OwnerID: alice}))

	_, err = env.svc.ResolvePublicToken(ctx, link.Token)
	require.ErrorIs(t, err, ErrNotFound)

	err = env.svc.DeleteLinkShare(ctx, DeleteLinkShareParams{LinkID: link.ID, OwnerID: alice})
	require.ErrorIs(t, err, ErrNotFound)

	err = env.svc.DeleteLinkShare(ctx, DeleteLinkShareParams{LinkID: uuid.New(), OwnerID: alice})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.ResolvePublicToken(ctx, "")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = env.svc.ResolvePublicToken(ctx, "no-such-token")
	require.ErrorIs(t, err, ErrNotFound)

	fresh, err := env.svc.CreateLinkShare(ctx, ResourceRef{ResourceID: report.ID, OwnerID: alice})
	require.NoError(t, err)
	require.NotEqual(t, link.Token, fresh.Token)
}

func TestUploadsAndDownloads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")

	ticket, err := env.svc.PrepareUpload(ctx, PrepareUploadParams{OwnerID: alice, FileName: "../../etc/q1.pdf"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ticket.Path, alice+"/"))
	require.True(t, strings.HasSuffix(ticket.Path, "/q1.pdf"))
	require.Len(t, strings.Split(ticket.Path, "/"), 3)
	require.Equal(t, "https://blobs.test/put/"+ticket.Path, ticket.URL)
	require.False(t, ticket.ExpiresAt.IsZero())

	other, err := env.svc.PrepareUpload(ctx, PrepareUploadParams{OwnerID: alice, FileName: "q1.pdf"})
	require.NoError(t, err)
	require.NotEqual(t, ticket.Path, other.Path)

	for _, name := range []string{"", "  ", "..", "/", `dir\..`} {
		_, err = env.svc.PrepareUpload(ctx, PrepareUploadParams{OwnerID: alice, FileName: name})
		require.ErrorIs(t, err, ErrInvalidName, name)
	}

	size := int64(1024)
	mime := "application/pdf"
	f, err := env.svc.CreateNode(ctx, CreateNodeParams{OwnerID: alice, Name: "q1.pdf", Path: &ticket.Path, MimeType: &mime, SizeBytes: &size})
	require.NoError(t, err)

	link, err := env.svc.DownloadURL(ctx, NodeRef{NodeID: f.ID, CallerID: alice})
	require.NoError(t, err)
	require.Equal(t, "https://blobs.test/get/"+ticket.Path, link.URL)
	require.Equal(t, "q1.pdf", link.Name)

	_, err = env.svc.DownloadURL(ctx, NodeRef{NodeID: f.ID, CallerID: bob})
	require.ErrorIs(t, err, ErrForbidden)

	folder := env.folder(t, alice, "dir", nil)
	_, err = env.svc.DownloadURL(ctx, NodeRef{NodeID: folder.ID, CallerID: alice})
	require.ErrorIs(t, err, ErrInvalidArgument)

	share, err := env.svc.CreateLinkShare(ctx, ResourceRef{ResourceID: f.ID, OwnerID: alice})
	require.NoError(t, err)
	public, err := env.svc.PublicDownloadURL(ctx, share.Token)
	require.NoError(t, err)
	require.Equal(t, link.URL, public.URL)

	_, err = env.svc.PublicDownloadURL(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEventsArePublishedAfterCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com")
	bob := env.createUser(t, "bob@example.com")

	f := env.folder(t, alice, "F", nil)
	_, err := env.svc.Rename(ctx, RenameParams{NodeID: f.ID, CallerID: alice, NewName: "G"})
	require.NoError(t, err)
	_, err = env.svc.CreateShare(ctx, CreateShareParams{ResourceID: f.ID, OwnerID: alice, GranteeEmail: "bob@example.com", Role: models.RoleViewer})
	require.NoError(t, err)

	_, err = env.svc.Move(ctx, MoveParams{NodeID: f.ID, CallerID: alice, NewParentID: &f.ID})
	require.Error(t, err)

	require.Equal(t, []string{EventNodeCreated, EventNodeRenamed, EventShareCreated}, env.pub.types(alice))
	require.Equal(t, []string{EventShareCreated}, env.pub.types(bob))

	last := env.pub.events[len(env.pub.events)-1]
	var payload shareEvent
	require.NoError(t, json.Unmarshal(last.Payload, &payload))
	require.Equal(t, f.ID, payload.ResourceID)
	require.Equal(t, bob, payload.GranteeID)
}
