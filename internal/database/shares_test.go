package database

import (
	"context"
	"testing"

	"vaultify/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUpsertShare(t *testing.T) {
	owner := createTestUser(t, "share_owner@example.com")
	grantee := createTestUser(t, "share_grantee@example.com")
	folder := createTestNode(t, CreateNodeParams{ID: "share_folder", OwnerID: owner.ID, Name: "Shared", IsFolder: true})

	first, err := testStore.UpsertShare(context.Background(), UpsertShareParams{ResourceID: folder.ID, GranteeID: grantee.ID, Role: models.RoleViewer, CreatedBy: owner.ID})
	require.NoError(t, err)
	require.Equal(t, models.RoleViewer, first.Role)

	second, err := testStore.UpsertShare(context.Background(), UpsertShareParams{ResourceID: folder.ID, GranteeID: grantee.ID, Role: models.RoleEditor, CreatedBy: owner.ID})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, models.RoleEditor, second.Role)

	shares, err := testStore.ListSharesByResource(context.Background(), folder.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, shares, 1)

	grants, err := testStore.ListGrants(context.Background(), grantee.ID, []string{"share_unrelated", folder.ID})
	require.NoError(t, err)
	require.Len(t, grants, 1)

	grants, err = testStore.ListGrants(context.Background(), grantee.ID, nil)
	require.NoError(t, err)
	require.Empty(t, grants)

	_, err = testStore.UpsertShare(context.Background(), UpsertShareParams{ResourceID: folder.ID, GranteeID: uuid.NewString(), Role: models.RoleViewer, CreatedBy: owner.ID})
	require.ErrorIs(t, err, ErrForeignKey)
}

func TestListSharedWithUser(t *testing.T) {
	owner := createTestUser(t, "sww_owner@example.com")
	grantee := createTestUser(t, "sww_grantee@example.com")
	file := createTestNode(t, CreateNodeParams{ID: "sww_file", OwnerID: owner.ID, Name: "a.txt", Path: strPtr("p/a")})
	folder := createTestNode(t, CreateNodeParams{ID: "sww_folder", OwnerID: owner.ID, Name: "Zed", IsFolder: true})
	trashed := createTestNode(t, CreateNodeParams{ID: "sww_trashed", OwnerID: owner.ID, Name: "b.txt", Path: strPtr("p/b")})

	for _, id := range []string{file.ID, folder.ID, trashed.ID} {
		_, err := testStore.UpsertShare(context.Background(), UpsertShareParams{ResourceID: id, GranteeID: grantee.ID, Role: models.RoleViewer, CreatedBy: owner.ID})
		require.NoError(t, err)
	}
	_, err := testStore.SetNodeTrashed(context.Background(), trashed.ID, true)
	require.NoError(t, err)

	nodes, err := testStore.ListSharedWithUser(context.Background(), ListNodesParams{UserID: grantee.ID, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []string{"sww_folder", "sww_file"}, nodeIDs(nodes))
}

func TestDeleteShare(t *testing.T) {
	owner := createTestUser(t, "del_share_owner@example.com")
	grantee := createTestUser(t, "del_share_grantee@example.com")
	node := createTestNode(t, CreateNodeParams{ID: "del_share_node", OwnerID: owner.ID, Name: "n", IsFolder: true})

	share, err := testStore.UpsertShare(context.Background(), UpsertShareParams{ResourceID: node.ID, GranteeID: grantee.ID, Role: models.RoleViewer, CreatedBy: owner.ID})
	require.NoError(t, err)

	ok, err := testStore.DeleteShare(context.Background(), share.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = testStore.DeleteShare(context.Background(), share.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLinkShares(t *testing.T) {
	owner := createTestUser(t, "link_owner@example.com")
	node := createTestNode(t, CreateNodeParams{ID: "link_node", OwnerID: owner.ID, Name: "pub", IsFolder: true})

	link, err := testStore.CreateLinkShare(context.Background(), CreateLinkShareParams{ID: uuid.New(), ResourceID: node.ID, Token: "token-link-shares-0001", CreatedBy: owner.ID})
	require.NoError(t, err)

	_, err = testStore.CreateLinkShare(context.Background(), CreateLinkShareParams{ID: uuid.New(), ResourceID: node.ID, Token: link.Token, CreatedBy: owner.ID})
	require.ErrorIs(t, err, ErrDuplicateToken)

	_, err = testStore.CreateLinkShare(context.Background(), CreateLinkShareParams{ID: uuid.New(), ResourceID: "link_missing", Token: "token-link-shares-0002", CreatedBy: owner.ID})
	require.ErrorIs(t, err, ErrForeignKey)

	byToken, err := testStore.GetLinkShareByToken(context.Background(), link.Token)
	require.NoError(t, err)
	require.Equal(t, link.ID, byToken.ID)

	byResource, err := testStore.GetLinkShareByResource(context.Background(), node.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, link.ID, byResource.ID)

	ok, err := testStore.DeleteLinkShare(context.Background(), link.ID)
	require.NoError(t, err)
	require.True(t, ok)

	gone, err := testStore.GetLinkShare(context.Background(), link.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}
