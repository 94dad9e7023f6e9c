package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"vaultify/internal/database"
	"vaultify/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, s *Store, email string) *models.User {
	var user *models.User
	err := s.ExecTx(context.Background(), func(q database.Querier) error {
		var err error
		user, err = q.CreateUser(context.Background(), database.CreateUserParams{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: "hash",
		})
		return err
	})
	require.NoError(t, err)
	return user
}

func createTestNode(t *testing.T, s *Store, params database.CreateNodeParams) *models.Node {
	var node *models.Node
	err := s.ExecTx(context.Background(), func(q database.Querier) error {
		var err error
		node, err = q.CreateNode(context.Background(), params)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, node)
	return node
}

func size(n int64) *int64 { return &n }

func TestExecTxRollsBackOnError(t *testing.T) {
	s := New()
	owner := createTestUser(t, s, "rollback@example.com")
	boom := errors.New("boom")

	err := s.ExecTx(context.Background(), func(q database.Querier) error {
		_, err := q.CreateNode(context.Background(), database.CreateNodeParams{ID: "rb_folder", OwnerID: owner.ID, Name: "Folder", IsFolder: true})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.ExecTx(context.Background(), func(q database.Querier) error {
		exists, err := q.NodeExists(context.Background(), "rb_folder")
		require.NoError(t, err)
		require.False(t, exists)
		return nil
	})
	require.NoError(t, err)
}

func TestExecTxHonoursCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.ExecTx(ctx, func(q database.Querier) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestCreateNodeForeignKeys(t *testing.T) {
	s := New()
	owner := createTestUser(t, s, "fk@example.com")
	missing := "missing_parent"

	err := s.ExecTx(context.Background(), func(q database.Querier) error {
		_, err := q.CreateNode(context.Background(), database.CreateNodeParams{ID: "a", OwnerID: uuid.NewString(), Name: "x", IsFolder: true})
		return err
	})
	require.ErrorIs(t, err, database.ErrForeignKey)

	err = s.ExecTx(context.Background(), func(q database.Querier) error {
		_, err := q.CreateNode(context.Background(), database.CreateNodeParams{ID: "a", OwnerID: owner.ID, ParentID: &missing, Name: "x", IsFolder: true})
		return err
	})
	require.ErrorIs(t, err, database.ErrForeignKey)

	createTestNode(t, s, database.CreateNodeParams{ID: "a", OwnerID: owner.ID, Name: "x", IsFolder: true})
	err = s.ExecTx(context.Background(), func(q database.Querier) error {
		_, err := q.CreateNode(context.Background(), database.CreateNodeParams{ID: "a", OwnerID: owner.ID, Name: "y", IsFolder: true})
		return err
	})
	require.ErrorIs(t, err, database.ErrDuplicateNodeID)
}

func TestListChildrenSortingAndPaging(t *testing.T) {
	s := New()
	owner := createTestUser(t, s, "sort@example.com")
	root := createTestNode(t, s, database.CreateNodeParams{ID: "sort_root", OwnerID: owner.ID, Name: "Root", IsFolder: true})
	createTestNode(t, s, database.CreateNodeParams{ID: "c", OwnerID: owner.ID, ParentID: &root.ID, Name: "beta.txt", Path: strPtr("p/c"), SizeBytes: size(30)})
	createTestNode(t, s, database.CreateNodeParams{ID: "b", OwnerID: owner.ID, ParentID: &root.ID, Name: "Alpha", IsFolder: true})
	createTestNode(t, s, database.CreateNodeParams{ID: "a", OwnerID: owner.ID, ParentID: &root.ID, Name: "alpha", Path: strPtr("p/a"), SizeBytes: size(10)})

	list := func(key database.SortKey, order database.SortOrder, limit, offset int) []string {
		var ids []string
		err := s.ExecTx(context.Background(), func(q database.Querier) error {
			nodes, err := q.ListChildren(context.Background(), database.ListChildrenParams{
				OwnerID: owner.ID, ParentID: &root.ID, SortKey: key, SortOrder: order, Limit: limit, Offset: offset,
			})
			for _, n := range nodes {
				ids = append(ids, n.ID)
			}
			return err
		})
		require.NoError(t, err)
		return ids
	}

	// "Alpha" and "alpha" tie case-insensitively, so id breaks the tie.
	require.Equal(t, []string{"a", "b", "c"}, list(database.SortByName, database.SortAsc, 10, 0))
	require.Equal(t, []string{"c", "a", "b"}, list(database.SortByName, database.SortDesc, 10, 0))
	// Folders have no size and sort as zero.
	require.Equal(t, []string{"b", "a", "c"}, list(database.SortBySize, database.SortAsc, 10, 0))
	require.Equal(t, []string{"a", "b", "c"}, list(database.SortByUpdatedAt, database.SortDesc, 10, 0))
	require.Equal(t, []string{"c", "b", "a"}, list(database.SortByUpdatedAt, database.SortAsc, 10, 0))
	require.Equal(t, []string{"b"}, list(database.SortByName, database.SortAsc, 1, 1))
	require.Empty(t, list(database.SortByName, database.SortAsc, 10, 5))

	err := s.ExecTx(context.Background(), func(q database.Querier) error {
		_, err := q.ListChildren(context.Background(), database.ListChildrenParams{
			OwnerID: owner.ID, ParentID: &root.ID, SortKey: "owner_id", SortOrder: database.SortAsc, Limit: 10,
		})
		return err
	})
	require.ErrorIs(t, err, database.ErrInvalidSort)
}

func TestTrashedAncestorHidesDescendants(t *testing.T) {
	s := New()
	owner := createTestUser(t, s, "hidden@example.com")
	folder := createTestNode(t, s, database.CreateNodeParams{ID: "hidden_folder", OwnerID: owner.ID, Name: "Folder", IsFolder: true})
	createTestNode(t, s, database.CreateNodeParams{ID: "hidden_file", OwnerID: owner.ID, ParentID: &folder.ID, Name: "report.pdf", Path: strPtr("p/r")})

	search := func() []models.Node {
		var nodes []models.Node
		err := s.ExecTx(context.Background(), func(q database.Querier) error {
			var err error
			nodes, err = q.SearchNodes(context.Background(), database.SearchNodesParams{OwnerID: owner.ID, Query: "REPORT", Limit: 10})
			return err
		})
		require.NoError(t, err)
		return nodes
	}

	require.Len(t, search(), 1)

	err := s.ExecTx(context.Background(), func(q database.Querier) error {
		_, err := q.SetNodeTrashed(context.Background(), folder.ID, true)
		return err
	})
	require.NoError(t, err)
	require.Empty(t, search())

	err = s.ExecTx(context.Background(), func(q database.Querier) error {
		trash, err := q.ListTrash(context.Background(), database.ListNodesParams{UserID: owner.ID, Limit: 10})
		require.NoError(t, err)
		require.Len(t, trash, 1)
		require.Equal(t, folder.ID, trash[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestDeleteNodesCascades(t *testing.T) {
	s := New()
	owner := createTestUser(t, s, "cascade@example.com")
	grantee := createTestUser(t, s, "grantee@example.com")
	folder := createTestNode(t, s, database.CreateNodeParams{ID: "cascade_folder", OwnerID: owner.ID, Name: "Folder", IsFolder: true})
	sub := createTestNode(t, s, database.CreateNodeParams{ID: "cascade_sub", OwnerID: owner.ID, ParentID: &folder.ID, Name: "Sub", IsFolder: true})
	createTestNode(t, s, database.CreateNodeParams{ID: "cascade_file", OwnerID: owner.ID, ParentID: &sub.ID, Name: "f", Path: strPtr("p/f")})

	var share *models.Share
	var link *models.LinkShare
	err := s.ExecTx(context.Background(), func(q database.Querier) error {
		var err error
		share, err = q.UpsertShare(context.Background(), database.UpsertShareParams{ResourceID: sub.ID, GranteeID: grantee.ID, Role: models.RoleViewer, CreatedBy: owner.ID})
		if err != nil {
			return err
		}
		link, err = q.CreateLinkShare(context.Background(), database.CreateLinkShareParams{ID: uuid.New(), ResourceID: sub.ID, Token: "tok", CreatedBy: owner.ID})
		return err
	})
	require.NoError(t, err)

	err = s.ExecTx(context.Background(), func(q database.Querier) error {
		subtree, err := q.ListSubtree(context.Background(), folder.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"cascade_folder", "cascade_sub", "cascade_file"}, []string{subtree[0].ID, subtree[1].ID, subtree[2].ID})

		deleted, err := q.DeleteNodes(context.Background(), []string{folder.ID})
		require.NoError(t, err)
		require.EqualValues(t, 1, deleted)

		exists, err := q.NodeExists(context.Background(), "cascade_file")
		require.NoError(t, err)
		require.False(t, exists)

		gotShare, err := q.GetShare(context.Background(), share.ID)
		require.NoError(t, err)
		require.Nil(t, gotShare)

		gotLink, err := q.GetLinkShare(context.Background(), link.ID)
		require.NoError(t, err)
		require.Nil(t, gotLink)
		return nil
	})
	require.NoError(t, err)
}

func TestUpsertShareUpdatesRole(t *testing.T) {
	s := New()
	owner := createTestUser(t, s, "owner@example.com")
	grantee := createTestUser(t, s, "friend@example.com")
	node := createTestNode(t, s, database.CreateNodeParams{ID: "upsert_node", OwnerID: owner.ID, Name: "Docs", IsFolder: true})

	err := s.ExecTx(context.Background(), func(q database.Querier) error {
		first, err := q.UpsertShare(context.Background(), database.UpsertShareParams{ResourceID: node.ID, GranteeID: grantee.ID, Role: models.RoleViewer, CreatedBy: owner.ID})
		require.NoError(t, err)
		second, err := q.UpsertShare(context.Background(), database.UpsertShareParams{ResourceID: node.ID, GranteeID: grantee.ID, Role: models.RoleEditor, CreatedBy: owner.ID})
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)
		require.Equal(t, models.RoleEditor, second.Role)

		shares, err := q.ListSharesByResource(context.Background(), node.ID, owner.ID)
		require.NoError(t, err)
		require.Len(t, shares, 1)

		shared, err := q.ListSharedWithUser(context.Background(), database.ListNodesParams{UserID: grantee.ID, Limit: 10})
		require.NoError(t, err)
		require.Len(t, shared, 1)
		require.Equal(t, node.ID, shared[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestLinkShareTokenIsUnique(t *testing.T) {
	s := New()
	owner := createTestUser(t, s, "links@example.com")
	node := createTestNode(t, s, database.CreateNodeParams{ID: "link_node", OwnerID: owner.ID, Name: "Docs", IsFolder: true})

	err := s.ExecTx(context.Background(), func(q database.Querier) error {
		_, err := q.CreateLinkShare(context.Background(), database.CreateLinkShareParams{ID: uuid.New(), ResourceID: node.ID, Token: "same", CreatedBy: owner.ID})
		require.NoError(t, err)
		_, err = q.CreateLinkShare(context.Background(), database.CreateLinkShareParams{ID: uuid.New(), ResourceID: node.ID, Token: "same", CreatedBy: owner.ID})
		return err
	})
	require.ErrorIs(t, err, database.ErrDuplicateToken)
}

func TestSessionsAndEvents(t *testing.T) {
	s := New()
	user := createTestUser(t, s, "session@example.com")

	err := s.ExecTx(context.Background(), func(q database.Querier) error {
		require.NoError(t, q.CreateSession(context.Background(), database.CreateSessionParams{
			ID: uuid.New(), UserID: user.ID, RefreshToken: "live", ExpiresAt: time.Now().Add(time.Hour),
		}))
		require.NoError(t, q.CreateSession(context.Background(), database.CreateSessionParams{
			ID: uuid.New(), UserID: user.ID, RefreshToken: "stale", ExpiresAt: time.Now().Add(-time.Hour),
		}))

		found, err := q.GetUserByRefreshToken(context.Background(), "live")
		require.NoError(t, err)
		require.NotNil(t, found)
		require.Equal(t, user.ID, found.ID)

		found, err = q.GetUserByRefreshToken(context.Background(), "stale")
		require.NoError(t, err)
		require.Nil(t, found)

		sessions, err := q.ListSessionsForUser(context.Background(), user.ID)
		require.NoError(t, err)
		require.Len(t, sessions, 1)

		first, err := q.LogEvent(context.Background(), user.ID, "node_created", map[string]string{"id": "x"})
		require.NoError(t, err)
		second, err := q.LogEvent(context.Background(), user.ID, "node_renamed", map[string]string{"id": "x"})
		require.NoError(t, err)

		events, err := q.GetEventsSince(context.Background(), user.ID, first.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, second.ID, events[0].ID)
		require.JSONEq(t, `{"id":"x"}`, string(events[0].Payload))
		return nil
	})
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }
