package api

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"vaultify/internal/graph"
	"vaultify/internal/models"

	"github.com/stretchr/testify/require"
)

func TestShareLifecycle(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice@example.com")
	bob := env.signup(t, "bob@example.com")

	team := env.createFolder(t, alice.AccessToken, "Team", nil)
	env.uploadFile(t, alice.AccessToken, "plan.md", "# plan", &team.ID)

	rr := env.do(t, http.MethodPost, "/api/shares", alice.AccessToken, ShareRequest{
		ResourceID:   team.ID,
		GranteeEmail: "nobody@example.com",
		Role:         "viewer",
	})
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, errorMessage(t, rr), "grantee not found")

	rr = env.do(t, http.MethodPost, "/api/shares", alice.AccessToken, ShareRequest{
		ResourceID:   team.ID,
		GranteeEmail: "bob@example.com",
		Role:         "owner",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/shares", bob.AccessToken, ShareRequest{
		ResourceID:   team.ID,
		GranteeEmail: "alice@example.com",
		Role:         "viewer",
	})
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/shares", alice.AccessToken, ShareRequest{
		ResourceID:   team.ID,
		GranteeEmail: " Bob@Example.com ",
		Role:         "Viewer",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var share models.Share
	decode(t, rr, &share)
	require.Equal(t, bob.User.ID, share.GranteeID)
	require.Equal(t, models.RoleViewer, share.Role)

	rr = env.do(t, http.MethodGet, "/api/meta/shared", bob.AccessToken, nil)
	var shared []models.Node
	decode(t, rr, &shared)
	require.Equal(t, []string{"Team"}, nodeNames(shared))
	require.Equal(t, []string{"plan.md"}, nodeNames(env.list(t, bob.AccessToken, "?parentId="+team.ID)))

	// Viewers cannot add to the folder.
	rr = env.do(t, http.MethodPost, "/api/files", bob.AccessToken, CreateFolderRequest{Name: "bob's", ParentID: &team.ID})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/shares", alice.AccessToken, ShareRequest{
		ResourceID:   team.ID,
		GranteeEmail: "bob@example.com",
		Role:         "editor",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var upgraded models.Share
	decode(t, rr, &upgraded)
	require.Equal(t, share.ID, upgraded.ID)
	require.Equal(t, models.RoleEditor, upgraded.Role)

	env.createFolder(t, bob.AccessToken, "bob's", &team.ID)

	rr = env.do(t, http.MethodGet, "/api/shares/"+team.ID, alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var grants []models.ShareWithGrantee
	decode(t, rr, &grants)
	require.Len(t, grants, 1)
	require.Equal(t, models.ShareWithGrantee{
		ID:      share.ID,
		Role:    models.RoleEditor,
		Grantee: models.Grantee{ID: bob.User.ID, Email: "bob@example.com"},
	}, grants[0])

	rr = env.do(t, http.MethodGet, "/api/shares/"+team.ID, bob.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/shares/abc", alice.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	path := "/api/shares/" + strconv.FormatInt(share.ID, 10)
	rr = env.do(t, http.MethodDelete, path, bob.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodDelete, path, alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var msg MessageResponse
	decode(t, rr, &msg)
	require.Equal(t, "Access revoked.", msg.Message)

	rr = env.do(t, http.MethodDelete, path, alice.AccessToken, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/files/"+team.ID, bob.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestPublicLinks(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice@example.com").AccessToken
	bob := env.signup(t, "bob@example.com").AccessToken

	f := env.uploadFile(t, alice, "public.txt", "for everyone", nil)

	rr := env.do(t, http.MethodGet, "/api/shares/link/"+f.ID, alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "null", strings.TrimSpace(rr.Body.String()))

	rr = env.do(t, http.MethodPost, "/api/shares/link", bob, LinkShareRequest{ResourceID: f.ID})
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/shares/link", alice, LinkShareRequest{ResourceID: f.ID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var link models.LinkShare
	decode(t, rr, &link)
	require.NotEmpty(t, link.Token)

	rr = env.do(t, http.MethodPost, "/api/shares/link", alice, LinkShareRequest{ResourceID: f.ID})
	var again models.LinkShare
	decode(t, rr, &again)
	require.Equal(t, link.ID, again.ID)
	require.Equal(t, link.Token, again.Token)

	rr = env.do(t, http.MethodGet, "/api/shares/link/"+f.ID, alice, nil)
	var current models.LinkShare
	decode(t, rr, &current)
	require.Equal(t, link.ID, current.ID)

	rr = env.do(t, http.MethodGet, "/api/shares/public/"+link.Token, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resolved models.Node
	decode(t, rr, &resolved)
	require.Equal(t, f.ID, resolved.ID)

	rr = env.do(t, http.MethodGet, "/api/shares/public/"+link.Token+"/download", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var dl graph.DownloadLink
	decode(t, rr, &dl)
	req := httptest.NewRequest(http.MethodGet, strings.TrimPrefix(dl.URL, testPublicURL), nil)
	got := httptest.NewRecorder()
	env.handler.ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)
	require.Equal(t, "for everyone", got.Body.String())

	// Trashing the target hides the link without deleting it.
	rr = env.do(t, http.MethodPatch, "/api/files/"+f.ID+"/trash", alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodGet, "/api/shares/public/"+link.Token, "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	rr = env.do(t, http.MethodPatch, "/api/files/"+f.ID+"/restore", alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodGet, "/api/shares/public/"+link.Token, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/shares/link/not-a-uuid", alice, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/shares/link/"+link.ID.String(), bob, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/shares/link/"+link.ID.String(), alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var msg MessageResponse
	decode(t, rr, &msg)
	require.Equal(t, "Link deleted", msg.Message)

	rr = env.do(t, http.MethodGet, "/api/shares/public/"+link.Token, "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "Share link not found or has expired.", errorMessage(t, rr))

	rr = env.do(t, http.MethodGet, "/api/shares/public/"+link.Token+"/download", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPublicFolderLinkCannotDownload(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice@example.com").AccessToken

	folder := env.createFolder(t, alice, "Album", nil)
	rr := env.do(t, http.MethodPost, "/api/shares/link", alice, LinkShareRequest{ResourceID: folder.ID})
	require.Equal(t, http.StatusCreated, rr.Code)
	var link models.LinkShare
	decode(t, rr, &link)

	rr = env.do(t, http.MethodGet, "/api/shares/public/"+link.Token+"/download", "", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
