package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vaultify/internal/config"
	"vaultify/internal/database/memory"
	"vaultify/internal/graph"
	"vaultify/internal/identity"
	"vaultify/internal/storage"
	"vaultify/internal/websocket"

	"github.com/stretchr/testify/require"
)

const testPublicURL = "http://vaultify.test"

type testEnv struct {
	server  *Server
	handler http.Handler
	store   *memory.Store
	hub     *websocket.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		PublicURL: testPublicURL,
		JWT: config.JWTConfig{
			Secret:     "api_test_secret",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	blobs, err := storage.NewLocalBlobStore(files, testPublicURL, "blob_test_secret")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub(nil)
	go hub.Run(ctx)

	store := memory.New()
	svc, err := graph.NewService(store, blobs, identity.NewDirectory(store, 16, time.Minute), graph.Options{Publisher: hub})
	require.NoError(t, err)

	server := NewServer(cfg, store, svc, hub, blobs, nil)
	return &testEnv{server: server, handler: server.Routes(), store: store, hub: hub}
}

// do sends a request through the full router. body may be nil, a string or
// anything JSON-encodable.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) signup(t *testing.T, email string) TokenResponse {
	t.Helper()

	rr := e.do(t, http.MethodPost, "/api/auth/signup", "", CredentialsRequest{Email: email, Password: "password123"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var tokens TokenResponse
	decode(t, rr, &tokens)
	return tokens
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, rr, &resp)
	return resp.Error
}
