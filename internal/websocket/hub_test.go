package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vaultify/internal/logging"
	"vaultify/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(logging.Nop())
	go hub.Run(ctx)
	return hub
}

func dial(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, userID)
		hub.Register <- client
		go client.ReadPump()
		go client.WritePump()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount(userID) > 0 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestHubPublishesToOwner(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "user-a")

	hub.Publish(context.Background(), models.Event{
		ID:        7,
		UserID:    "user-a",
		EventType: "node_created",
		Payload:   json.RawMessage(`{"id":"n1"}`),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got models.Event
	require.NoError(t, json.Unmarshal(msg, &got))
	require.EqualValues(t, 7, got.ID)
	require.Equal(t, "node_created", got.EventType)
	require.JSONEq(t, `{"id":"n1"}`, string(got.Payload))
}

func TestHubDoesNotLeakAcrossUsers(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "user-b")

	hub.Publish(context.Background(), models.Event{ID: 1, UserID: "someone-else", EventType: "node_created", Payload: json.RawMessage(`{}`)})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "user-c")

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount("user-c") == 0 }, 2*time.Second, 10*time.Millisecond)
}
