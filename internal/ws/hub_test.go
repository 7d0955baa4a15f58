package ws

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuth string

func (a staticAuth) ValidateToken(token string) (string, error) {
	if token != string(a) {
		return "", errors.New("bad token")
	}
	return "admin", nil
}

func newServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(log)
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, staticAuth("secret"), log, w, r)
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	return websocket.DefaultDialer.Dial(u, nil)
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestServeWs_RejectsBadToken(t *testing.T) {
	_, srv := newServer(t)

	_, resp, err := dial(t, srv, "wrong")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBroadcast(t *testing.T) {
	hub, srv := newServer(t)

	conn, _, err := dial(t, srv, "secret")
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(EventGroupJoin, map[string]string{"group_id": "g1"})

	ev := readEvent(t, conn)
	assert.Equal(t, EventGroupJoin, ev.Type)
	assert.Equal(t, map[string]any{"group_id": "g1"}, ev.Data)
}

func TestSubscribeFiltersEvents(t *testing.T) {
	hub, srv := newServer(t)

	conn, _, err := dial(t, srv, "secret")
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe","data":{"types":["qr"]}}`)))
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		for c := range hub.clients {
			return !c.wants(EventGroupJoin)
		}
		return false
	}, time.Second, 5*time.Millisecond)

	hub.Broadcast(EventGroupJoin, nil)
	hub.Broadcast(EventQR, "code")

	ev := readEvent(t, conn)
	assert.Equal(t, EventQR, ev.Type)
}

func TestBroadcast_NilHub(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Broadcast(EventQR, "x") })
}
