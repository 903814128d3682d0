package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/gateway"
	"github.com/weiawesome/wes-io-chat/internal/hub"
)

type tokenAuth map[string]string

func (a tokenAuth) Authenticate(_ context.Context, token string) (*domain.Identity, error) {
	if userID, ok := a[token]; ok {
		return &domain.Identity{UserID: userID, Name: userID}, nil
	}
	return nil, errors.New("authentication failed")
}

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newWSServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.WebSocketConfig{
		PingInterval:   time.Second,
		PongWait:       5 * time.Second,
		WriteWait:      time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     32,
	}
	h := hub.NewHub(cfg)
	go h.Run()

	router := gateway.NewRouter(h, tokenAuth{"tok-a": "a", "tok-b": "b"})

	engine := gin.New()
	NewWSHandler(h, router, "access_token", cfg).RegisterRoutes(engine)

	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		srv.Close()
		h.Stop()
	})
	return srv, h
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f wsFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func writeFrame(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": event, "data": data}))
}

func TestWebSocket_TypingBetweenTwoUsers(t *testing.T) {
	srv, h := newWSServer(t)

	a := dial(t, srv, "?token=tok-a")
	assert.Equal(t, domain.EventConnected, readFrame(t, a).Event)
	b := dial(t, srv, "?token=tok-b")
	assert.Equal(t, domain.EventConnected, readFrame(t, b).Event)

	writeFrame(t, a, domain.EventJoinChat, "chat-1")
	writeFrame(t, b, domain.EventJoinChat, "chat-1")
	require.Eventually(t, func() bool { return h.RoomSize("chat-1") == 2 }, 2*time.Second, 10*time.Millisecond)

	writeFrame(t, a, domain.EventTyping, "chat-1")

	got := readFrame(t, b)
	assert.Equal(t, domain.EventTyping, got.Event)
	assert.JSONEq(t, `{"chatId":"chat-1","userId":"a"}`, string(got.Data))

	// a gets no echo of its own typing; the next frame it sees is its pong.
	writeFrame(t, a, domain.EventPing, nil)
	assert.Equal(t, domain.EventPong, readFrame(t, a).Event)
}

func TestWebSocket_BadTokenKeepsConnectionOpen(t *testing.T) {
	srv, h := newWSServer(t)

	conn := dial(t, srv, "?token=nope")
	got := readFrame(t, conn)
	assert.Equal(t, domain.EventSocketError, got.Event)

	writeFrame(t, conn, domain.EventJoinChat, "chat-1")
	writeFrame(t, conn, domain.EventAuthenticate, map[string]string{"token": "tok-b"})
	assert.Equal(t, domain.EventConnected, readFrame(t, conn).Event)
	assert.Equal(t, 0, h.RoomSize("chat-1"))
	assert.Equal(t, 1, h.RoomSize("b"))
}

func TestWebSocket_CookieToken(t *testing.T) {
	srv, _ := newWSServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Cookie", "access_token=tok-a")

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	assert.Equal(t, domain.EventConnected, readFrame(t, conn).Event)
}

func TestWebSocket_DisconnectCleansUp(t *testing.T) {
	srv, h := newWSServer(t)

	a := dial(t, srv, "?token=tok-a")
	readFrame(t, a)
	writeFrame(t, a, domain.EventJoinChat, "chat-1")
	require.Eventually(t, func() bool { return h.RoomSize("chat-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Close())

	require.Eventually(t, func() bool {
		return h.RoomSize("chat-1") == 0 && h.RoomSize("a") == 0 && h.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.Broadcast("chat-1", domain.EventTyping, nil, ""))
}
