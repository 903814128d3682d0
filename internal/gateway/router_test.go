package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/hub"
)

type stubAuth map[string]*domain.Identity

func (s stubAuth) Authenticate(_ context.Context, token string) (*domain.Identity, error) {
	if id, ok := s[token]; ok {
		copied := *id
		return &copied, nil
	}
	return nil, errors.New("authentication failed")
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type harness struct {
	t      *testing.T
	hub    *hub.Hub
	router *Router
	cfg    config.WebSocketConfig
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.WebSocketConfig{SendBuffer: 32}
	h := hub.NewHub(cfg)
	go h.Run()
	t.Cleanup(h.Stop)

	auth := stubAuth{
		"tok-a": {UserID: "a", Name: "Alice"},
		"tok-b": {UserID: "b", Name: "Bob"},
		"tok-c": {UserID: "c", Name: "Carol"},
	}
	return &harness{t: t, hub: h, router: NewRouter(h, auth), cfg: cfg}
}

// connect registers a connection and runs the handshake with token. The
// resulting connected or socket_error frame is consumed.
func (hs *harness) connect(token string) *hub.Client {
	hs.t.Helper()
	c := hub.NewClient(uuid.NewString(), hs.hub, nil, hs.cfg)
	hs.hub.Register(c)
	hs.router.Connect(context.Background(), c, token)
	hs.recv(c)
	return c
}

func (hs *harness) send(c *hub.Client, event string, data interface{}) {
	hs.t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	require.NoError(hs.t, err)
	hs.router.HandleMessage(c, raw)
}

func (hs *harness) recv(c *hub.Client) frame {
	hs.t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(hs.t, ok, "send queue closed")
		var f frame
		require.NoError(hs.t, json.Unmarshal(data, &f))
		return f
	case <-time.After(time.Second):
		hs.t.Fatalf("no frame for %s", c.ID)
		return frame{}
	}
}

// quiet asserts nothing is pending for c by pushing a sentinel through the
// same ordered queue.
func (hs *harness) quiet(c *hub.Client, userID string) {
	hs.t.Helper()
	require.NoError(hs.t, hs.hub.SendTo(userID, "sentinel", nil))
	assert.Equal(hs.t, "sentinel", hs.recv(c).Event)
}

func TestConnect(t *testing.T) {
	hs := newHarness(t)

	c := hub.NewClient(uuid.NewString(), hs.hub, nil, hs.cfg)
	hs.hub.Register(c)
	hs.router.Connect(context.Background(), c, "tok-a")
	assert.Equal(t, domain.EventConnected, hs.recv(c).Event)
	assert.Equal(t, 1, hs.hub.RoomSize("a"))

	bad := hub.NewClient(uuid.NewString(), hs.hub, nil, hs.cfg)
	hs.hub.Register(bad)
	hs.router.Connect(context.Background(), bad, "forged")
	got := hs.recv(bad)
	assert.Equal(t, domain.EventSocketError, got.Event)
	assert.JSONEq(t, `"authentication failed"`, string(got.Data))
	_, ok := hs.hub.Identity(bad.ID)
	assert.False(t, ok)

	// The connection stays usable and can authenticate in-band.
	hs.send(bad, domain.EventAuthenticate, map[string]string{"token": "tok-b"})
	assert.Equal(t, domain.EventConnected, hs.recv(bad).Event)
	id, ok := hs.hub.Identity(bad.ID)
	require.True(t, ok)
	assert.Equal(t, "b", id.UserID)
}

func TestJoinChat_UnauthenticatedIgnored(t *testing.T) {
	hs := newHarness(t)
	anon := hs.connect("")

	hs.send(anon, domain.EventJoinChat, "chat-1")
	assert.Equal(t, 0, hs.hub.RoomSize("chat-1"))

	hs.send(anon, domain.EventTyping, "chat-1")
	got := hs.recv(anon)
	assert.Equal(t, domain.EventSocketError, got.Event)
	assert.JSONEq(t, `"not authenticated"`, string(got.Data))
}

func TestTyping_RoomScopedAndExcludesSender(t *testing.T) {
	hs := newHarness(t)
	a := hs.connect("tok-a")
	b := hs.connect("tok-b")
	outsider := hs.connect("tok-c")

	hs.send(a, domain.EventJoinChat, "chat-1")
	hs.send(b, domain.EventJoinChat, map[string]string{"chatId": "chat-1"})
	require.Equal(t, 2, hs.hub.RoomSize("chat-1"))

	for _, event := range []string{domain.EventTyping, domain.EventStopTyping} {
		hs.send(a, event, "chat-1")

		got := hs.recv(b)
		assert.Equal(t, event, got.Event)
		assert.JSONEq(t, `{"chatId":"chat-1","userId":"a"}`, string(got.Data))
	}

	hs.quiet(a, "a")
	hs.quiet(outsider, "c")
}

func TestTyping_MissingChatID(t *testing.T) {
	hs := newHarness(t)
	a := hs.connect("tok-a")

	hs.send(a, domain.EventTyping, map[string]string{})
	got := hs.recv(a)
	assert.Equal(t, domain.EventSocketError, got.Event)
	assert.Contains(t, string(got.Data), "chatId is required")
}

func TestSignaling_StampsSenderIdentity(t *testing.T) {
	hs := newHarness(t)
	a := hs.connect("tok-a")
	b := hs.connect("tok-b")

	tests := []struct {
		name   string
		from   *hub.Client
		to     *hub.Client
		event  string
		data   interface{}
		expect string
	}{
		{
			name:   "offer ignores forged callerId",
			from:   a,
			to:     b,
			event:  domain.EventCallOffer,
			data:   map[string]interface{}{"offer": map[string]string{"sdp": "o"}, "targetUserId": "b", "callerId": "mallory"},
			expect: `{"offer":{"sdp":"o"},"callerId":"a"}`,
		},
		{
			name:   "answer goes back to caller",
			from:   b,
			to:     a,
			event:  domain.EventCallAnswer,
			data:   map[string]interface{}{"answer": map[string]string{"sdp": "x"}, "callerId": "a", "targetUserId": "mallory"},
			expect: `{"answer":{"sdp":"x"},"targetUserId":"b"}`,
		},
		{
			name:   "ice candidate",
			from:   b,
			to:     a,
			event:  domain.EventCallICECandidate,
			data:   map[string]interface{}{"candidate": "cand", "targetUserId": "a", "callerId": "mallory"},
			expect: `{"candidate":"cand","callerId":"b"}`,
		},
		{
			name:   "reject",
			from:   b,
			to:     a,
			event:  domain.EventRejectCall,
			data:   map[string]interface{}{"callerId": "a", "receiverId": "mallory"},
			expect: `{"receiverId":"b"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs.send(tt.from, tt.event, tt.data)

			got := hs.recv(tt.to)
			assert.Equal(t, tt.event, got.Event)
			assert.JSONEq(t, tt.expect, string(got.Data))
		})
	}

	hs.quiet(a, "a")
	hs.quiet(b, "b")
}

func TestSignaling_StartAndEndCallGoToChatRoom(t *testing.T) {
	hs := newHarness(t)
	a := hs.connect("tok-a")
	b := hs.connect("tok-b")
	hs.send(a, domain.EventJoinChat, "chat-1")
	hs.send(b, domain.EventJoinChat, "chat-1")

	for _, event := range []string{domain.EventStartVideoCall, domain.EventStartAudioCall, domain.EventEndCall} {
		hs.send(a, event, map[string]string{"chatId": "chat-1", "targetUserId": "b", "callerId": "mallory"})

		got := hs.recv(b)
		assert.Equal(t, event, got.Event)
		assert.JSONEq(t, `{"callerId":"a","targetUserId":"b"}`, string(got.Data))
	}

	hs.quiet(a, "a")
}

func TestSignaling_ValidatesPayload(t *testing.T) {
	hs := newHarness(t)
	a := hs.connect("tok-a")

	tests := []struct {
		event string
		data  interface{}
	}{
		{event: domain.EventCallOffer, data: map[string]string{"targetUserId": "b"}},
		{event: domain.EventCallAnswer, data: map[string]string{"answer": "x"}},
		{event: domain.EventCallICECandidate, data: nil},
		{event: domain.EventRejectCall, data: map[string]string{}},
		{event: domain.EventStartVideoCall, data: map[string]string{"chatId": "chat-1"}},
		{event: domain.EventEndCall, data: "chat-1"},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			hs.send(a, tt.event, tt.data)
			assert.Equal(t, domain.EventSocketError, hs.recv(a).Event)
		})
	}
}

func TestSignaling_NoRecipientIsSilent(t *testing.T) {
	hs := newHarness(t)
	a := hs.connect("tok-a")

	hs.send(a, domain.EventCallOffer, map[string]interface{}{"offer": "o", "targetUserId": "offline"})
	hs.quiet(a, "a")
}

func TestDispatch_ErrorsKeepConnectionUsable(t *testing.T) {
	hs := newHarness(t)
	a := hs.connect("tok-a")

	hs.router.handlers["explode"] = func(context.Context, *hub.Client, json.RawMessage) error {
		panic("boom")
	}

	hs.send(a, "explode", nil)
	got := hs.recv(a)
	assert.Equal(t, domain.EventSocketError, got.Event)
	assert.JSONEq(t, `"internal error"`, string(got.Data))

	hs.router.HandleMessage(a, []byte("{not json"))
	assert.Equal(t, domain.EventSocketError, hs.recv(a).Event)

	hs.send(a, "no_such_event", nil)
	got = hs.recv(a)
	assert.Equal(t, domain.EventSocketError, got.Event)
	assert.JSONEq(t, `"unknown event: no_such_event"`, string(got.Data))

	hs.send(a, domain.EventPing, nil)
	assert.Equal(t, domain.EventPong, hs.recv(a).Event)
}

func TestDisconnect_LeavesAllRooms(t *testing.T) {
	hs := newHarness(t)
	a := hs.connect("tok-a")
	b := hs.connect("tok-b")
	hs.send(a, domain.EventJoinChat, "chat-1")
	hs.send(b, domain.EventJoinChat, "chat-1")

	hs.send(a, domain.EventDisconnect, nil)

	assert.Equal(t, 1, hs.hub.RoomSize("chat-1"))
	require.Eventually(t, func() bool { return hs.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hs.send(b, domain.EventTyping, "chat-1")
	_, open := <-a.Send
	assert.False(t, open)
}
