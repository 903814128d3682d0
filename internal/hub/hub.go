package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

var (
	ErrNotAuthenticated = errors.New("connection is not authenticated")
	ErrConnectionClosed = errors.New("connection is closed")
	ErrHubStopped       = errors.New("hub is stopped")
)

// Hub owns the connection table, room memberships and the identity side
// table. A single Run goroutine drains the broadcast queue, so events sent to
// one room are delivered in the order they were queued.
type Hub struct {
	clients     map[string]*Client             // connID -> client
	rooms       map[string]map[string]*Client  // roomID -> connID -> client
	memberships map[string]map[string]struct{} // connID -> roomIDs
	identities  map[string]*domain.Identity    // connID -> identity
	register    chan *Client
	unregister  chan *Client
	broadcast   chan *RoomMessage
	done        chan struct{}
	stopOnce    sync.Once
	mu          sync.RWMutex
	config      config.WebSocketConfig
}

// RoomMessage is a serialized frame queued for a room.
type RoomMessage struct {
	RoomID  string
	Data    []byte
	Exclude string // connection id to skip
}

var _ ConnectionRegistry = (*Hub)(nil)

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]*Client),
		memberships: make(map[string]map[string]struct{}),
		identities:  make(map[string]*domain.Identity),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *RoomMessage, 256),
		done:        make(chan struct{}),
		config:      cfg,
	}
}

func (h *Hub) Run() {
	l := log.L()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l.Debug().Str(log.FieldConnID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			var slow []*Client

			h.mu.RLock()
			for connID, client := range h.rooms[msg.RoomID] {
				if connID == msg.Exclude {
					continue
				}
				if !client.enqueue(msg.Data) {
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				l.Warn().Str(log.FieldConnID, client.ID).Str(log.FieldRoomID, msg.RoomID).Msg("send buffer full, dropping client")
				h.remove(client)
			}

		case <-h.done:
			h.mu.Lock()
			for _, client := range h.clients {
				h.removeLocked(client)
			}
			h.mu.Unlock()
			l.Info().Msg("hub stopped")
			return
		}
	}
}

// Stop terminates Run and closes every connection's send queue.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) Attach(client *Client, identity *domain.Identity) error {
	if identity == nil || identity.UserID == "" {
		return ErrNotAuthenticated
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if client.isClosed() {
		return ErrConnectionClosed
	}

	// Re-authenticating as someone else must not leave the old identity room
	// subscribed.
	if prev, ok := h.identities[client.ID]; ok && prev.UserID != identity.UserID {
		h.leaveLocked(client, prev.UserID)
	}

	h.identities[client.ID] = identity
	h.joinLocked(client, identity.UserID)

	l := log.L()
	l.Info().Str(log.FieldConnID, client.ID).Str(log.FieldUserID, identity.UserID).Msg("client authenticated")
	return nil
}

func (h *Hub) Identity(connID string) (*domain.Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	id, ok := h.identities[connID]
	return id, ok
}

// Join adds client to roomID. Joining twice is a no-op.
func (h *Hub) Join(client *Client, roomID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.isClosed() {
		return ErrConnectionClosed
	}
	if _, ok := h.identities[client.ID]; !ok {
		return ErrNotAuthenticated
	}

	h.joinLocked(client, roomID)

	l := log.L()
	l.Debug().Str(log.FieldConnID, client.ID).Str(log.FieldRoomID, roomID).Msg("client joined room")
	return nil
}

// LeaveAll removes client from every room it joined. Its identity stays
// attached.
func (h *Hub) LeaveAll(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID := range h.memberships[client.ID] {
		h.leaveLocked(client, roomID)
	}
}

func (h *Hub) Broadcast(roomID, event string, payload interface{}, excludeConnID string) error {
	data, err := json.Marshal(domain.OutboundEnvelope{Event: event, Data: payload})
	if err != nil {
		return err
	}

	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	select {
	case h.broadcast <- &RoomMessage{RoomID: roomID, Data: data, Exclude: excludeConnID}:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) SendTo(userID, event string, payload interface{}) error {
	return h.Broadcast(userID, event, payload, "")
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of connections in roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	removed := h.removeLocked(client)
	h.mu.Unlock()

	if removed {
		l := log.L()
		l.Debug().Str(log.FieldConnID, client.ID).Msg("client unregistered")
	}
}

func (h *Hub) removeLocked(client *Client) bool {
	_, registered := h.clients[client.ID]

	for roomID := range h.memberships[client.ID] {
		h.leaveLocked(client, roomID)
	}
	delete(h.memberships, client.ID)
	delete(h.identities, client.ID)
	delete(h.clients, client.ID)
	client.close()

	return registered
}

func (h *Hub) joinLocked(client *Client, roomID string) {
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	members[client.ID] = client

	joined, ok := h.memberships[client.ID]
	if !ok {
		joined = make(map[string]struct{})
		h.memberships[client.ID] = joined
	}
	joined[roomID] = struct{}{}
}

func (h *Hub) leaveLocked(client *Client, roomID string) {
	if members, ok := h.rooms[roomID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if joined, ok := h.memberships[client.ID]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(h.memberships, client.ID)
		}
	}
}
