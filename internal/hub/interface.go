package hub

import "github.com/weiawesome/wes-io-chat/internal/domain"

// ConnectionRegistry is the room/identity bookkeeping the gateway and the
// chat use cases talk to.
type ConnectionRegistry interface {
	// Attach records the identity of an authenticated connection and joins
	// it to the room named after the user id.
	Attach(client *Client, identity *domain.Identity) error
	Identity(connID string) (*domain.Identity, bool)

	Join(client *Client, roomID string) error
	LeaveAll(client *Client)
	// Unregister drops the connection entirely and closes its send queue.
	Unregister(client *Client)

	// Broadcast delivers an event to every connection in roomID except
	// excludeConnID. An empty room is not an error.
	Broadcast(roomID, event string, payload interface{}, excludeConnID string) error
	// SendTo delivers an event to every connection of userID.
	SendTo(userID, event string, payload interface{}) error
}
