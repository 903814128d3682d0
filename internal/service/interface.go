package service

import (
	"context"

	"github.com/weiawesome/wes-io-chat/internal/domain"
)

// SendMessageInput carries the fields of a new message. Sender is the
// authenticated caller, never a client-supplied value.
type SendMessageInput struct {
	ChatID    string
	Sender    string
	Receiver  string
	Text      string
	MediaURLs []string
}

// ChatService runs the chat lifecycle: every mutation is persisted first and
// then pushed into the chat's room.
type ChatService interface {
	CreateChat(ctx context.Context, actorID string, participantIDs []string) (*domain.Chat, error)
	SendMessage(ctx context.Context, in SendMessageInput) (*domain.Message, error)
	MarkMessageAsRead(ctx context.Context, actorID, messageID string) (*domain.Message, error)
	DeleteMessage(ctx context.Context, actorID, chatID, messageID string) error
	DeleteChat(ctx context.Context, actorID, chatID string) error

	GetUserChats(ctx context.Context, userID string) ([]domain.Chat, error)
	GetMessages(ctx context.Context, chatID string) ([]domain.Message, error)
	GetAllChats(ctx context.Context) ([]domain.Chat, error)
}

// Broadcaster pushes an event into a room.
type Broadcaster interface {
	Broadcast(roomID, event string, payload interface{}, excludeConnID string) error
}
