package repository

import (
	"context"

	"github.com/weiawesome/wes-io-chat/internal/domain"
)

// ChatRepository is the durable store for chats and their messages.
type ChatRepository interface {
	CreateChat(ctx context.Context, participantIDs []string) (*domain.Chat, error)
	GetChat(ctx context.Context, chatID string) (*domain.Chat, error)
	GetUserChats(ctx context.Context, userID string) ([]domain.Chat, error)
	GetAllChats(ctx context.Context) ([]domain.Chat, error)

	// SendMessage persists msg and points the chat's last message at it.
	SendMessage(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	GetMessages(ctx context.Context, chatID string) ([]domain.Message, error)

	// MarkMessageAsRead is idempotent. The returned chat is non-nil only when
	// the message is the chat's last message.
	MarkMessageAsRead(ctx context.Context, messageID string) (*domain.Message, *domain.Chat, error)

	// DeleteMessage returns false when no such message exists in chatID.
	DeleteMessage(ctx context.Context, chatID, messageID string) (bool, error)
	DeleteChat(ctx context.Context, chatID string) (bool, error)
}
