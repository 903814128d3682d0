package domain

import (
	"time"

	"github.com/weiawesome/wes-io-chat/pkg/database"
)

// ChatModel is the GORM model for chats.
type ChatModel struct {
	ID            string             `gorm:"primaryKey;size:26"`
	LastMessageID *string            `gorm:"size:26"`
	LastMessage   *MessageModel      `gorm:"foreignKey:LastMessageID"`
	Participants  []ParticipantModel `gorm:"foreignKey:ChatID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time `gorm:"index"`
}

func (ChatModel) TableName() string {
	return "chats"
}

// ParticipantModel links a user to a chat.
type ParticipantModel struct {
	ChatID    string `gorm:"primaryKey;size:26"`
	UserID    string `gorm:"primaryKey;size:64;index"`
	CreatedAt time.Time
}

func (ParticipantModel) TableName() string {
	return "chat_participants"
}

// MessageModel is the GORM model for messages.
type MessageModel struct {
	ID         string              `gorm:"primaryKey;size:26"`
	ChatID     string              `gorm:"size:26;not null;index"`
	SenderID   string              `gorm:"size:64;not null"`
	ReceiverID *string             `gorm:"size:64"`
	Text       *string             `gorm:"type:text"`
	MediaURLs  database.StringList `gorm:"column:media_urls"`
	IsRead     bool                `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (MessageModel) TableName() string {
	return "messages"
}

// UserModel is the read-side view of the users table owned by the account
// service.
type UserModel struct {
	ID          string `gorm:"primaryKey;size:64"`
	Username    string `gorm:"size:64"`
	DisplayName string `gorm:"size:128"`
	Email       string `gorm:"size:255"`
	AvatarURL   string `gorm:"size:512"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (UserModel) TableName() string {
	return "users"
}

// ToIdentity strips the user row down to its public identity.
func (m *UserModel) ToIdentity() *Identity {
	name := m.DisplayName
	if name == "" {
		name = m.Username
	}
	return &Identity{
		UserID:    m.ID,
		Name:      name,
		Email:     m.Email,
		AvatarURL: m.AvatarURL,
	}
}

// ToDomain converts a ChatModel to a Chat. LastMessage is only set when the
// relation was preloaded.
func (m *ChatModel) ToDomain() *Chat {
	chat := &Chat{
		ID:           m.ID,
		Participants: make([]string, len(m.Participants)),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for i, p := range m.Participants {
		chat.Participants[i] = p.UserID
	}
	if m.LastMessage != nil {
		chat.LastMessage = m.LastMessage.ToDomain()
	}
	return chat
}

// ToDomain converts a MessageModel to a Message.
func (m *MessageModel) ToDomain() *Message {
	msg := &Message{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Sender:    m.SenderID,
		MediaURLs: []string(m.MediaURLs),
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if msg.MediaURLs == nil {
		msg.MediaURLs = []string{}
	}
	if m.ReceiverID != nil {
		msg.Receiver = *m.ReceiverID
	}
	if m.Text != nil {
		msg.Text = *m.Text
	}
	return msg
}

// MessageToModel converts a Message to its GORM model.
func MessageToModel(msg *Message) *MessageModel {
	model := &MessageModel{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		SenderID:  msg.Sender,
		MediaURLs: database.StringList(msg.MediaURLs),
		IsRead:    msg.IsRead,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: msg.UpdatedAt,
	}
	if msg.Receiver != "" {
		model.ReceiverID = &msg.Receiver
	}
	if msg.Text != "" {
		model.Text = &msg.Text
	}
	return model
}
