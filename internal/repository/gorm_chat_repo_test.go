package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-chat/internal/domain"
)

func newRepo(t *testing.T, cascade bool) *GormChatRepository {
	return NewGormChatRepository(newTestDB(t), cascade)
}

func send(t *testing.T, r *GormChatRepository, chatID, sender, text string) *domain.Message {
	t.Helper()
	msg, err := domain.NewMessage(chatID, sender, "", text, nil)
	require.NoError(t, err)
	stored, err := r.SendMessage(context.Background(), msg)
	require.NoError(t, err)
	return stored
}

func TestCreateChat_Participants(t *testing.T) {
	r := newRepo(t, true)
	ctx := context.Background()

	_, err := r.CreateChat(ctx, []string{"a"})
	assert.ErrorIs(t, err, domain.ErrInvalidParticipants)

	_, err = r.CreateChat(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParticipants)

	chat, err := r.CreateChat(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.NoError(t, domain.ValidateID(chat.ID))
	assert.ElementsMatch(t, []string{"a", "b"}, chat.Participants)
	assert.Nil(t, chat.LastMessage)

	loaded, err := r.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, loaded.Participants)
}

func TestSendMessage_ContentInvariant(t *testing.T) {
	r := newRepo(t, true)
	ctx := context.Background()

	chat, err := r.CreateChat(ctx, []string{"a", "b"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		msg     *domain.Message
		wantErr error
	}{
		{
			name:    "no text and empty media",
			msg:     &domain.Message{ChatID: chat.ID, Sender: "a", MediaURLs: []string{}},
			wantErr: domain.ErrEmptyMessage,
		},
		{
			name:    "blank media entries only",
			msg:     &domain.Message{ChatID: chat.ID, Sender: "a", MediaURLs: []string{""}},
			wantErr: domain.ErrEmptyMessage,
		},
		{
			name:    "missing sender",
			msg:     &domain.Message{ChatID: chat.ID, Text: "hi"},
			wantErr: domain.ErrMissingSender,
		},
		{
			name:    "missing chat",
			msg:     &domain.Message{Sender: "a", Text: "hi"},
			wantErr: domain.ErrMissingChatID,
		},
		{
			name:    "unknown chat",
			msg:     &domain.Message{ChatID: domain.NewID(), Sender: "a", Text: "hi"},
			wantErr: domain.ErrChatNotFound,
		},
		{
			name: "text only",
			msg:  &domain.Message{ChatID: chat.ID, Sender: "a", Text: "hi"},
		},
		{
			name: "media only",
			msg:  &domain.Message{ChatID: chat.ID, Sender: "a", MediaURLs: []string{"http://x/y.png"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored, err := r.SendMessage(ctx, tt.msg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, stored.ID)
			assert.False(t, stored.IsRead)
			assert.Equal(t, tt.msg.Text, stored.Text)
		})
	}

	msgs, err := r.GetMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, []string{"http://x/y.png"}, msgs[1].MediaURLs)
}

func TestLastMessage_FollowsSendsAndDeletes(t *testing.T) {
	r := newRepo(t, true)
	ctx := context.Background()

	chat, err := r.CreateChat(ctx, []string{"a", "b"})
	require.NoError(t, err)

	m1 := send(t, r, chat.ID, "a", "one")
	m2 := send(t, r, chat.ID, "b", "two")
	m3 := send(t, r, chat.ID, "a", "three")

	lastID := func() string {
		t.Helper()
		c, err := r.GetChat(ctx, chat.ID)
		require.NoError(t, err)
		if c.LastMessage == nil {
			return ""
		}
		return c.LastMessage.ID
	}

	assert.Equal(t, m3.ID, lastID())

	ok, err := r.DeleteMessage(ctx, chat.ID, m3.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, m2.ID, lastID())

	// Deleting a message that is not the last one leaves the pointer alone.
	ok, err = r.DeleteMessage(ctx, chat.ID, m1.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, m2.ID, lastID())

	ok, err = r.DeleteMessage(ctx, chat.ID, m2.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", lastID())
}

func TestDeleteMessage_WrongChatOrMissing(t *testing.T) {
	r := newRepo(t, true)
	ctx := context.Background()

	c1, err := r.CreateChat(ctx, []string{"a", "b"})
	require.NoError(t, err)
	c2, err := r.CreateChat(ctx, []string{"a", "c"})
	require.NoError(t, err)

	m := send(t, r, c1.ID, "a", "hello")

	ok, err := r.DeleteMessage(ctx, c2.ID, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.DeleteMessage(ctx, c1.ID, domain.NewID())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.DeleteMessage(ctx, "bad", m.ID)
	assert.ErrorIs(t, err, domain.ErrMalformedID)

	_, err = r.DeleteMessage(ctx, c1.ID, "bad")
	assert.ErrorIs(t, err, domain.ErrMalformedID)

	msgs, err := r.GetMessages(ctx, c1.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestMarkMessageAsRead_Idempotent(t *testing.T) {
	r := newRepo(t, true)
	ctx := context.Background()

	chat, err := r.CreateChat(ctx, []string{"a", "b"})
	require.NoError(t, err)
	older := send(t, r, chat.ID, "a", "first")
	latest := send(t, r, chat.ID, "a", "second")

	for i := 0; i < 2; i++ {
		msg, c, err := r.MarkMessageAsRead(ctx, latest.ID)
		require.NoError(t, err)
		assert.True(t, msg.IsRead)
		require.NotNil(t, c, "last message read should return the chat")
		assert.Equal(t, chat.ID, c.ID)
	}

	msg, c, err := r.MarkMessageAsRead(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, msg.IsRead)
	assert.Nil(t, c)

	_, _, err = r.MarkMessageAsRead(ctx, domain.NewID())
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestGetUserChats(t *testing.T) {
	r := newRepo(t, true)
	ctx := context.Background()

	ab, err := r.CreateChat(ctx, []string{"a", "b"})
	require.NoError(t, err)
	ac, err := r.CreateChat(ctx, []string{"a", "c"})
	require.NoError(t, err)
	_, err = r.CreateChat(ctx, []string{"b", "c"})
	require.NoError(t, err)

	send(t, r, ab.ID, "a", "bump")

	chats, err := r.GetUserChats(ctx, "a")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, ab.ID, chats[0].ID)
	assert.Equal(t, ac.ID, chats[1].ID)
	require.NotNil(t, chats[0].LastMessage)
	assert.Equal(t, "bump", chats[0].LastMessage.Text)

	all, err := r.GetAllChats(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteChat(t *testing.T) {
	tests := []struct {
		name         string
		cascade      bool
		wantMessages int
	}{
		{name: "cascade", cascade: true, wantMessages: 0},
		{name: "orphan", cascade: false, wantMessages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRepo(t, tt.cascade)
			ctx := context.Background()

			chat, err := r.CreateChat(ctx, []string{"a", "b"})
			require.NoError(t, err)
			send(t, r, chat.ID, "a", "bye")

			ok, err := r.DeleteChat(ctx, chat.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			_, err = r.GetChat(ctx, chat.ID)
			assert.ErrorIs(t, err, domain.ErrChatNotFound)

			chats, err := r.GetUserChats(ctx, "a")
			require.NoError(t, err)
			assert.Empty(t, chats)

			msgs, err := r.GetMessages(ctx, chat.ID)
			require.NoError(t, err)
			assert.Len(t, msgs, tt.wantMessages)

			ok, err = r.DeleteChat(ctx, chat.ID)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}
